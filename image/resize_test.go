package image

import (
	"errors"
	"testing"
)

func TestResizeToWidth(t *testing.T) {
	tests := []struct {
		name       string
		w, h       int
		target     int
		wantHeight int
	}{
		{name: "downscale", w: 768, h: 1000, target: 384, wantHeight: 500},
		{name: "upscale", w: 100, h: 33, target: 576, wantHeight: 190},
		{name: "rounding", w: 3, h: 2, target: 4, wantHeight: 3},
		{name: "flat line keeps a row", w: 1000, h: 1, target: 10, wantHeight: 1},
	}

	for _, tc := range tests {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			img := newFilled(t, tc.w, tc.h, 0)
			out, err := ResizeToWidth(img, tc.target)
			if err != nil {
				t.Fatalf("ResizeToWidth: %v", err)
			}
			if out.Width != tc.target || out.Height != tc.wantHeight {
				t.Errorf("ResizeToWidth = %dx%d, want %dx%d", out.Width, out.Height, tc.target, tc.wantHeight)
			}
			if err := out.Validate(); err != nil {
				t.Errorf("result is invalid: %v", err)
			}
		})
	}
}

func TestResizeKeepsSolidColor(t *testing.T) {
	img := newFilled(t, 50, 50, 0)
	out, err := ResizeToWidth(img, 20)
	if err != nil {
		t.Fatal(err)
	}
	for y := 0; y < out.Height; y++ {
		for x := 0; x < out.Width; x++ {
			if r, g, b := out.RGBAt(x, y); r != 0 || g != 0 || b != 0 {
				t.Fatalf("pixel (%d,%d) = %d,%d,%d, want black", x, y, r, g, b)
			}
		}
	}
}

func TestResizeInvalidTarget(t *testing.T) {
	img := newFilled(t, 10, 10, 0)
	if _, err := ResizeToWidth(img, 0); !errors.Is(err, ErrInvalidImage) {
		t.Errorf("ResizeToWidth(0) = %v, want ErrInvalidImage", err)
	}
}

func TestCaptureWidth(t *testing.T) {
	for _, tc := range []struct{ target, want int }{
		{384, 768}, {576, 1152}, {200, 600}, {300, 600},
	} {
		if got := CaptureWidth(tc.target); got != tc.want {
			t.Errorf("CaptureWidth(%d) = %d, want %d", tc.target, got, tc.want)
		}
	}
}

func TestResizeSameWidthReturnsCopy(t *testing.T) {
	img := newFilled(t, 384, 20, 0)
	out, err := ResizeToWidth(img, 384)
	if err != nil {
		t.Fatal(err)
	}
	if out == img {
		t.Fatal("ResizeToWidth returned its input")
	}
	if out.Width != 384 || out.Height != 20 {
		t.Errorf("ResizeToWidth = %dx%d, want 384x20", out.Width, out.Height)
	}

	out.SetRGB(0, 0, 255, 255, 255)
	if r, _, _ := img.RGBAt(0, 0); r != 0 {
		t.Errorf("writing to the result changed the input")
	}
}
