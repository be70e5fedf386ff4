package image

import (
	"errors"
	"fmt"
	"image"
	"image/color"

	"golang.org/x/image/draw"
)

var (
	// ErrInvalidImage размеры или буфер пикселей не согласованы.
	ErrInvalidImage = errors.New("invalid image")
	// ErrEmptyPage на странице не найдено содержимого, печатать нечего.
	ErrEmptyPage = errors.New("empty page")
)

// Channels число байт на пиксель в RasterImage.
type Channels int

const (
	RGB  Channels = 3
	RGBA Channels = 4
)

// RasterImage растровая страница: Width*Height пикселей построчно,
// по Channels байт на пиксель (R, G, B[, A]).
// Стадии конвейера никогда не изменяют входное изображение.
type RasterImage struct {
	Width    int
	Height   int
	Channels Channels
	Pix      []byte
}

// NewRasterImage создаёт белое изображение заданного размера.
func NewRasterImage(width, height int, ch Channels) (*RasterImage, error) {
	img := &RasterImage{Width: width, Height: height, Channels: ch}
	if width <= 0 || height <= 0 {
		return nil, img.Validate()
	}
	img.Pix = make([]byte, width*height*int(ch))
	for i := range img.Pix {
		img.Pix[i] = 0xff
	}
	return img, img.Validate()
}

// Validate проверяет инвариант len(Pix) == Width*Height*Channels.
func (r *RasterImage) Validate() error {
	if r == nil {
		return fmt.Errorf("%w: nil image", ErrInvalidImage)
	}
	if r.Channels != RGB && r.Channels != RGBA {
		return fmt.Errorf("%w: unsupported channel count %d", ErrInvalidImage, r.Channels)
	}
	if r.Width <= 0 || r.Height <= 0 {
		return fmt.Errorf("%w: dimensions %dx%d", ErrInvalidImage, r.Width, r.Height)
	}
	if want := r.Width * r.Height * int(r.Channels); len(r.Pix) != want {
		return fmt.Errorf("%w: pixel buffer has %d bytes, want %d", ErrInvalidImage, len(r.Pix), want)
	}
	return nil
}

func (r *RasterImage) offset(x, y int) int {
	return (y*r.Width + x) * int(r.Channels)
}

// SetRGB записывает цвет пикселя; альфа (если есть) становится непрозрачной.
func (r *RasterImage) SetRGB(x, y int, red, green, blue uint8) {
	i := r.offset(x, y)
	r.Pix[i], r.Pix[i+1], r.Pix[i+2] = red, green, blue
	if r.Channels == RGBA {
		r.Pix[i+3] = 0xff
	}
}

// RGBAt возвращает цветовые каналы пикселя без альфы.
func (r *RasterImage) RGBAt(x, y int) (red, green, blue uint8) {
	i := r.offset(x, y)
	return r.Pix[i], r.Pix[i+1], r.Pix[i+2]
}

func (r *RasterImage) ColorModel() color.Model { return color.NRGBAModel }

func (r *RasterImage) Bounds() image.Rectangle { return image.Rect(0, 0, r.Width, r.Height) }

// At реализует image.Image. Альфа игнорируется, как и во всём конвейере.
func (r *RasterImage) At(x, y int) color.Color {
	if !(image.Point{X: x, Y: y}).In(r.Bounds()) {
		return color.NRGBA{}
	}
	red, green, blue := r.RGBAt(x, y)
	return color.NRGBA{R: red, G: green, B: blue, A: 0xff}
}

// Crop копирует прямоугольник rect (полуоткрытый, как image.Rectangle).
func (r *RasterImage) Crop(rect image.Rectangle) (*RasterImage, error) {
	if err := r.Validate(); err != nil {
		return nil, err
	}
	rect = rect.Intersect(r.Bounds())
	if rect.Empty() {
		return nil, fmt.Errorf("%w: crop %v outside %dx%d", ErrInvalidImage, rect, r.Width, r.Height)
	}

	ch := int(r.Channels)
	out := &RasterImage{Width: rect.Dx(), Height: rect.Dy(), Channels: r.Channels}
	out.Pix = make([]byte, out.Width*out.Height*ch)
	rowLen := out.Width * ch
	for y := 0; y < out.Height; y++ {
		src := r.offset(rect.Min.X, rect.Min.Y+y)
		copy(out.Pix[y*rowLen:(y+1)*rowLen], r.Pix[src:src+rowLen])
	}
	return out, nil
}

// toNRGBA копия в формате image.NRGBA для библиотек обработки изображений.
func (r *RasterImage) toNRGBA() *image.NRGBA {
	dst := image.NewNRGBA(r.Bounds())
	ch := int(r.Channels)
	for i, j := 0, 0; i < len(r.Pix); i, j = i+ch, j+4 {
		dst.Pix[j], dst.Pix[j+1], dst.Pix[j+2], dst.Pix[j+3] = r.Pix[i], r.Pix[i+1], r.Pix[i+2], 0xff
	}
	return dst
}

// FromImage переводит любое image.Image в RGB RasterImage.
// Изображение накладывается на белый фон: прозрачное это бумага, а не краска.
func FromImage(src image.Image) (*RasterImage, error) {
	if src == nil {
		return nil, fmt.Errorf("%w: nil source", ErrInvalidImage)
	}
	b := src.Bounds()
	if b.Empty() {
		return nil, fmt.Errorf("%w: empty bounds %v", ErrInvalidImage, b)
	}

	canvas := image.NewRGBA(image.Rect(0, 0, b.Dx(), b.Dy()))
	draw.Draw(canvas, canvas.Bounds(), image.White, image.Point{}, draw.Src)
	draw.Draw(canvas, canvas.Bounds(), src, b.Min, draw.Over)

	out := &RasterImage{Width: b.Dx(), Height: b.Dy(), Channels: RGB}
	out.Pix = make([]byte, out.Width*out.Height*3)
	for i, j := 0, 0; j < len(canvas.Pix); i, j = i+3, j+4 {
		out.Pix[i], out.Pix[i+1], out.Pix[i+2] = canvas.Pix[j], canvas.Pix[j+1], canvas.Pix[j+2]
	}
	return out, nil
}
