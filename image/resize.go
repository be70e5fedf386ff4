package image

import (
	"fmt"
	"math"

	"github.com/nfnt/resize"
)

// minCaptureWidth рендер уже этого даёт мыльный мелкий текст.
const minCaptureWidth = 600

// CaptureWidth ширина, в которой внешнему рендеру стоит растеризовать
// страницу: крупнее ширины печати, чтобы после обрезки было что уменьшать.
func CaptureWidth(targetWidth int) int {
	if w := targetWidth * 2; w > minCaptureWidth {
		return w
	}
	return minCaptureWidth
}

// ResizeToWidth масштабирует изображение до targetWidth с сохранением пропорций
// (билинейная интерполяция). Высота round(h*target/w), но не меньше 1.
// Всегда возвращает новое изображение, даже если ширина уже нужная.
func ResizeToWidth(img *RasterImage, targetWidth int) (*RasterImage, error) {
	if err := img.Validate(); err != nil {
		return nil, err
	}
	if targetWidth <= 0 {
		return nil, fmt.Errorf("%w: target width %d", ErrInvalidImage, targetWidth)
	}
	if img.Width == targetWidth {
		out := *img
		out.Pix = append([]byte(nil), img.Pix...)
		return &out, nil
	}

	height := int(math.Round(float64(img.Height) * float64(targetWidth) / float64(img.Width)))
	if height < 1 {
		height = 1
	}

	scaled := resize.Resize(uint(targetWidth), uint(height), img.toNRGBA(), resize.Bilinear)
	return FromImage(scaled)
}
