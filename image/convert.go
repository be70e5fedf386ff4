package image

import (
	"fmt"

	"go.uber.org/zap"
)

// Converter готовит одну страницу к печати:
// обрезка полей, масштаб до ширины печати, дизеринг.
type Converter struct {
	// Ширина печатающей головки в точках (384 для 58 мм, 576 для 80 мм).
	TargetWidth int

	Trim TrimOptions

	Logger *zap.Logger
}

// NewConverter конвертер с параметрами обрезки по умолчанию.
func NewConverter(targetWidth int, logger *zap.Logger) *Converter {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Converter{
		TargetWidth: targetWidth,
		Trim:        DefaultTrimOptions,
		Logger:      logger,
	}
}

// Convert возвращает ErrEmptyPage для страницы без содержимого
// и ErrInvalidImage для битого изображения.
func (c *Converter) Convert(page *RasterImage) (*MonoBitmap, error) {
	log := c.Logger
	if log == nil {
		log = zap.NewNop()
	}
	if err := page.Validate(); err != nil {
		return nil, err
	}

	box, ok := Trim(page, c.Trim)
	if !ok {
		log.Debug("Page has no content",
			zap.Int("width", page.Width),
			zap.Int("height", page.Height))
		return nil, ErrEmptyPage
	}

	cropped, err := page.Crop(box)
	if err != nil {
		return nil, fmt.Errorf("crop page: %w", err)
	}

	scaled, err := ResizeToWidth(cropped, c.TargetWidth)
	if err != nil {
		return nil, fmt.Errorf("resize page: %w", err)
	}

	bitmap, err := ToMonochrome(scaled)
	if err != nil {
		return nil, fmt.Errorf("dither page: %w", err)
	}

	log.Debug("Page converted",
		zap.Stringer("content", box),
		zap.Int("width", bitmap.Width()),
		zap.Int("height", bitmap.Height()))
	return bitmap, nil
}
