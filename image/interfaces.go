package image

import (
	"context"
	"fmt"
)

// Document источник страниц для задания печати. Реализует внешний рендер
// (PDF, HTML и т.п.); страницы запрашиваются по одной, по мере печати.
type Document interface {
	PageCount() int
	// RenderPage растеризует страницу index. targetWidth ширина печати
	// в точках; рендеру стоит брать CaptureWidth(targetWidth).
	RenderPage(ctx context.Context, index, targetWidth int) (*RasterImage, error)
}

// Pages документ из уже готовых изображений.
type Pages []*RasterImage

func (p Pages) PageCount() int { return len(p) }

func (p Pages) RenderPage(_ context.Context, index, _ int) (*RasterImage, error) {
	if index < 0 || index >= len(p) {
		return nil, fmt.Errorf("page %d out of range [0, %d)", index, len(p))
	}
	return p[index], nil
}
