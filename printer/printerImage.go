package printer

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	imgInternal "github.com/AlexStarov/escpos-raster/image"
)

// PrintPage печатает одну страницу: обрезка, масштаб, дизеринг и отправка
// полосами GS v 0. Для пустой страницы возвращает imgInternal.ErrEmptyPage
// и ничего не пишет.
func (p *Printer) PrintPage(ctx context.Context, page *imgInternal.RasterImage) error {
	bitmap, err := p.conv.Convert(page)
	if err != nil {
		return err
	}

	chunks, err := imgInternal.FrameForTransport(bitmap, p.profile.MaxRowsPerChunk)
	if err != nil {
		return fmt.Errorf("frame page: %w", err)
	}

	before := p.written
	if err := p.send(ctx, chunks...); err != nil {
		return err
	}
	p.printed++

	p.log.Debug("Page sent",
		zap.Int("width", bitmap.Width()),
		zap.Int("height", bitmap.Height()),
		zap.Int("chunks", len(chunks)),
		zap.Int64("bytes", p.written-before))
	return nil
}
