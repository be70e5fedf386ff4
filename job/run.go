package job

import (
	"context"
	"errors"
	"fmt"
	"io"

	"go.uber.org/zap"

	imgInternal "github.com/AlexStarov/escpos-raster/image"
	logInternal "github.com/AlexStarov/escpos-raster/log"
	"github.com/AlexStarov/escpos-raster/printer"
)

// run выполняет задание: ESC @, страницы по одной, подача и отрез.
// Пустые страницы пропускаются, битая страница или сбой записи
// прерывают задание, отмена проверяется между страницами и кусками.
func (q *Queue) run(h *Handle) (out Outcome) {
	log := q.logger.With(zap.String("job", h.id))
	ctx := h.ctx
	out = Outcome{JobID: h.id}

	defer releaseSink(h.sink, log)

	p, err := printer.NewPrinter(h.sink, h.profile, log)
	if err != nil {
		out.Status, out.Err = StatusFailed, err
		return out
	}
	defer func() {
		out.PagesPrinted = p.PagesPrinted()
		out.BytesWritten = p.Written()
	}()

	if r, ok := h.sink.(io.Reader); ok && h.profile.DrainInput {
		d := printer.StartDrainer(r, log)
		defer func() {
			d.Stop()
			log.Debug("Input drainer stopped", zap.Int64("discarded", d.Discarded()))
		}()
	}

	log.Info("Print job started",
		zap.String("printer", h.profile.Name),
		zap.Int("width", h.profile.WidthDots))

	if err := p.Begin(ctx); err != nil {
		return fail(ctx, out, err)
	}

	pages := h.doc.PageCount()
	if pages > h.profile.MaxPages {
		log.Warn("Too many pages, printing only the first ones",
			zap.Int("pages", pages),
			zap.Int("max", h.profile.MaxPages))
		out.PagesDropped = pages - h.profile.MaxPages
		pages = h.profile.MaxPages
	}

	for i := 0; i < pages; i++ {
		if err := ctx.Err(); err != nil {
			return fail(ctx, out, err)
		}
		if i > 0 {
			if err := p.Pause(ctx, h.profile.PageDelay); err != nil {
				return fail(ctx, out, err)
			}
		}

		page, err := h.doc.RenderPage(ctx, i, h.profile.WidthDots)
		if err != nil {
			return fail(ctx, out, &PageError{Page: i, Err: err})
		}

		err = p.PrintPage(ctx, page)
		switch {
		case errors.Is(err, imgInternal.ErrEmptyPage):
			log.Info("Skipping empty page", zap.Int("page", i))
			out.PagesSkipped++
		case err != nil:
			return fail(ctx, out, &PageError{Page: i, Err: err})
		}
	}

	if err := p.End(ctx); err != nil {
		return fail(ctx, out, err)
	}
	out.Status = StatusSucceeded
	return out
}

// fail классифицирует ошибку: отмена даёт StatusCanceled, остальное сбой.
func fail(ctx context.Context, out Outcome, err error) Outcome {
	if ctx.Err() != nil && errors.Is(err, ctx.Err()) {
		out.Status = StatusCanceled
		out.Err = fmt.Errorf("%w: %w", ErrJobCanceled, err)
		return out
	}
	out.Status = StatusFailed
	out.Err = err
	return out
}

func (q *Queue) canceledBeforeStart(h *Handle) Outcome {
	releaseSink(h.sink, q.logger.With(zap.String("job", h.id)))
	return Outcome{JobID: h.id, Status: StatusCanceled, Err: ErrJobCanceled}
}

// releaseSink закрывает приёмник, если он закрываемый.
func releaseSink(sink io.Writer, log *zap.Logger) {
	if c, ok := sink.(io.Closer); ok {
		logInternal.PrintIfErr(log, "Failed to close sink", c.Close())
	}
}
