package job

import (
	"context"
	"errors"
	"fmt"
	"io"

	imgInternal "github.com/AlexStarov/escpos-raster/image"
	"github.com/AlexStarov/escpos-raster/profile"
)

var (
	// ErrJobCanceled задание отменено; это отдельный исход, а не сбой.
	ErrJobCanceled = errors.New("job canceled")
	ErrQueueClosed = errors.New("print queue closed")
)

// Status чем закончилось задание.
type Status int

const (
	StatusSucceeded Status = iota
	StatusFailed
	StatusCanceled
)

func (s Status) String() string {
	switch s {
	case StatusSucceeded:
		return "succeeded"
	case StatusFailed:
		return "failed"
	case StatusCanceled:
		return "canceled"
	default:
		return fmt.Sprintf("Status(%d)", int(s))
	}
}

// PageError ошибка на конкретной странице задания.
type PageError struct {
	Page int
	Err  error
}

func (e *PageError) Error() string { return fmt.Sprintf("page %d: %v", e.Page, e.Err) }

func (e *PageError) Unwrap() error { return e.Err }

// Outcome итог задания.
type Outcome struct {
	JobID  string
	Status Status
	// Страницы, дошедшие до принтера, и пустые страницы, пропущенные без печати.
	PagesPrinted int
	PagesSkipped int
	// Страницы сверх Profile.MaxPages, которые не печатались.
	PagesDropped int
	BytesWritten int64
	// nil при успехе; при отмене оборачивает ErrJobCanceled.
	Err error
}

// Handle задание в очереди.
type Handle struct {
	id      string
	doc     imgInternal.Document
	profile profile.Profile
	sink    io.Writer

	ctx    context.Context
	cancel context.CancelFunc

	done    chan struct{}
	outcome Outcome
}

func (h *Handle) ID() string { return h.id }

// Cancel просит задание остановиться. Ожидающее задание не начнётся,
// выполняемое остановится на ближайшей границе страницы или куска.
// Повторный вызов и вызов после завершения ничего не делают.
func (h *Handle) Cancel() { h.cancel() }

// Done закрывается, когда задание завершилось любым исходом.
func (h *Handle) Done() <-chan struct{} { return h.done }

// Wait ждёт завершения задания. Ошибка только если ctx истёк раньше;
// сбой самого задания описан в Outcome.
func (h *Handle) Wait(ctx context.Context) (Outcome, error) {
	select {
	case <-h.done:
		return h.outcome, nil
	case <-ctx.Done():
		return Outcome{JobID: h.id}, ctx.Err()
	}
}

func (h *Handle) finish(out Outcome) {
	h.outcome = out
	h.cancel()
	close(h.done)
}
