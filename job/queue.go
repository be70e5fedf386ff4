package job

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sync"

	gonanoid "github.com/matoous/go-nanoid/v2"
	"go.uber.org/zap"

	imgInternal "github.com/AlexStarov/escpos-raster/image"
	"github.com/AlexStarov/escpos-raster/profile"
)

// Queue очередь печати с одним исполнителем: задания идут строго
// по порядку поступления, и в каждый момент приёмником владеет
// не больше одного задания.
type Queue struct {
	logger *zap.Logger

	mu           sync.Mutex
	pending      []*Handle
	current      *Handle
	active       int
	closed       bool
	observers    map[int]Observer
	nextObserver int

	wake chan struct{}
	done chan struct{}
}

// NewQueue запускает горутину исполнителя. Остановить её можно Close.
func NewQueue(logger *zap.Logger) *Queue {
	if logger == nil {
		logger = zap.NewNop()
	}
	q := &Queue{
		logger:    logger,
		observers: map[int]Observer{},
		wake:      make(chan struct{}, 1),
		done:      make(chan struct{}),
	}
	go q.worker()
	return q
}

// Submit ставит документ в очередь на печать в sink с профилем prof.
// Задание владеет sink: по завершении он закрывается, если это io.Closer.
func (q *Queue) Submit(doc imgInternal.Document, prof profile.Profile, sink io.Writer) (*Handle, error) {
	if doc == nil {
		return nil, errors.New("submit: nil document")
	}
	if sink == nil {
		return nil, errors.New("submit: nil sink")
	}
	if err := prof.Validate(); err != nil {
		return nil, fmt.Errorf("submit: %w", err)
	}

	id, err := gonanoid.New()
	if err != nil {
		return nil, fmt.Errorf("submit: job id: %w", err)
	}
	ctx, cancel := context.WithCancel(context.Background())
	h := &Handle{
		id:      id,
		doc:     doc,
		profile: prof,
		sink:    sink,
		ctx:     ctx,
		cancel:  cancel,
		done:    make(chan struct{}),
	}

	q.mu.Lock()
	if q.closed {
		q.mu.Unlock()
		cancel()
		return nil, ErrQueueClosed
	}
	q.active++
	active := q.active
	q.mu.Unlock()

	q.logger.Info("Print job queued",
		zap.String("job", id),
		zap.Int("pages", doc.PageCount()),
		zap.Int("active", active))
	q.emit(Event{Type: JobQueued, JobID: id, Active: active})

	q.mu.Lock()
	if q.closed {
		q.mu.Unlock()
		q.complete(h, q.canceledBeforeStart(h))
		return h, nil
	}
	q.pending = append(q.pending, h)
	q.mu.Unlock()
	q.signal()
	return h, nil
}

// Pending сколько заданий ждут или выполняются.
func (q *Queue) Pending() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.active
}

// Close перестаёт принимать задания и отменяет ожидающие.
// Выполняемое задание дорабатывает до конца; если ctx истекает раньше,
// оно тоже отменяется и Close возвращает ошибку ctx.
func (q *Queue) Close(ctx context.Context) error {
	q.mu.Lock()
	if !q.closed {
		q.closed = true
		for _, h := range q.pending {
			h.Cancel()
		}
	}
	q.mu.Unlock()
	q.signal()

	select {
	case <-q.done:
		return nil
	case <-ctx.Done():
		q.mu.Lock()
		if q.current != nil {
			q.current.Cancel()
		}
		q.mu.Unlock()
		return ctx.Err()
	}
}

func (q *Queue) signal() {
	select {
	case q.wake <- struct{}{}:
	default:
	}
}

func (q *Queue) worker() {
	defer close(q.done)
	for {
		h, ok := q.next()
		if !ok {
			return
		}

		// отменённое в очереди задание не начинается вовсе
		if h.ctx.Err() != nil {
			q.complete(h, q.canceledBeforeStart(h))
			continue
		}

		q.emit(Event{Type: JobStarted, JobID: h.id, Active: q.Pending()})
		q.complete(h, q.run(h))
	}
}

// next следующее задание; false когда очередь закрыта и пуста.
func (q *Queue) next() (*Handle, bool) {
	for {
		q.mu.Lock()
		if len(q.pending) > 0 {
			h := q.pending[0]
			q.pending[0] = nil
			q.pending = q.pending[1:]
			q.current = h
			q.mu.Unlock()
			return h, true
		}
		closed := q.closed
		q.mu.Unlock()
		if closed {
			return nil, false
		}
		<-q.wake
	}
}

func (q *Queue) complete(h *Handle, out Outcome) {
	q.mu.Lock()
	if q.current == h {
		q.current = nil
	}
	q.active--
	active := q.active
	q.mu.Unlock()

	fields := []zap.Field{
		zap.String("job", h.id),
		zap.Stringer("status", out.Status),
		zap.Int("printed", out.PagesPrinted),
		zap.Int("skipped", out.PagesSkipped),
		zap.Int64("bytes", out.BytesWritten),
		zap.Int("active", active),
	}
	if out.Status == StatusFailed {
		q.logger.Error("Print job failed", append(fields, zap.Error(out.Err))...)
	} else {
		q.logger.Info("Print job finished", fields...)
	}
	q.emit(Event{Type: JobFinished, JobID: h.id, Active: active, Outcome: &out})
	h.finish(out)
}
