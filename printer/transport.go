package printer

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"go.uber.org/zap"
)

// ErrTransportWriteFailed приёмник отклонил или обрезал запись.
var ErrTransportWriteFailed = errors.New("transport write failed")

// TransportError запись куска не удалась. Offset сколько байт задания
// принтер успел принять, Chunk номер куска, на котором всё остановилось.
// Повтор и переподключение решает вызывающий.
type TransportError struct {
	Offset int64
	Chunk  int
	Err    error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("transport write failed at byte %d (chunk %d): %v", e.Offset, e.Chunk, e.Err)
}

func (e *TransportError) Unwrap() error { return e.Err }

func (e *TransportError) Is(target error) bool { return target == ErrTransportWriteFailed }

// Writer отправляет куски в приёмник по одному с паузой между ними.
// У беспроводных последовательных каналов нет обратного давления:
// без пауз буфер принтера переполняется и данные молча теряются.
type Writer struct {
	// Пауза между кусками.
	Delay time.Duration
	// Если больше 0, каждый кусок дополнительно режется на части
	// не длиннее MaxChunkBytes (запись в BLE характеристику).
	MaxChunkBytes int

	Logger *zap.Logger

	sleep func(ctx context.Context, d time.Duration) error
}

func NewWriter(delay time.Duration, maxChunkBytes int, logger *zap.Logger) *Writer {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Writer{Delay: delay, MaxChunkBytes: maxChunkBytes, Logger: logger, sleep: Sleep}
}

// Write пишет куски по порядку, каждый целиком. Первая же ошибка
// прерывает отправку и возвращается как *TransportError. Отмена ctx
// проверяется перед каждым куском и во время пауз и возвращается как есть.
// Возвращает число принятых приёмником байт.
func (w *Writer) Write(ctx context.Context, sink io.Writer, chunks [][]byte) (int64, error) {
	var written int64
	for i, chunk := range SplitChunks(chunks, w.MaxChunkBytes) {
		if err := ctx.Err(); err != nil {
			return written, err
		}
		if i > 0 && w.Delay > 0 {
			if err := w.pause(ctx, w.Delay); err != nil {
				return written, err
			}
		}

		n, err := sink.Write(chunk)
		if n < 0 || n > len(chunk) {
			n = 0
			if err == nil {
				err = errors.New("invalid write count")
			}
		}
		written += int64(n)
		if err == nil && n < len(chunk) {
			err = io.ErrShortWrite
		}
		if err != nil {
			w.logger().Error("Chunk write failed",
				zap.Int("chunk", i),
				zap.Int("size", len(chunk)),
				zap.Int("accepted", n),
				zap.Int64("offset", written),
				zap.Error(err))
			return written, &TransportError{Offset: written, Chunk: i, Err: err}
		}
	}
	return written, nil
}

func (w *Writer) pause(ctx context.Context, d time.Duration) error {
	if w.sleep == nil {
		return Sleep(ctx, d)
	}
	return w.sleep(ctx, d)
}

func (w *Writer) logger() *zap.Logger {
	if w.Logger == nil {
		return zap.NewNop()
	}
	return w.Logger
}

// SplitChunks режет куски на части не длиннее maxBytes без копирования.
// Поток байт не меняется, меняются только границы записей.
func SplitChunks(chunks [][]byte, maxBytes int) [][]byte {
	if maxBytes <= 0 {
		return chunks
	}
	out := make([][]byte, 0, len(chunks))
	for _, c := range chunks {
		for len(c) > maxBytes {
			out = append(out, c[:maxBytes])
			c = c[maxBytes:]
		}
		if len(c) > 0 {
			out = append(out, c)
		}
	}
	return out
}

// Sleep ждёт d или отмены ctx.
func Sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
