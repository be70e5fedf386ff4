package printer

import (
	"errors"
	"io"
	"sync/atomic"

	"go.uber.org/zap"
)

// Drainer вычитывает и отбрасывает всё, что присылает принтер
// (статусы, XON/XOFF). Если входной буфер канала не читать, часть
// Bluetooth модулей перестаёт принимать данные.
type Drainer struct {
	stopped atomic.Bool
	total   atomic.Int64
	done    chan struct{}
}

// StartDrainer запускает чтение r в отдельной горутине. Горутина
// завершается после Stop на следующем возврате из Read, либо по ошибке
// чтения (например, когда приёмник закрыт).
func StartDrainer(r io.Reader, logger *zap.Logger) *Drainer {
	if logger == nil {
		logger = zap.NewNop()
	}
	d := &Drainer{done: make(chan struct{})}
	go d.run(r, logger)
	return d
}

func (d *Drainer) run(r io.Reader, logger *zap.Logger) {
	defer close(d.done)
	buf := make([]byte, 1024)
	for !d.stopped.Load() {
		n, err := r.Read(buf)
		if n > 0 {
			d.total.Add(int64(n))
			logger.Debug("Discarded printer input", zap.Binary("data", buf[:n]))
		}
		if err != nil {
			if !errors.Is(err, io.EOF) && !d.stopped.Load() {
				logger.Debug("Input drain stopped", zap.Error(err))
			}
			return
		}
	}
}

// Stop просит горутину завершиться; не ждёт её.
func (d *Drainer) Stop() { d.stopped.Store(true) }

// Done закрывается, когда горутина завершилась.
func (d *Drainer) Done() <-chan struct{} { return d.done }

// Discarded сколько байт было отброшено.
func (d *Drainer) Discarded() int64 { return d.total.Load() }
