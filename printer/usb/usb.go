// Package usb приёмник для USB принтеров через libusb (gousb, нужен cgo).
package usb

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/google/gousb"
	"go.uber.org/multierr"
	"go.uber.org/zap"
)

// readTimeout одна попытка чтения bulk IN. Пустой ответ по таймауту это
// (0, nil), как у последовательного порта с таймаутом, поэтому Drainer
// видит Stop не позже чем через readTimeout.
const readTimeout = 100 * time.Millisecond

var errNoInEndpoint = errors.New("USB read not supported")

// bulkIn часть gousb.InEndpoint, которая нужна conn.
type bulkIn interface {
	ReadContext(ctx context.Context, buf []byte) (int, error)
}

type conn struct {
	ctx  *gousb.Context
	dev  *gousb.Device
	cfg  *gousb.Config
	intf *gousb.Interface
	out  io.Writer
	in   bulkIn

	// base отменяется в Close и прерывает чтение, если оно ещё идёт.
	base   context.Context
	cancel context.CancelFunc
}

func newConn() *conn {
	c := &conn{}
	c.base, c.cancel = context.WithCancel(context.Background())
	return c
}

// Open открывает USB принтер по VID/PID и находит bulk OUT
// (и, если есть, bulk IN) endpoint первого интерфейса.
func Open(vendorID, productID gousb.ID, logger *zap.Logger) (io.ReadWriteCloser, error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	c := newConn()
	c.ctx = gousb.NewContext()
	dev, err := c.ctx.OpenDeviceWithVIDPID(vendorID, productID)
	if err != nil {
		_ = c.Close()
		return nil, fmt.Errorf("open usb device %s:%s: %w", vendorID, productID, err)
	}
	if dev == nil {
		_ = c.Close()
		return nil, fmt.Errorf("usb device %s:%s not found", vendorID, productID)
	}
	c.dev = dev

	if err := dev.SetAutoDetach(true); err != nil {
		logger.Warn("USB auto detach not supported", zap.Error(err))
	}

	if c.cfg, err = dev.Config(1); err != nil {
		_ = c.Close()
		return nil, fmt.Errorf("usb config: %w", err)
	}
	if c.intf, err = c.cfg.Interface(0, 0); err != nil {
		_ = c.Close()
		return nil, fmt.Errorf("usb interface: %w", err)
	}

	for _, ep := range c.intf.Setting.Endpoints {
		if ep.TransferType != gousb.TransferTypeBulk {
			continue
		}
		switch {
		case ep.Direction == gousb.EndpointDirectionOut && c.out == nil:
			out, err := c.intf.OutEndpoint(ep.Number)
			if err != nil {
				_ = c.Close()
				return nil, fmt.Errorf("usb endpoint %d: %w", ep.Number, err)
			}
			c.out = out
		case ep.Direction == gousb.EndpointDirectionIn && c.in == nil:
			in, err := c.intf.InEndpoint(ep.Number)
			if err != nil {
				_ = c.Close()
				return nil, fmt.Errorf("usb endpoint %d: %w", ep.Number, err)
			}
			c.in = in
		}
	}
	if c.out == nil {
		_ = c.Close()
		return nil, fmt.Errorf("usb device %s:%s has no bulk OUT endpoint", vendorID, productID)
	}

	logger.Info("USB printer opened",
		zap.Stringer("vid", vendorID),
		zap.Stringer("pid", productID),
		zap.Bool("readable", c.in != nil))
	return c, nil
}

func (c *conn) Read(p []byte) (int, error) {
	if c.in == nil {
		return 0, errNoInEndpoint
	}
	ctx, cancel := context.WithTimeout(c.base, readTimeout)
	defer cancel()

	n, err := c.in.ReadContext(ctx, p)
	if err != nil && errors.Is(ctx.Err(), context.DeadlineExceeded) && c.base.Err() == nil {
		// принтеру нечего сказать
		return n, nil
	}
	return n, err
}

func (c *conn) Write(p []byte) (int, error) {
	return c.out.Write(p)
}

// Close освобождает интерфейс, конфигурацию, устройство и контекст libusb
// в обратном порядке и возвращает все ошибки закрытия.
func (c *conn) Close() error {
	c.cancel()

	var closers []func() error
	if c.intf != nil {
		closers = append(closers, func() error { c.intf.Close(); return nil })
	}
	if c.cfg != nil {
		closers = append(closers, c.cfg.Close)
	}
	if c.dev != nil {
		closers = append(closers, c.dev.Close)
	}
	if c.ctx != nil {
		closers = append(closers, c.ctx.Close)
	}
	return closeAll(closers...)
}

// closeAll вызывает все функции по порядку, даже если какая-то упала.
func closeAll(closers ...func() error) error {
	var err error
	for _, f := range closers {
		err = multierr.Append(err, f())
	}
	return err
}
