package usb

import (
	"bytes"
	"context"
	"errors"
	"testing"
	"time"

	"go.uber.org/multierr"
	"go.uber.org/zap/zaptest"

	"github.com/AlexStarov/escpos-raster/printer"
)

// silentEndpoint ведёт себя как bulk IN принтера, которому нечего сказать:
// передача висит, пока её не отменят.
type silentEndpoint struct{}

func (silentEndpoint) ReadContext(ctx context.Context, _ []byte) (int, error) {
	<-ctx.Done()
	return 0, errors.New("transfer cancelled")
}

func TestReadTimesOutWithoutError(t *testing.T) {
	c := newConn()
	c.in = silentEndpoint{}
	defer c.Close()

	start := time.Now()
	n, err := c.Read(make([]byte, 64))
	if n != 0 || err != nil {
		t.Fatalf("Read() = %d, %v; want 0, nil on timeout", n, err)
	}
	if d := time.Since(start); d > 5*time.Second {
		t.Errorf("Read() took %v", d)
	}
}

func TestReadAfterCloseFails(t *testing.T) {
	c := newConn()
	c.in = silentEndpoint{}
	if err := c.Close(); err != nil {
		t.Fatal(err)
	}
	if _, err := c.Read(make([]byte, 64)); err == nil {
		t.Errorf("Read() after Close returned nil error")
	}
}

func TestReadWithoutInEndpoint(t *testing.T) {
	c := newConn()
	defer c.Close()
	if _, err := c.Read(make([]byte, 8)); !errors.Is(err, errNoInEndpoint) {
		t.Errorf("Read() = %v, want errNoInEndpoint", err)
	}
}

func TestDrainerStopsOnSilentPrinter(t *testing.T) {
	var out bytes.Buffer
	c := newConn()
	c.in = silentEndpoint{}
	c.out = &out

	d := printer.StartDrainer(c, zaptest.NewLogger(t))
	if _, err := c.Write([]byte{0x1b, 0x40}); err != nil {
		t.Fatal(err)
	}
	d.Stop()

	select {
	case <-d.Done():
	case <-time.After(5 * time.Second):
		t.Fatal("drainer still blocked in USB read after Stop")
	}
	if err := c.Close(); err != nil {
		t.Errorf("Close() = %v", err)
	}
	if !bytes.Equal(out.Bytes(), []byte{0x1b, 0x40}) {
		t.Errorf("wrote % x", out.Bytes())
	}
}

func TestCloseAllReportsEveryError(t *testing.T) {
	errConfig := errors.New("open config")
	errContext := errors.New("context busy")
	var called []string

	err := closeAll(
		func() error { called = append(called, "interface"); return nil },
		func() error { called = append(called, "config"); return errConfig },
		func() error { called = append(called, "device"); return nil },
		func() error { called = append(called, "context"); return errContext },
	)

	if len(called) != 4 {
		t.Errorf("called %v, want all four", called)
	}
	if !errors.Is(err, errConfig) || !errors.Is(err, errContext) {
		t.Errorf("closeAll() = %v, want both errors", err)
	}
	if n := len(multierr.Errors(err)); n != 2 {
		t.Errorf("closeAll() combined %d errors, want 2", n)
	}
	if err := closeAll(); err != nil {
		t.Errorf("closeAll() with nothing to close = %v", err)
	}
}
