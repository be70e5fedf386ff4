package printer

import (
	"bytes"
	"io"
	"testing"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

func TestDrainerDiscardsUntilEOF(t *testing.T) {
	core, logs := observer.New(zap.DebugLevel)
	d := StartDrainer(bytes.NewReader([]byte{0x12, 0x11, 0x13}), zap.New(core))

	select {
	case <-d.Done():
	case <-time.After(5 * time.Second):
		t.Fatal("drainer did not stop at EOF")
	}
	if d.Discarded() != 3 {
		t.Errorf("Discarded() = %d, want 3", d.Discarded())
	}
	if logs.FilterMessage("Discarded printer input").Len() == 0 {
		t.Errorf("discarded input was not logged")
	}
}

func TestDrainerStopsOnClosedPipe(t *testing.T) {
	r, w := io.Pipe()
	d := StartDrainer(r, nil)

	if _, err := w.Write([]byte("status")); err != nil {
		t.Fatal(err)
	}
	d.Stop()
	_ = w.Close()

	select {
	case <-d.Done():
	case <-time.After(5 * time.Second):
		t.Fatal("drainer did not stop after the reader was closed")
	}
	if d.Discarded() != 6 {
		t.Errorf("Discarded() = %d, want 6", d.Discarded())
	}
}
