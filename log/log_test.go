package log

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

func TestDaySuffix(t *testing.T) {
	for day, want := range map[int]int{1: 0, 9: 0, 10: 1, 19: 1, 20: 2, 31: 2} {
		ts := time.Date(2024, time.January, day, 12, 0, 0, 0, time.UTC)
		if got := daySuffix(ts); got != want {
			t.Errorf("daySuffix(day %d) = %d, want %d", day, got, want)
		}
	}
}

func TestDayFileRotation(t *testing.T) {
	dir := t.TempDir()
	now := time.Date(2024, time.March, 5, 10, 0, 0, 0, time.UTC)

	// остатки прошлого месяца
	for _, n := range []string{"printer-1.log", "printer-2.log"} {
		if err := os.WriteFile(filepath.Join(dir, n), []byte("old\n"), 0o644); err != nil {
			t.Fatal(err)
		}
	}

	f := NewDayFile(dir, "printer")
	f.now = func() time.Time { return now }
	defer f.Close()

	if _, err := f.Write([]byte("first\n")); err != nil {
		t.Fatalf("Write: %v", err)
	}
	if _, err := os.Stat(filepath.Join(dir, "printer-1.log")); !os.IsNotExist(err) {
		t.Errorf("printer-1.log must be removed when writing to printer-0.log")
	}

	now = time.Date(2024, time.March, 12, 10, 0, 0, 0, time.UTC)
	if _, err := f.Write([]byte("second\n")); err != nil {
		t.Fatalf("Write: %v", err)
	}
	if _, err := os.Stat(filepath.Join(dir, "printer-2.log")); !os.IsNotExist(err) {
		t.Errorf("printer-2.log must be removed when writing to printer-1.log")
	}

	got, err := os.ReadFile(filepath.Join(dir, "printer-1.log"))
	if err != nil {
		t.Fatal(err)
	}
	if string(got) != "second\n" {
		t.Errorf("printer-1.log = %q, want %q", got, "second\n")
	}
	if err := f.Sync(); err != nil {
		t.Errorf("Sync: %v", err)
	}
}

func TestNewWritesErrorsFile(t *testing.T) {
	dir := t.TempDir()
	logger, closeFn, err := New(Options{Level: DEBUG, Format: "json", Dir: dir, Name: "escpos"})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	logger.Info("job started", zap.String("job", "abc"))
	logger.Error("write failed", zap.Error(errors.New("broken pipe")))
	_ = logger.Sync()
	if err := closeFn(); err != nil {
		t.Fatalf("close: %v", err)
	}

	suffix := daySuffix(time.Now())
	std, err := os.ReadFile(filepath.Join(dir, fmt.Sprintf("escpos-%d.log", suffix)))
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(string(std), "job started") || !strings.Contains(string(std), "write failed") {
		t.Errorf("main log = %s", std)
	}

	errs, err := os.ReadFile(filepath.Join(dir, fmt.Sprintf("errors-%d.log", suffix)))
	if err != nil {
		t.Fatal(err)
	}
	if strings.Contains(string(errs), "job started") || !strings.Contains(string(errs), "broken pipe") {
		t.Errorf("errors log = %s", errs)
	}
}

func TestNewRejectsBadOptions(t *testing.T) {
	if _, _, err := New(Options{Level: "LOUD"}); err == nil {
		t.Errorf("unknown level accepted")
	}
	if _, _, err := New(Options{Format: "xml"}); err == nil {
		t.Errorf("unknown format accepted")
	}
}

func TestPrintIfErr(t *testing.T) {
	core, logs := observer.New(zap.DebugLevel)
	logger := zap.New(core)

	PrintIfErr(logger, "close sink", nil)
	PrintIfErr(logger, "close sink", errors.New("already closed"))

	if logs.Len() != 1 {
		t.Fatalf("got %d entries, want 1", logs.Len())
	}
	if e := logs.All()[0]; e.Message != "close sink" || e.ContextMap()["error"] != "already closed" {
		t.Errorf("entry = %+v", e)
	}
}
