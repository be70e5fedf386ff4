package log

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"
)

// DayFile файл лога с "круговой" ротацией по дню месяца:
// дни 1-9 пишутся в <name>-0.log, 10-19 в <name>-1.log, 20-31 в <name>-2.log.
// При переходе на новый суффикс следующий по кругу файл удаляется,
// так что на диске остаётся не больше двух прошлых декад.
// Реализует zapcore.WriteSyncer.
type DayFile struct {
	dir  string
	name string
	now  func() time.Time

	mu     sync.Mutex
	f      *os.File
	suffix int
}

func NewDayFile(dir, name string) *DayFile {
	return &DayFile{dir: dir, name: name, now: time.Now, suffix: -1}
}

func daySuffix(t time.Time) int {
	switch day := t.Day(); {
	case day <= 9:
		return 0
	case day <= 19:
		return 1
	default:
		return 2
	}
}

func (d *DayFile) path(suffix int) string {
	return filepath.Join(d.dir, fmt.Sprintf("%s-%d.log", d.name, suffix))
}

func (d *DayFile) Write(p []byte) (int, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if suffix := daySuffix(d.now()); d.f == nil || suffix != d.suffix {
		if err := d.open(suffix); err != nil {
			return 0, err
		}
	}
	return d.f.Write(p)
}

func (d *DayFile) open(suffix int) error {
	if d.f != nil {
		_ = d.f.Close()
		d.f = nil
	}

	// удаляем следующий по кругу файл: в нём логи прошлого месяца
	next := d.path((suffix + 1) % 3)
	if err := os.Remove(next); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("rotate %s: %w", next, err)
	}

	f, err := os.OpenFile(d.path(suffix), os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o666)
	if err != nil {
		return fmt.Errorf("open log file: %w", err)
	}
	d.f, d.suffix = f, suffix
	return nil
}

func (d *DayFile) Sync() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.f == nil {
		return nil
	}
	return d.f.Sync()
}

func (d *DayFile) Close() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.f == nil {
		return nil
	}
	err := d.f.Close()
	d.f = nil
	return err
}
