package profile

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// EnvPrefix префикс переменных окружения профиля.
const EnvPrefix = "ESCPOS_"

// LoadEnv читает профиль из .env файлов и окружения процесса.
// Переменные окружения важнее файлов, отсутствующий файл не ошибка.
// Если ширина не задана явно, она определяется по ESCPOS_MEDIA и
// ESCPOS_PRINTER_NAME через NameIdentifier.
func LoadEnv(files ...string) (Profile, error) {
	vars := map[string]string{}
	for _, f := range files {
		m, err := godotenv.Read(f)
		if errors.Is(err, fs.ErrNotExist) {
			continue
		}
		if err != nil {
			return Profile{}, fmt.Errorf("read %s: %w", f, err)
		}
		for k, v := range m {
			vars[k] = v
		}
	}
	for _, kv := range os.Environ() {
		if k, v, ok := strings.Cut(kv, "="); ok && strings.HasPrefix(k, EnvPrefix) {
			vars[k] = v
		}
	}
	return Parse(vars)
}

// Parse собирает профиль из карты переменных поверх Default().
func Parse(vars map[string]string) (Profile, error) {
	p := Default()
	e := envReader{vars: vars}

	if name, ok := vars[EnvPrefix+"PRINTER_NAME"]; ok {
		p.Name = name
	}
	p.WidthDots = e.getInt("WIDTH_DOTS", 0)
	p.MaxRowsPerChunk = e.getInt("MAX_ROWS_PER_CHUNK", p.MaxRowsPerChunk)
	p.MaxChunkBytes = e.getInt("MAX_CHUNK_BYTES", p.MaxChunkBytes)
	p.ChunkDelay = e.getDuration("CHUNK_DELAY", p.ChunkDelay)
	p.PageDelay = e.getDuration("PAGE_DELAY", p.PageDelay)
	p.SettleDelay = e.getDuration("SETTLE_DELAY", p.SettleDelay)
	p.MaxPages = e.getInt("MAX_PAGES", p.MaxPages)
	p.FeedLines = e.getInt("FEED_LINES", p.FeedLines)
	p.WakeUp = e.getBool("WAKE_UP", p.WakeUp)
	p.DrainInput = e.getBool("DRAIN_INPUT", p.DrainInput)
	p.AlwaysTrailer = e.getBool("ALWAYS_TRAILER", p.AlwaysTrailer)

	if e.err != nil {
		return Profile{}, e.err
	}

	if p.WidthDots == 0 {
		id := NameIdentifier{Host: vars[EnvPrefix+"HOST"]}
		p.WidthDots = Resolve(id, 0, Media(vars[EnvPrefix+"MEDIA"]), p.Name)
	}
	return p, p.Validate()
}

// envReader запоминает первую ошибку разбора.
type envReader struct {
	vars map[string]string
	err  error
}

func (e *envReader) lookup(key string) (string, bool) {
	v, ok := e.vars[EnvPrefix+key]
	v = strings.TrimSpace(v)
	return v, ok && v != ""
}

func (e *envReader) fail(key, v string, err error) {
	if e.err == nil {
		e.err = fmt.Errorf("%w: %s%s=%q: %v", ErrInvalidProfile, EnvPrefix, key, v, err)
	}
}

func (e *envReader) getInt(key string, def int) int {
	v, ok := e.lookup(key)
	if !ok {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		e.fail(key, v, err)
		return def
	}
	return n
}

// getDuration принимает "60ms" или просто число миллисекунд.
func (e *envReader) getDuration(key string, def time.Duration) time.Duration {
	v, ok := e.lookup(key)
	if !ok {
		return def
	}
	if ms, err := strconv.Atoi(v); err == nil {
		return time.Duration(ms) * time.Millisecond
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		e.fail(key, v, err)
		return def
	}
	return d
}

func (e *envReader) getBool(key string, def bool) bool {
	v, ok := e.lookup(key)
	if !ok {
		return def
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		e.fail(key, v, err)
		return def
	}
	return b
}
