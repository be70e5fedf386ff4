package printer

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"go.uber.org/zap"

	imgInternal "github.com/AlexStarov/escpos-raster/image"
	"github.com/AlexStarov/escpos-raster/profile"
)

var (
	cmdInit = []byte{0x1b, 0x40}             // ESC @
	cmdCut  = []byte{0x1d, 0x56, 0x42, 0x00} // GS V 66 0: подача до ножа и частичный отрез
	cmdWake = []byte{0x00, 0x00, 0x00}
)

// Паузы вокруг байт пробуждения.
const (
	wakeBefore = 500 * time.Millisecond
	wakeAfter  = 100 * time.Millisecond
)

// InitCommand ESC @: сброс принтера в состояние по умолчанию.
func InitCommand() []byte { return append([]byte(nil), cmdInit...) }

// FeedCommand ESC d n: промотать n строк.
func FeedCommand(n int) []byte { return []byte{0x1b, 0x64, byte(n)} }

// CutCommand GS V 66 0.
func CutCommand() []byte { return append([]byte(nil), cmdCut...) }

// Printer одно задание печати на одном приёмнике: Begin, страницы, End.
// Не предназначен для одновременного использования из нескольких горутин.
type Printer struct {
	sink    io.Writer
	profile profile.Profile
	conv    *imgInternal.Converter
	w       *Writer
	log     *zap.Logger

	written int64
	printed int
}

// NewPrinter готовит задание для уже подключённого приёмника.
func NewPrinter(sink io.Writer, prof profile.Profile, logger *zap.Logger) (*Printer, error) {
	if sink == nil {
		return nil, fmt.Errorf("printer: nil sink")
	}
	if err := prof.Validate(); err != nil {
		return nil, err
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Printer{
		sink:    sink,
		profile: prof,
		conv:    imgInternal.NewConverter(prof.WidthDots, logger),
		w:       NewWriter(prof.ChunkDelay, prof.MaxChunkBytes, logger),
		log:     logger,
	}, nil
}

// Written сколько байт принял приёмник с начала задания.
func (p *Printer) Written() int64 { return p.written }

// PagesPrinted сколько страниц дошло до принтера.
func (p *Printer) PagesPrinted() int { return p.printed }

// Pause пауза с учётом отмены.
func (p *Printer) Pause(ctx context.Context, d time.Duration) error {
	return p.w.pause(ctx, d)
}

// Begin начало задания: при необходимости будит принтер, затем ESC @.
// С WakeUp после ESC @ ещё одна короткая пауза перед первой полосой.
func (p *Printer) Begin(ctx context.Context) error {
	if p.profile.WakeUp {
		if err := p.Pause(ctx, wakeBefore); err != nil {
			return err
		}
		if err := p.send(ctx, cmdWake); err != nil {
			return err
		}
		if err := p.Pause(ctx, wakeAfter); err != nil {
			return err
		}
	}
	if err := p.send(ctx, cmdInit); err != nil {
		return err
	}
	if p.profile.WakeUp {
		// проснувшемуся принтеру нужно время на сброс после ESC @
		return p.Pause(ctx, wakeAfter)
	}
	return nil
}

// End подача и отрез, если хоть одна страница напечаталась
// (или профиль требует их всегда), затем пауза, пока принтер допечатывает.
func (p *Printer) End(ctx context.Context) error {
	if p.printed == 0 && !p.profile.AlwaysTrailer {
		p.log.Info("Nothing printed, skipping feed and cut")
		return nil
	}

	trailer := append(FeedCommand(p.profile.FeedLines), cmdCut...)
	if err := p.send(ctx, trailer); err != nil {
		return err
	}

	// данные уже у принтера, отмена во время этой паузы ничего не отменяет
	_ = p.Pause(ctx, p.profile.SettleDelay)
	return nil
}

// send пишет куски через Writer и ведёт сквозной счётчик байт задания,
// так что Offset в TransportError считается от начала задания.
func (p *Printer) send(ctx context.Context, chunks ...[]byte) error {
	n, err := p.w.Write(ctx, p.sink, chunks)
	p.written += n
	var te *TransportError
	if errors.As(err, &te) {
		te.Offset = p.written
	}
	return err
}
