package profile

import (
	"errors"
	"fmt"
	"time"
)

// Ширина печатающей головки в точках при 203 dpi.
const (
	Width58mm = 384
	Width80mm = 576
)

// Profile всё, что задание печати знает о принтере и канале связи.
type Profile struct {
	Name string

	// Ширина печати в точках, страницы масштабируются под неё.
	WidthDots int

	// Строк растра в одной команде GS v 0. 0 означает всю страницу одной командой.
	MaxRowsPerChunk int
	// Дополнительная нарезка по байтам для BLE (размер одной записи в характеристику).
	// 0 означает без нарезки.
	MaxChunkBytes int
	// Пауза между кусками, чтобы не переполнить буфер принтера.
	ChunkDelay time.Duration

	// Пауза между страницами.
	PageDelay time.Duration
	// Пауза после отреза перед закрытием соединения: принтер допечатывает буфер.
	SettleDelay time.Duration

	// Больше страниц за одно задание не печатается.
	MaxPages int
	// n в ESC d n перед отрезом.
	FeedLines int

	// Посылать 00 00 00 перед ESC @: будит заснувшие SPP принтеры.
	WakeUp bool
	// Вычитывать и отбрасывать ответы принтера, пока идёт задание.
	DrainInput bool
	// Подача и отрез даже если ни одна страница не напечаталась.
	AlwaysTrailer bool
}

// Default 58 мм принтер по Bluetooth SPP.
func Default() Profile {
	return Profile{
		Name:            "default",
		WidthDots:       Width58mm,
		MaxRowsPerChunk: 30,
		ChunkDelay:      60 * time.Millisecond,
		PageDelay:       200 * time.Millisecond,
		SettleDelay:     1500 * time.Millisecond,
		MaxPages:        20,
		FeedLines:       4,
	}
}

// BLE профиль для принтеров, доступных только через BLE характеристику:
// мелкие записи с короткими паузами.
func BLE() Profile {
	p := Default()
	p.Name = "ble"
	p.MaxChunkBytes = 180
	p.ChunkDelay = 20 * time.Millisecond
	return p
}

var ErrInvalidProfile = errors.New("invalid printer profile")

func (p Profile) Validate() error {
	switch {
	case p.WidthDots <= 0:
		return fmt.Errorf("%w: width %d dots", ErrInvalidProfile, p.WidthDots)
	case p.WidthDots > 65535*8:
		return fmt.Errorf("%w: width %d dots does not fit GS v 0", ErrInvalidProfile, p.WidthDots)
	case p.MaxRowsPerChunk < 0:
		return fmt.Errorf("%w: max rows per chunk %d", ErrInvalidProfile, p.MaxRowsPerChunk)
	case p.MaxChunkBytes < 0:
		return fmt.Errorf("%w: max chunk bytes %d", ErrInvalidProfile, p.MaxChunkBytes)
	case p.ChunkDelay < 0 || p.PageDelay < 0 || p.SettleDelay < 0:
		return fmt.Errorf("%w: negative delay", ErrInvalidProfile)
	case p.MaxPages <= 0:
		return fmt.Errorf("%w: max pages %d", ErrInvalidProfile, p.MaxPages)
	case p.FeedLines < 0 || p.FeedLines > 255:
		return fmt.Errorf("%w: feed lines %d", ErrInvalidProfile, p.FeedLines)
	}
	return nil
}
