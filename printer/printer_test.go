package printer

import (
	"bytes"
	"context"
	"errors"
	"testing"
	"time"

	"go.uber.org/zap/zaptest"

	imgInternal "github.com/AlexStarov/escpos-raster/image"
	"github.com/AlexStarov/escpos-raster/profile"
)

func testProfile() profile.Profile {
	p := profile.Default()
	p.ChunkDelay = 0
	p.PageDelay = 0
	p.SettleDelay = 0
	return p
}

func blankPage(t *testing.T) *imgInternal.RasterImage {
	t.Helper()
	img, err := imgInternal.NewRasterImage(400, 300, imgInternal.RGB)
	if err != nil {
		t.Fatal(err)
	}
	return img
}

// receiptPage белая страница с чёрной полосой посередине.
func receiptPage(t *testing.T) *imgInternal.RasterImage {
	t.Helper()
	img := blankPage(t)
	for y := 100; y < 120; y++ {
		for x := 50; x < 350; x++ {
			img.SetRGB(x, y, 0, 0, 0)
		}
	}
	return img
}

func newTestPrinter(t *testing.T, sink *recordingSink, prof profile.Profile) *Printer {
	t.Helper()
	p, err := NewPrinter(sink, prof, zaptest.NewLogger(t))
	if err != nil {
		t.Fatalf("NewPrinter: %v", err)
	}
	p.w.sleep = noSleep
	return p
}

func TestPrinterBlankJobEmitsOnlyInit(t *testing.T) {
	sink := &recordingSink{}
	p := newTestPrinter(t, sink, testProfile())
	ctx := context.Background()

	if err := p.Begin(ctx); err != nil {
		t.Fatal(err)
	}
	if err := p.PrintPage(ctx, blankPage(t)); !errors.Is(err, imgInternal.ErrEmptyPage) {
		t.Fatalf("PrintPage(blank) = %v, want ErrEmptyPage", err)
	}
	if err := p.End(ctx); err != nil {
		t.Fatal(err)
	}

	if got := sink.bytes(); !bytes.Equal(got, []byte{0x1b, 0x40}) {
		t.Errorf("blank job wrote % x, want 1b 40", got)
	}
	if p.PagesPrinted() != 0 || p.Written() != 2 {
		t.Errorf("PagesPrinted=%d Written=%d", p.PagesPrinted(), p.Written())
	}
}

func TestPrinterJobLayout(t *testing.T) {
	sink := &recordingSink{}
	prof := testProfile()
	p := newTestPrinter(t, sink, prof)
	ctx := context.Background()

	if err := p.Begin(ctx); err != nil {
		t.Fatal(err)
	}
	if err := p.PrintPage(ctx, receiptPage(t)); err != nil {
		t.Fatalf("PrintPage: %v", err)
	}
	if err := p.End(ctx); err != nil {
		t.Fatal(err)
	}

	out := sink.bytes()
	if !bytes.HasPrefix(out, []byte{0x1b, 0x40, 0x1d, 0x76, 0x30, 0x00}) {
		t.Fatalf("job does not start with ESC @ followed by GS v 0: % x", out[:8])
	}
	trailer := []byte{0x1b, 0x64, 0x04, 0x1d, 0x56, 0x42, 0x00}
	if !bytes.HasSuffix(out, trailer) {
		t.Errorf("job does not end with feed and cut: % x", out[len(out)-len(trailer):])
	}
	if p.Written() != int64(len(out)) {
		t.Errorf("Written() = %d, sink got %d bytes", p.Written(), len(out))
	}

	// проходим по полосам: ширина 48 байт, не больше 30 строк в каждой
	body := out[2 : len(out)-len(trailer)]
	bands := 0
	for len(body) > 0 {
		if len(body) < imgInternal.RasterHeaderLen || body[0] != 0x1d || body[1] != 0x76 {
			t.Fatalf("unexpected bytes in raster body: % x", body[:4])
		}
		wb := int(body[4]) | int(body[5])<<8
		rows := int(body[6]) | int(body[7])<<8
		if wb != prof.WidthDots/8 || rows == 0 || rows > prof.MaxRowsPerChunk {
			t.Errorf("band %d: %d bytes x %d rows", bands, wb, rows)
		}
		body = body[imgInternal.RasterHeaderLen+wb*rows:]
		bands++
	}
	if bands < 2 {
		t.Errorf("got %d bands, expected the page to be split", bands)
	}
}

func TestPrinterAlwaysTrailer(t *testing.T) {
	sink := &recordingSink{}
	prof := testProfile()
	prof.AlwaysTrailer = true
	prof.FeedLines = 6
	p := newTestPrinter(t, sink, prof)

	if err := p.End(context.Background()); err != nil {
		t.Fatal(err)
	}
	if want := []byte{0x1b, 0x64, 0x06, 0x1d, 0x56, 0x42, 0x00}; !bytes.Equal(sink.bytes(), want) {
		t.Errorf("trailer = % x, want % x", sink.bytes(), want)
	}
}

func TestPrinterWakeUp(t *testing.T) {
	sink := &recordingSink{}
	prof := testProfile()
	prof.WakeUp = true
	p := newTestPrinter(t, sink, prof)

	var slept []time.Duration
	p.w.sleep = func(ctx context.Context, d time.Duration) error {
		slept = append(slept, d)
		return nil
	}

	if err := p.Begin(context.Background()); err != nil {
		t.Fatal(err)
	}
	if want := []byte{0x00, 0x00, 0x00, 0x1b, 0x40}; !bytes.Equal(sink.bytes(), want) {
		t.Errorf("Begin wrote % x, want % x", sink.bytes(), want)
	}
	want := []time.Duration{wakeBefore, wakeAfter, wakeAfter}
	if len(slept) != len(want) {
		t.Fatalf("pauses = %v, want %v", slept, want)
	}
	for i := range want {
		if slept[i] != want[i] {
			t.Errorf("pause %d = %v, want %v", i, slept[i], want[i])
		}
	}
}

func TestPrinterBeginWithoutWakeUpDoesNotPause(t *testing.T) {
	sink := &recordingSink{}
	p := newTestPrinter(t, sink, testProfile())

	var slept []time.Duration
	p.w.sleep = func(ctx context.Context, d time.Duration) error {
		slept = append(slept, d)
		return nil
	}

	if err := p.Begin(context.Background()); err != nil {
		t.Fatal(err)
	}
	if len(slept) != 0 {
		t.Errorf("pauses = %v, want none", slept)
	}
}

func TestPrinterTransportErrorOffsetIsJobWide(t *testing.T) {
	// первая запись это ESC @, вторая первая полоса страницы
	sink := &recordingSink{failAt: 2, err: errors.New("rfcomm: connection reset")}
	p := newTestPrinter(t, sink, testProfile())
	ctx := context.Background()

	if err := p.Begin(ctx); err != nil {
		t.Fatal(err)
	}
	err := p.PrintPage(ctx, receiptPage(t))
	var te *TransportError
	if !errors.As(err, &te) {
		t.Fatalf("PrintPage = %v, want *TransportError", err)
	}
	if te.Offset != 2 {
		t.Errorf("Offset = %d, want 2 (bytes of ESC @)", te.Offset)
	}
	if p.PagesPrinted() != 0 {
		t.Errorf("failed page counted as printed")
	}
}

func TestPrinterInvalidPage(t *testing.T) {
	p := newTestPrinter(t, &recordingSink{}, testProfile())
	bad := &imgInternal.RasterImage{Width: 3, Height: 3, Channels: imgInternal.RGB}
	if err := p.PrintPage(context.Background(), bad); !errors.Is(err, imgInternal.ErrInvalidImage) {
		t.Errorf("PrintPage(bad) = %v, want ErrInvalidImage", err)
	}
}

func TestNewPrinterValidates(t *testing.T) {
	prof := testProfile()
	prof.WidthDots = 0
	if _, err := NewPrinter(&recordingSink{}, prof, nil); !errors.Is(err, profile.ErrInvalidProfile) {
		t.Errorf("NewPrinter(bad profile) = %v", err)
	}
	if _, err := NewPrinter(nil, testProfile(), nil); err == nil {
		t.Errorf("NewPrinter(nil sink) accepted")
	}
}

func TestCommands(t *testing.T) {
	if !bytes.Equal(InitCommand(), []byte{0x1b, 0x40}) {
		t.Errorf("InitCommand = % x", InitCommand())
	}
	if !bytes.Equal(FeedCommand(4), []byte{0x1b, 0x64, 0x04}) {
		t.Errorf("FeedCommand(4) = % x", FeedCommand(4))
	}
	if !bytes.Equal(CutCommand(), []byte{0x1d, 0x56, 0x42, 0x00}) {
		t.Errorf("CutCommand = % x", CutCommand())
	}
}
