package printer

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"go.uber.org/zap"
	"tinygo.org/x/bluetooth"

	"github.com/AlexStarov/escpos-raster/profile"
)

// BLEOptions как найти принтер и его характеристику записи.
type BLEOptions struct {
	// Адрес (как его печатает Address.String) или имя устройства.
	// Если оба пустые, берётся первое устройство, похожее на принтер.
	Address string
	Name    string

	// Сервис и характеристика для записи. Нулевые значения: перебор известных пар.
	Service        bluetooth.UUID
	Characteristic bluetooth.UUID

	// Сколько сканировать, 0 значит 10 секунд.
	ScanTimeout time.Duration
}

type bleChannel struct {
	service, write bluetooth.UUID
}

// Пары сервис/характеристика, под которыми китайские ESC/POS принтеры
// выставляют последовательный канал.
var knownBLEChannels = []bleChannel{
	{bluetooth.New16BitUUID(0x18f0), bluetooth.New16BitUUID(0x2af1)},
	{bluetooth.New16BitUUID(0xff00), bluetooth.New16BitUUID(0xff02)},
	{bluetooth.New16BitUUID(0xae30), bluetooth.New16BitUUID(0xae01)},
}

// Характеристики записи, которые встречаются и вне своих сервисов.
// Последняя это "transparent UART" модулей Microchip ISSC.
var knownWriteUUIDs = []bluetooth.UUID{
	bluetooth.New16BitUUID(0x2af1),
	bluetooth.New16BitUUID(0xff02),
	bluetooth.New16BitUUID(0xae01),
	mustParseUUID("49535343-8841-43f4-a8d4-ecbe34729bb3"),
}

func mustParseUUID(s string) bluetooth.UUID {
	u, err := bluetooth.ParseUUID(s)
	if err != nil {
		panic(err)
	}
	return u
}

const defaultScanTimeout = 10 * time.Second

var ErrPrinterNotFound = errors.New("bluetooth printer not found")

// bleSink пишет в характеристику без подтверждения. Одна запись не должна
// превышать MTU, поэтому для BLE профиля задан MaxChunkBytes.
type bleSink struct {
	device bluetooth.Device
	char   bluetooth.DeviceCharacteristic
}

func (b *bleSink) Write(p []byte) (int, error) { return b.char.WriteWithoutResponse(p) }

func (b *bleSink) Close() error { return b.device.Disconnect() }

// OpenBLE сканирует, подключается к принтеру и находит характеристику записи.
func OpenBLE(ctx context.Context, adapter *bluetooth.Adapter, opts BLEOptions, logger *zap.Logger) (io.WriteCloser, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	if adapter == nil {
		adapter = bluetooth.DefaultAdapter
	}
	if err := adapter.Enable(); err != nil {
		return nil, fmt.Errorf("enable bluetooth: %w", err)
	}

	found, err := scanForPrinter(ctx, adapter, opts, logger)
	if err != nil {
		return nil, err
	}

	device, err := adapter.Connect(found.Address, bluetooth.ConnectionParams{})
	if err != nil {
		return nil, fmt.Errorf("connect to %s: %w", found.Address.String(), err)
	}

	char, err := findWriteCharacteristic(device, opts)
	if err != nil {
		_ = device.Disconnect()
		return nil, err
	}

	logger.Info("BLE printer connected",
		zap.String("name", found.LocalName()),
		zap.String("address", found.Address.String()),
		zap.String("characteristic", char.UUID().String()))
	return &bleSink{device: device, char: char}, nil
}

func (o BLEOptions) matches(r bluetooth.ScanResult) bool {
	switch {
	case o.Address != "":
		return r.Address.String() == o.Address
	case o.Name != "":
		return r.LocalName() == o.Name
	default:
		return profile.LooksLikePrinter(r.LocalName())
	}
}

func scanForPrinter(ctx context.Context, adapter *bluetooth.Adapter, opts BLEOptions, logger *zap.Logger) (bluetooth.ScanResult, error) {
	timeout := opts.ScanTimeout
	if timeout <= 0 {
		timeout = defaultScanTimeout
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	results := make(chan bluetooth.ScanResult, 1)
	scanErr := make(chan error, 1)
	go func() {
		scanErr <- adapter.Scan(func(a *bluetooth.Adapter, r bluetooth.ScanResult) {
			if !opts.matches(r) {
				return
			}
			logger.Debug("Found printer", zap.String("name", r.LocalName()))
			select {
			case results <- r:
				_ = a.StopScan()
			default:
			}
		})
	}()

	select {
	case r := <-results:
		return r, nil
	case err := <-scanErr:
		// StopScan из колбэка завершает Scan сразу после отправки результата
		select {
		case r := <-results:
			return r, nil
		default:
		}
		if err == nil {
			err = ErrPrinterNotFound
		}
		return bluetooth.ScanResult{}, fmt.Errorf("scan: %w", err)
	case <-ctx.Done():
		_ = adapter.StopScan()
		return bluetooth.ScanResult{}, fmt.Errorf("%w: %v", ErrPrinterNotFound, ctx.Err())
	}
}

func findWriteCharacteristic(device bluetooth.Device, opts BLEOptions) (bluetooth.DeviceCharacteristic, error) {
	channels := knownBLEChannels
	if opts.Service != (bluetooth.UUID{}) && opts.Characteristic != (bluetooth.UUID{}) {
		channels = []bleChannel{{opts.Service, opts.Characteristic}}
	}

	for _, ch := range channels {
		services, err := device.DiscoverServices([]bluetooth.UUID{ch.service})
		if err != nil || len(services) == 0 {
			continue
		}
		chars, err := services[0].DiscoverCharacteristics([]bluetooth.UUID{ch.write})
		if err != nil || len(chars) == 0 {
			continue
		}
		return chars[0], nil
	}

	// Полный обход: характеристика записи бывает под нестандартным сервисом.
	// Свойства характеристик bluetooth отдаёт только на Windows, поэтому
	// запись узнаём по UUID.
	services, err := device.DiscoverServices(nil)
	if err != nil {
		return bluetooth.DeviceCharacteristic{}, fmt.Errorf("discover services: %w", err)
	}
	var all []bluetooth.DeviceCharacteristic
	for _, svc := range services {
		chars, err := svc.DiscoverCharacteristics(nil)
		if err != nil {
			continue
		}
		all = append(all, chars...)
	}
	uuids := make([]bluetooth.UUID, len(all))
	for i, c := range all {
		uuids[i] = c.UUID()
	}
	if i := pickWriteCharacteristic(uuids, opts.Characteristic); i >= 0 {
		return all[i], nil
	}
	return bluetooth.DeviceCharacteristic{}, errors.New("no writable printer characteristic found")
}

// pickWriteCharacteristic индекс первой характеристики, в которую принтеры
// принимают данные: заданной явно, иначе одной из известных; -1 если нет.
func pickWriteCharacteristic(uuids []bluetooth.UUID, preferred bluetooth.UUID) int {
	if preferred != (bluetooth.UUID{}) {
		for i, u := range uuids {
			if u == preferred {
				return i
			}
		}
	}
	for _, want := range knownWriteUUIDs {
		for i, u := range uuids {
			if u == want {
				return i
			}
		}
	}
	return -1
}
