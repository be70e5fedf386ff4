package printer

import (
	"fmt"
	"time"

	"go.bug.st/serial"
	"go.uber.org/zap"
)

// serialReadTimeout чтобы Drainer не висел в Read дольше этого после Stop.
const serialReadTimeout = 100 * time.Millisecond

// OpenSerial открывает последовательный порт как приёмник: COM порт,
// /dev/ttyUSB*, /dev/cu.* или привязанный Bluetooth SPP /dev/rfcomm*.
// Возвращённый порт можно отдавать в задание как есть: он пишет, читает
// (для Drainer) и закрывается по завершении задания.
func OpenSerial(portName string, baudRate int, logger *zap.Logger) (serial.Port, error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	// rfcomm устройства в этом списке бывают не всегда, поэтому только предупреждаем
	ports, err := serial.GetPortsList()
	if err != nil {
		logger.Warn("Failed to list serial ports", zap.Error(err))
	} else if !contains(ports, portName) {
		logger.Warn("Serial port not in system list, trying anyway",
			zap.String("port", portName),
			zap.Strings("available", ports))
	}

	mode := &serial.Mode{
		BaudRate: baudRate,
		Parity:   serial.NoParity,
		DataBits: 8,
		StopBits: serial.OneStopBit,
	}

	port, err := serial.Open(portName, mode)
	if err != nil {
		return nil, fmt.Errorf("failed to open serial port %s: %w", portName, err)
	}
	if err := port.SetReadTimeout(serialReadTimeout); err != nil {
		port.Close()
		return nil, fmt.Errorf("set read timeout on %s: %w", portName, err)
	}

	logger.Info("Serial port opened",
		zap.String("port", portName),
		zap.Int("baud", baudRate))
	return port, nil
}

// Проверяем, есть ли порт в списке
func contains(slice []string, item string) bool {
	for _, s := range slice {
		if s == item {
			return true
		}
	}
	return false
}
