package util

import "fmt"

// IntLowHigh раскладывает n в b байт little-endian (младший байт первым),
// как этого требуют поля длины ESC/POS команд (xL xH yL yH).
func IntLowHigh(n int, b int) ([]byte, error) {
	if b < 1 || b > 4 {
		return nil, fmt.Errorf("IntLowHigh: 1-4 bytes only, got %d", b)
	}
	if n < 0 || uint64(n) > MaxLowHigh(b) {
		return nil, fmt.Errorf("IntLowHigh: %d does not fit in %d bytes", n, b)
	}

	out := make([]byte, b)
	for i := 0; i < b; i++ {
		out[i] = byte(n % 256)
		n = n / 256
	}
	return out, nil
}

// MaxLowHigh максимальное значение, которое помещается в b байт.
func MaxLowHigh(b int) uint64 {
	return 1<<(uint(b)*8) - 1
}

// CeilDiv деление с округлением вверх, для положительных a и b.
func CeilDiv(a, b int) int {
	return (a + b - 1) / b
}
