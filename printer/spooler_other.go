//go:build !windows

package printer

import (
	"errors"
	"io"

	"go.uber.org/zap"
)

var errSpoolerUnsupported = errors.New("windows spooler printing is only supported on Windows")

// OpenSpooler заглушка для не-Windows систем.
func OpenSpooler(printerName string, logger *zap.Logger) (io.WriteCloser, error) {
	return nil, errSpoolerUnsupported
}
