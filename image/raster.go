package image

import (
	"fmt"

	"github.com/AlexStarov/escpos-raster/util"
)

// GS v 0 m: печать растрового изображения, m=0 обычная плотность.
var rasterCommand = []byte{0x1d, 0x76, 0x30, 0x00}

// RasterHeaderLen длина заголовка GS v 0 вместе с xL xH yL yH.
const RasterHeaderLen = 8

// RasterHeader заголовок GS v 0 m xL xH yL yH.
func RasterHeader(bytesWidth, height int) ([]byte, error) {
	xLH, err := util.IntLowHigh(bytesWidth, 2)
	if err != nil {
		return nil, fmt.Errorf("%w: raster width: %v", ErrInvalidImage, err)
	}
	yLH, err := util.IntLowHigh(height, 2)
	if err != nil {
		return nil, fmt.Errorf("%w: raster height: %v", ErrInvalidImage, err)
	}

	header := make([]byte, 0, RasterHeaderLen)
	header = append(header, rasterCommand...)
	header = append(header, xLH...)
	header = append(header, yLH...)
	return header, nil
}

// EncodeRasterCommand одна команда GS v 0 на всё изображение.
func EncodeRasterCommand(b *MonoBitmap) ([]byte, error) {
	header, err := RasterHeader(b.BytesPerRow(), b.Height())
	if err != nil {
		return nil, err
	}
	return append(header, b.Data()...), nil
}

// FrameForTransport режет изображение на полосы по maxRowsPerChunk строк,
// каждая полоса это самостоятельная команда GS v 0 со своей высотой.
// Принтеры с маленьким буфером теряют данные на длинных командах.
// maxRowsPerChunk <= 0 означает одну полосу на всё изображение.
func FrameForTransport(b *MonoBitmap, maxRowsPerChunk int) ([][]byte, error) {
	if maxRowsPerChunk <= 0 || maxRowsPerChunk > b.Height() {
		maxRowsPerChunk = b.Height()
	}

	chunks := make([][]byte, 0, util.CeilDiv(b.Height(), maxRowsPerChunk))
	for start := 0; start < b.Height(); start += maxRowsPerChunk {
		lines := maxRowsPerChunk
		if lines > b.Height()-start {
			lines = b.Height() - start
		}

		band, err := b.Rows(start, lines)
		if err != nil {
			return nil, err
		}
		chunk, err := EncodeRasterCommand(band)
		if err != nil {
			return nil, err
		}
		chunks = append(chunks, chunk)
	}
	return chunks, nil
}
