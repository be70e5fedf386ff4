package image

import (
	"fmt"

	"github.com/AlexStarov/escpos-raster/util"
)

// MonoBitmap упакованное 1-битное изображение: 1 = чёрная точка,
// старший бит байта соответствует левой точке. Неиспользуемые биты
// в конце строки нулевые. После создания не изменяется.
type MonoBitmap struct {
	width       int
	height      int
	bytesPerRow int
	data        []byte
}

// NewMonoBitmap оборачивает уже упакованные данные.
func NewMonoBitmap(width, height int, data []byte) (*MonoBitmap, error) {
	if width <= 0 || height <= 0 {
		return nil, fmt.Errorf("%w: bitmap dimensions %dx%d", ErrInvalidImage, width, height)
	}
	bpr := util.CeilDiv(width, 8)
	if len(data) != bpr*height {
		return nil, fmt.Errorf("%w: bitmap data has %d bytes, want %d", ErrInvalidImage, len(data), bpr*height)
	}
	return &MonoBitmap{width: width, height: height, bytesPerRow: bpr, data: data}, nil
}

func (b *MonoBitmap) Width() int       { return b.width }
func (b *MonoBitmap) Height() int      { return b.height }
func (b *MonoBitmap) BytesPerRow() int { return b.bytesPerRow }

// Data упакованные строки. Срез общий, изменять его нельзя.
func (b *MonoBitmap) Data() []byte { return b.data }

// Black сообщает, чёрная ли точка (x, y).
func (b *MonoBitmap) Black(x, y int) bool {
	return b.data[y*b.bytesPerRow+x/8]&(0x80>>uint(x%8)) != 0
}

// Rows полоса из n строк начиная со start; данные не копируются.
func (b *MonoBitmap) Rows(start, n int) (*MonoBitmap, error) {
	if start < 0 || n <= 0 || start+n > b.height {
		return nil, fmt.Errorf("%w: rows [%d, %d) outside height %d", ErrInvalidImage, start, start+n, b.height)
	}
	return &MonoBitmap{
		width:       b.width,
		height:      n,
		bytesPerRow: b.bytesPerRow,
		data:        b.data[start*b.bytesPerRow : (start+n)*b.bytesPerRow],
	}, nil
}
