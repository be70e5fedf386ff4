package image

import (
	"math"

	"github.com/AlexStarov/escpos-raster/util"
)

// Усиление контраста перед переводом в серый: c' = c*1.2 - 20.
const (
	contrastGain   = 1.2
	contrastOffset = 20
	blackThreshold = 128
)

// Веса ITU-R 601 для яркости.
const (
	lumR, lumG, lumB = 0.299, 0.587, 0.114
)

func boost(c uint8) int {
	v := float64(c)*contrastGain - contrastOffset
	if v < 0 {
		return 0
	}
	if v > 255 {
		return 255
	}
	return int(v)
}

func luminance(r, g, b uint8) int {
	return int(math.Floor(lumR*float64(boost(r)) + lumG*float64(boost(g)) + lumB*float64(boost(b))))
}

func clamp255(v int) int {
	if v < 0 {
		return 0
	}
	if v > 255 {
		return 255
	}
	return v
}

// ToMonochrome переводит изображение в 1 бит: усиление контраста, яркость,
// затем диффузия ошибки Флойда-Стейнберга в порядке растровой развёртки.
// Доли ошибки считаются целочисленно (деление с отбрасыванием к нулю),
// каждое записанное значение ограничивается [0, 255]. Результат
// детерминирован: одинаковый вход всегда даёт одинаковые байты.
func ToMonochrome(img *RasterImage) (*MonoBitmap, error) {
	if err := img.Validate(); err != nil {
		return nil, err
	}

	w, h := img.Width, img.Height
	ch := int(img.Channels)
	gray := make([]int, w*h)
	for i := range gray {
		p := i * ch
		gray[i] = luminance(img.Pix[p], img.Pix[p+1], img.Pix[p+2])
	}

	bpr := util.CeilDiv(w, 8)
	data := make([]byte, bpr*h)
	spread := func(i, amount int) {
		gray[i] = clamp255(gray[i] + amount)
	}

	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			i := y*w + x
			old := gray[i]
			level := 0
			if old >= blackThreshold {
				level = 255
			}
			gray[i] = level
			e := old - level

			if x+1 < w {
				spread(i+1, e*7/16)
			}
			if y+1 < h {
				if x > 0 {
					spread(i+w-1, e*3/16)
				}
				spread(i+w, e*5/16)
				if x+1 < w {
					spread(i+w+1, e*1/16)
				}
			}

			if level == 0 {
				data[y*bpr+x/8] |= 0x80 >> uint(x%8)
			}
		}
	}

	return NewMonoBitmap(w, h, data)
}
