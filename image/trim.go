package image

import "image"

// TrimOptions параметры поиска содержимого на странице.
type TrimOptions struct {
	// Пиксель считается содержимым, если красный канал меньше порога.
	DarknessThreshold uint8
	// Строка учитывается, только если в ней не меньше стольких тёмных пикселей
	// (отсекает одиночный шум рендера).
	MinDarkSamplesPerRow int
	Padding              int
	// Дополнительный отступ снизу, чтобы отрез не задевал последнюю строку.
	ExtraBottomPadding int
}

// DefaultTrimOptions значения, с которыми печатают мобильные сервисы.
var DefaultTrimOptions = TrimOptions{
	DarknessThreshold:    240,
	MinDarkSamplesPerRow: 2,
	Padding:              5,
	ExtraBottomPadding:   40,
}

// Trim находит рамку содержимого страницы за один проход.
// Возвращает false, если тёмных строк нет: страница пустая и её пропускают.
// Рамка полуоткрытая и уже обрезана по границам изображения.
func Trim(img *RasterImage, opt TrimOptions) (image.Rectangle, bool) {
	if img.Validate() != nil {
		return image.Rectangle{}, false
	}

	ch := int(img.Channels)
	minX, minY := img.Width, img.Height
	maxX, maxY := -1, -1

	for y := 0; y < img.Height; y++ {
		row := y * img.Width * ch
		dark, first, last := 0, -1, -1
		for x := 0; x < img.Width; x++ {
			if img.Pix[row+x*ch] < opt.DarknessThreshold {
				dark++
				if first < 0 {
					first = x
				}
				last = x
			}
		}
		if dark == 0 || dark < opt.MinDarkSamplesPerRow {
			continue
		}

		if first < minX {
			minX = first
		}
		if last > maxX {
			maxX = last
		}
		if y < minY {
			minY = y
		}
		maxY = y
	}

	if maxY < 0 {
		return image.Rectangle{}, false
	}

	box := image.Rectangle{
		Min: image.Point{X: minX - opt.Padding, Y: minY - opt.Padding},
		Max: image.Point{X: maxX + opt.Padding + 1, Y: maxY + opt.Padding + opt.ExtraBottomPadding + 1},
	}.Intersect(img.Bounds())
	if box.Empty() {
		return image.Rectangle{}, false
	}
	return box, true
}
