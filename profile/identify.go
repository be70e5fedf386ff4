package profile

import "strings"

// Identifier определяет ширину печати по имени устройства.
// ok=false означает, что имя ничего не говорит о ширине.
type Identifier interface {
	Identify(name string) (widthDots int, ok bool)
}

// Media идентификатор бумаги, выбранной пользователем в диалоге печати.
type Media string

const (
	MediaSunmi58 Media = "SUNMI_58"
	MediaSunmi80 Media = "SUNMI_80"
)

var (
	names80mm = []string{"80", "MTP-3", "T80"}
	names58mm = []string{"58", "MTP-2", "MTP-II", "BLUETOOTH PRINTER", "KPRINTER"}
)

// NameIdentifier эвристика по подстрокам имени Bluetooth устройства.
// Признаки 80 мм проверяются первыми.
type NameIdentifier struct {
	// Производитель и модель устройства, на котором запущена печать.
	// Встроенные принтеры Sunmi V2/V3 всегда 58 мм.
	Host string
}

func (n NameIdentifier) Identify(name string) (int, bool) {
	name = strings.ToUpper(name)
	if containsAny(name, names80mm) {
		return Width80mm, true
	}
	if containsAny(name, names58mm) || n.sunmiHandheld() {
		return Width58mm, true
	}
	return 0, false
}

func (n NameIdentifier) sunmiHandheld() bool {
	host := strings.ToUpper(n.Host)
	return strings.Contains(host, "SUNMI") &&
		(strings.Contains(host, "V2") || strings.Contains(host, "V3") || strings.Contains(host, "P2"))
}

// Resolve выбирает ширину печати: сохранённая пользователем ширина,
// затем выбранная бумага, затем имя устройства, иначе 58 мм.
func Resolve(id Identifier, savedWidth int, media Media, name string) int {
	if savedWidth > 0 {
		return savedWidth
	}
	switch media {
	case MediaSunmi80:
		return Width80mm
	case MediaSunmi58:
		return Width58mm
	}
	if id != nil {
		if w, ok := id.Identify(name); ok {
			return w
		}
	}
	return Width58mm
}

// LooksLikePrinter фильтр результатов BLE сканирования.
func LooksLikePrinter(name string) bool {
	return strings.Contains(name, "Printer") || strings.Contains(name, "MTP")
}

func containsAny(s string, subs []string) bool {
	for _, sub := range subs {
		if strings.Contains(s, sub) {
			return true
		}
	}
	return false
}
