package provider

// DefaultIcon is the clear sky day icon used for unknown codes.
const DefaultIcon = "01d"

// IconKind groups OpenWeatherMap icon codes by what they depict.
type IconKind string

// Icon kinds.
const (
	IconClear        IconKind = "clear"
	IconFewClouds    IconKind = "few_clouds"
	IconClouds       IconKind = "clouds"
	IconShowerRain   IconKind = "shower_rain"
	IconRain         IconKind = "rain"
	IconThunderstorm IconKind = "thunderstorm"
	IconSnow         IconKind = "snow"
	IconMist         IconKind = "mist"
)

var iconKinds = map[string]IconKind{
	"01": IconClear,
	"02": IconFewClouds,
	"03": IconClouds,
	"04": IconClouds,
	"09": IconShowerRain,
	"10": IconRain,
	"11": IconThunderstorm,
	"13": IconSnow,
	"50": IconMist,
}

func knownIcon(code string) bool {
	if len(code) != 3 || (code[2] != 'd' && code[2] != 'n') {
		return false
	}
	_, ok := iconKinds[code[:2]]
	return ok
}

// IconFile maps an icon code to the official 2x icon file name, falling back
// to the clear sky day icon.
func IconFile(code string) string {
	if !knownIcon(code) {
		code = DefaultIcon
	}
	return code + "@2x.png"
}

// Icon returns the kind of an icon code and whether it is a night variant.
func Icon(code string) (IconKind, bool) {
	if !knownIcon(code) {
		code = DefaultIcon
	}
	return iconKinds[code[:2]], code[2] == 'n'
}
