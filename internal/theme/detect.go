package theme

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/BurntSushi/toml"
	"gopkg.in/ini.v1"
)

// source attempts to read a palette from one terminal config location.
type source struct {
	name string
	load func(home string) (Palette, bool)
}

// sources is the detection priority order. Omarchy wins because its current
// theme symlink reflects an explicit user choice.
var sources = []source{
	{"omarchy", detectOmarchy},
	{"alacritty", detectAlacritty},
	{"foot", detectFoot},
	{"kitty", detectKitty},
}

// Detect attempts to load a theme from the terminal config files, falling
// back to the default palette. Environment overrides apply last.
func Detect() Palette {
	home, err := os.UserHomeDir()
	if err != nil {
		return DefaultPalette()
	}

	for _, src := range sources {
		if p, ok := src.load(home); ok {
			return applyEnvOverrides(p)
		}
	}
	return applyEnvOverrides(DefaultPalette())
}

// WatchPaths returns the config directories detection reads from, for use
// by the live-reload watcher.
func WatchPaths() []string {
	home, err := os.UserHomeDir()
	if err != nil {
		return nil
	}
	return []string{
		filepath.Join(home, ".config", "omarchy", "current", "theme"),
		filepath.Join(home, ".config", "alacritty"),
		filepath.Join(home, ".config", "foot"),
		filepath.Join(home, ".config", "kitty"),
	}
}

// alacrittyColors maps the relevant parts of alacritty.toml
type alacrittyColors struct {
	Colors struct {
		Primary struct {
			Background string `toml:"background"`
			Foreground string `toml:"foreground"`
		} `toml:"primary"`
		Selection struct {
			Background string `toml:"background"`
		} `toml:"selection"`
	} `toml:"colors"`
}

// detectOmarchy reads the active Omarchy theme, which publishes its colors
// as an alacritty.toml under the "current" symlink.
func detectOmarchy(home string) (Palette, bool) {
	return parseAlacrittyTOML(filepath.Join(home, ".config", "omarchy", "current", "theme", "alacritty.toml"))
}

func detectAlacritty(home string) (Palette, bool) {
	for _, path := range []string{
		filepath.Join(home, ".config", "alacritty", "alacritty.toml"),
		filepath.Join(home, ".alacritty.toml"),
	} {
		if p, ok := parseAlacrittyTOML(path); ok {
			return p, true
		}
	}
	return Palette{}, false
}

func parseAlacrittyTOML(path string) (Palette, bool) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Palette{}, false
	}
	var cfg alacrittyColors
	if err := toml.Unmarshal(data, &cfg); err != nil {
		return Palette{}, false
	}
	return buildPalette(
		cfg.Colors.Primary.Background,
		cfg.Colors.Primary.Foreground,
		cfg.Colors.Selection.Background,
	)
}

// detectFoot reads the ini-format ~/.config/foot/foot.ini
func detectFoot(home string) (Palette, bool) {
	cfg, err := ini.Load(filepath.Join(home, ".config", "foot", "foot.ini"))
	if err != nil {
		return Palette{}, false
	}
	colors := cfg.Section("colors")
	return buildPalette(
		colors.Key("background").String(),
		colors.Key("foreground").String(),
		colors.Key("selection-background").String(),
	)
}

// detectKitty reads the space-separated ~/.config/kitty/kitty.conf
func detectKitty(home string) (Palette, bool) {
	data, err := os.ReadFile(filepath.Join(home, ".config", "kitty", "kitty.conf"))
	if err != nil {
		return Palette{}, false
	}

	var bg, fg, sel string
	for _, line := range strings.Split(string(data), "\n") {
		fields := strings.Fields(strings.TrimSpace(line))
		if len(fields) < 2 || strings.HasPrefix(fields[0], "#") {
			continue
		}
		switch fields[0] {
		case "background":
			bg = fields[1]
		case "foreground":
			fg = fields[1]
		case "selection_background":
			sel = fields[1]
		}
	}
	return buildPalette(bg, fg, sel)
}

// buildPalette derives a full palette from the two mandatory colors plus an
// optional selection background.
func buildPalette(bg, fg, selection string) (Palette, bool) {
	bg, fg = normalizeHex(bg), normalizeHex(fg)
	if bg == "" || fg == "" {
		return Palette{}, false
	}

	p := DefaultPalette()
	p.BG = bg
	p.FG = fg
	p.Muted = dimColor(fg, 0.5)
	if sel := normalizeHex(selection); sel != "" {
		p.AccentBg = sel
	} else {
		p.AccentBg = mixColors(bg, fg, 0.15)
	}
	return p, true
}

// applyEnvOverrides applies PODCAST_SYNC_* environment variables
func applyEnvOverrides(p Palette) Palette {
	for _, o := range []struct {
		env string
		dst *string
	}{
		{"PODCAST_SYNC_BG", &p.BG},
		{"PODCAST_SYNC_FG", &p.FG},
		{"PODCAST_SYNC_MUTED", &p.Muted},
		{"PODCAST_SYNC_ACCENT", &p.Accent},
	} {
		if v := normalizeHex(os.Getenv(o.env)); v != "" {
			*o.dst = v
		}
	}
	return p
}

// normalizeHex returns the color as #RRGGBB, or "" when it cannot be parsed.
func normalizeHex(color string) string {
	color = strings.TrimSpace(color)
	color = strings.TrimPrefix(strings.TrimPrefix(color, "0x"), "0X")
	color = strings.TrimPrefix(color, "#")

	switch len(color) {
	case 3:
		// #RGB shorthand
		color = strings.Repeat(string(color[0]), 2) +
			strings.Repeat(string(color[1]), 2) +
			strings.Repeat(string(color[2]), 2)
	case 6:
	default:
		return ""
	}
	if _, err := strconv.ParseUint(color, 16, 32); err != nil {
		return ""
	}
	return "#" + strings.ToLower(color)
}

func parseRGB(hex string) (r, g, b uint8, ok bool) {
	hex = normalizeHex(hex)
	if hex == "" {
		return 0, 0, 0, false
	}
	v, err := strconv.ParseUint(hex[1:], 16, 32)
	if err != nil {
		return 0, 0, 0, false
	}
	return uint8(v >> 16), uint8(v >> 8), uint8(v), true
}

func formatRGB(r, g, b uint8) string {
	return fmt.Sprintf("#%02x%02x%02x", r, g, b)
}

// dimColor reduces the brightness of a hex color
func dimColor(hex string, factor float64) string {
	r, g, b, ok := parseRGB(hex)
	if !ok {
		return hex
	}
	return formatRGB(
		uint8(float64(r)*factor),
		uint8(float64(g)*factor),
		uint8(float64(b)*factor),
	)
}

// mixColors blends a toward b by the given ratio (0 = all a, 1 = all b)
func mixColors(a, b string, ratio float64) string {
	ar, ag, ab, ok := parseRGB(a)
	if !ok {
		return a
	}
	br, bg, bb, ok := parseRGB(b)
	if !ok {
		return a
	}
	mix := func(x, y uint8) uint8 {
		return uint8(float64(x)*(1-ratio) + float64(y)*ratio)
	}
	return formatRGB(mix(ar, br), mix(ag, bg), mix(ab, bb))
}
