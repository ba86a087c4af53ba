package compress

import (
	"fmt"
	"image"
	"image/color"
	"io"
	"math"
	"sort"

	xdraw "golang.org/x/image/draw"
	"gopkg.in/yaml.v3"
)

const cmPerInch = 2.54

// Preset is a target photo or signature format: a physical size at a DPI and
// a file-size window in KiB.
type Preset struct {
	Name     string  `yaml:"name" json:"name"`
	WidthCm  float64 `yaml:"widthCm" json:"widthCm"`
	HeightCm float64 `yaml:"heightCm" json:"heightCm"`
	DPI      float64 `yaml:"dpi" json:"dpi"`
	MinKB    int     `yaml:"minKb" json:"minKb"`
	MaxKB    int     `yaml:"maxKb" json:"maxKb"`
}

// Pixels returns the raster size of the preset.
func (p Preset) Pixels() (int, int) {
	return cmToPx(p.WidthCm, p.DPI), cmToPx(p.HeightCm, p.DPI)
}

// Window returns the byte-size window of the preset.
func (p Preset) Window() (int, int) {
	return p.MinKB * 1024, p.MaxKB * 1024
}

func cmToPx(cm, dpi float64) int {
	return int(math.Round(cm / cmPerInch * dpi))
}

// DefaultPresets are the exam application formats.
var DefaultPresets = []Preset{
	{Name: "ssc-photograph", WidthCm: 3.5, HeightCm: 4.5, DPI: 200, MinKB: 20, MaxKB: 50},
	{Name: "ssc-signature", WidthCm: 4.0, HeightCm: 3.0, DPI: 200, MinKB: 10, MaxKB: 20},
	{Name: "jkssb-photograph", WidthCm: 3.5, HeightCm: 4.5, DPI: 200, MinKB: 20, MaxKB: 50},
	{Name: "jkssb-signature", WidthCm: 3.5, HeightCm: 1.5, DPI: 200, MinKB: 10, MaxKB: 20},
}

// Presets indexes presets by name.
type Presets map[string]Preset

// NewPresets indexes list by name.
func NewPresets(list []Preset) Presets {
	ps := make(Presets, len(list))
	for _, p := range list {
		ps[p.Name] = p
	}
	return ps
}

// Names returns the preset names in lexical order.
func (ps Presets) Names() []string {
	names := make([]string, 0, len(ps))
	for n := range ps {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

// LoadPresets reads a YAML list of presets, each with the keys name,
// widthCm, heightCm, dpi, minKb and maxKb.
func LoadPresets(r io.Reader) (Presets, error) {
	var list []Preset
	if err := yaml.NewDecoder(r).Decode(&list); err != nil {
		return nil, fmt.Errorf("decode presets: %w", err)
	}
	for _, p := range list {
		if p.Name == "" {
			return nil, fmt.Errorf("preset without name")
		}
		w, h := p.Pixels()
		if w <= 0 || h <= 0 {
			return nil, fmt.Errorf("preset %s: empty raster size", p.Name)
		}
		if p.MinKB < 0 || p.MaxKB < p.MinKB {
			return nil, fmt.Errorf("preset %s: %w", p.Name, ErrInvalidWindow)
		}
	}
	return NewPresets(list), nil
}

// Fit stretches img to w×h over a white background.
func Fit(img image.Image, w, h int) *image.RGBA {
	dst := image.NewRGBA(image.Rect(0, 0, w, h))
	xdraw.Draw(dst, dst.Bounds(), image.NewUniform(color.White), image.Point{}, xdraw.Src)
	xdraw.CatmullRom.Scale(dst, dst.Bounds(), img, img.Bounds(), xdraw.Over, nil)
	return dst
}
