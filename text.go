package moonquake

import (
	"bufio"
	"bytes"
	"errors"
	"fmt"
	"image"
	"strconv"
	"strings"
	"sync"
	"unicode/utf8"

	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/text/v2"
	"golang.org/x/image/font/gofont/goregular"
)

// ErrNoTypeface is returned when a label is built without a typeface.
var ErrNoTypeface = errors.New("moonquake: no typeface")

// Typeface measures and rasterizes text at an arbitrary pixel height.
type Typeface interface {
	// Measure returns the advance width of s in pixels at pixelHeight.
	Measure(s string, pixelHeight float64) (float64, error)
	// DrawCentered draws s centred on (cx, cy) in dst.
	DrawCentered(dst *ebiten.Image, s string, pixelHeight, cx, cy float64, c Color) error
}

func checkPixelHeight(h float64) error {
	if !(h > 0) {
		return fmt.Errorf("moonquake: pixel height %v must be positive", h)
	}
	return nil
}

// --- TTFTypeface ---

// TTFTypeface wraps Ebitengine's text/v2 for TrueType rendering. Faces are
// created per call so one typeface serves every pixel height.
type TTFTypeface struct {
	source *text.GoTextFaceSource
}

// LoadTTFTypeface parses raw TTF/OTF data.
func LoadTTFTypeface(ttfData []byte) (*TTFTypeface, error) {
	source, err := text.NewGoTextFaceSource(bytes.NewReader(ttfData))
	if err != nil {
		return nil, fmt.Errorf("moonquake: failed to parse TTF data: %w", err)
	}
	return &TTFTypeface{source: source}, nil
}

var defaultTypeface = sync.OnceValues(func() (*TTFTypeface, error) {
	return LoadTTFTypeface(goregular.TTF)
})

// DefaultTypeface returns the shared Go Regular typeface.
func DefaultTypeface() (*TTFTypeface, error) {
	return defaultTypeface()
}

func (f *TTFTypeface) face(pixelHeight float64) *text.GoTextFace {
	return &text.GoTextFace{Source: f.source, Size: pixelHeight}
}

// Measure implements Typeface.
func (f *TTFTypeface) Measure(s string, pixelHeight float64) (float64, error) {
	if err := checkPixelHeight(pixelHeight); err != nil {
		return 0, err
	}
	w, _ := text.Measure(s, f.face(pixelHeight), pixelHeight)
	return w, nil
}

// DrawCentered implements Typeface.
func (f *TTFTypeface) DrawCentered(dst *ebiten.Image, s string, pixelHeight, cx, cy float64, c Color) error {
	if err := checkPixelHeight(pixelHeight); err != nil {
		return err
	}
	op := &text.DrawOptions{}
	op.GeoM.Translate(cx, cy)
	op.ColorScale.ScaleWithColor(c.toRGBA())
	op.LineSpacing = pixelHeight
	op.PrimaryAlign = text.AlignCenter
	op.SecondaryAlign = text.AlignCenter
	text.Draw(dst, s, f.face(pixelHeight), op)
	return nil
}

// --- BitmapTypeface ---

type glyph struct {
	id       rune
	x, y     uint16
	width    uint16
	height   uint16
	xOffset  int16
	yOffset  int16
	xAdvance int16
}

const asciiGlyphCount = 128

// BitmapTypeface renders text from a pre-rasterized BMFont atlas. Glyphs are
// scaled from the font's native line height to the requested pixel height.
type BitmapTypeface struct {
	lineHeight float64
	page       *ebiten.Image

	asciiGlyphs [asciiGlyphCount]glyph
	asciiSet    [asciiGlyphCount]bool
	extGlyphs   map[rune]*glyph

	kernings map[[2]rune]int16
}

// LoadBitmapTypeface parses BMFont .fnt text-format data. page is the atlas
// image; it may be nil when the typeface is only used for measurement.
func LoadBitmapTypeface(fntData []byte, page *ebiten.Image) (*BitmapTypeface, error) {
	f := &BitmapTypeface{page: page}

	scanner := bufio.NewScanner(bytes.NewReader(fntData))
	var charCount int

	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}

		tag, rest := splitTag(line)
		fields := parseFields(rest)

		switch tag {
		case "common":
			f.lineHeight = fieldFloat(fields, "lineHeight")

		case "char":
			charCount++
			g := glyph{
				id:       rune(fieldInt(fields, "id")),
				x:        uint16(fieldInt(fields, "x")),
				y:        uint16(fieldInt(fields, "y")),
				width:    uint16(fieldInt(fields, "width")),
				height:   uint16(fieldInt(fields, "height")),
				xOffset:  int16(fieldInt(fields, "xoffset")),
				yOffset:  int16(fieldInt(fields, "yoffset")),
				xAdvance: int16(fieldInt(fields, "xadvance")),
			}
			if g.id >= 0 && g.id < asciiGlyphCount {
				f.asciiGlyphs[g.id] = g
				f.asciiSet[g.id] = true
			} else {
				if f.extGlyphs == nil {
					f.extGlyphs = make(map[rune]*glyph)
				}
				f.extGlyphs[g.id] = &g
			}

		case "kerning":
			if f.kernings == nil {
				f.kernings = make(map[[2]rune]int16)
			}
			pair := [2]rune{rune(fieldInt(fields, "first")), rune(fieldInt(fields, "second"))}
			f.kernings[pair] = int16(fieldInt(fields, "amount"))
		}
	}

	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("moonquake: error reading .fnt data: %w", err)
	}
	if f.lineHeight == 0 {
		return nil, fmt.Errorf("moonquake: .fnt data missing common lineHeight")
	}
	if charCount == 0 {
		return nil, fmt.Errorf("moonquake: .fnt data has no char definitions")
	}
	return f, nil
}

// LineHeight returns the font's native line height in atlas pixels.
func (f *BitmapTypeface) LineHeight() float64 {
	return f.lineHeight
}

// glyph returns the glyph for the given rune, or nil if not found.
func (f *BitmapTypeface) glyph(r rune) *glyph {
	if r >= 0 && r < asciiGlyphCount {
		if f.asciiSet[r] {
			return &f.asciiGlyphs[r]
		}
		return nil
	}
	return f.extGlyphs[r]
}

func (f *BitmapTypeface) kern(first, second rune) int16 {
	if f.kernings == nil {
		return 0
	}
	return f.kernings[[2]rune{first, second}]
}

// layout calls fn for every drawable glyph with its pen position in native
// units and returns the widest line and the line count.
func (f *BitmapTypeface) layout(s string, fn func(g *glyph, x, y float64)) (width float64, lines int) {
	var cursorX float64
	var prevRune rune
	var hasPrev bool
	lines = 1

	for i := 0; i < len(s); {
		r, size := utf8.DecodeRuneInString(s[i:])
		i += size

		if r == '\n' {
			width = max(width, cursorX)
			cursorX = 0
			lines++
			hasPrev = false
			continue
		}

		g := f.glyph(r)
		if g == nil {
			hasPrev = false
			continue
		}
		if hasPrev {
			cursorX += float64(f.kern(prevRune, r))
		}
		if fn != nil {
			fn(g, cursorX, float64(lines-1)*f.lineHeight)
		}
		cursorX += float64(g.xAdvance)
		prevRune = r
		hasPrev = true
	}
	return max(width, cursorX), lines
}

// Measure implements Typeface.
func (f *BitmapTypeface) Measure(s string, pixelHeight float64) (float64, error) {
	if err := checkPixelHeight(pixelHeight); err != nil {
		return 0, err
	}
	w, _ := f.layout(s, nil)
	return w * pixelHeight / f.lineHeight, nil
}

// DrawCentered implements Typeface.
func (f *BitmapTypeface) DrawCentered(dst *ebiten.Image, s string, pixelHeight, cx, cy float64, c Color) error {
	if err := checkPixelHeight(pixelHeight); err != nil {
		return err
	}
	if f.page == nil {
		return fmt.Errorf("moonquake: bitmap typeface has no atlas page")
	}
	k := pixelHeight / f.lineHeight
	w, lines := f.layout(s, nil)
	ox := cx - w*k/2
	oy := cy - float64(lines)*f.lineHeight*k/2

	var op ebiten.DrawImageOptions
	f.layout(s, func(g *glyph, x, y float64) {
		if g.width == 0 || g.height == 0 {
			return
		}
		r := image.Rect(int(g.x), int(g.y), int(g.x)+int(g.width), int(g.y)+int(g.height))
		op.GeoM.Reset()
		op.GeoM.Translate(x+float64(g.xOffset), y+float64(g.yOffset))
		op.GeoM.Scale(k, k)
		op.GeoM.Translate(ox, oy)
		op.ColorScale.Reset()
		op.ColorScale.ScaleWithColor(c.toRGBA())
		op.Filter = ebiten.FilterLinear
		dst.DrawImage(f.page.SubImage(r).(*ebiten.Image), &op)
	})
	return nil
}

// splitTag splits a BMFont line into its tag and the rest of the line.
func splitTag(line string) (string, string) {
	idx := strings.IndexByte(line, ' ')
	if idx == -1 {
		return line, ""
	}
	return line[:idx], line[idx+1:]
}

// parseFields parses "key=value key=value ..." into a map.
func parseFields(s string) map[string]string {
	fields := make(map[string]string)
	for _, part := range strings.Fields(s) {
		eq := strings.IndexByte(part, '=')
		if eq == -1 {
			continue
		}
		key := part[:eq]
		val := part[eq+1:]
		// Strip quotes from values like face="Arial"
		if len(val) >= 2 && val[0] == '"' && val[len(val)-1] == '"' {
			val = val[1 : len(val)-1]
		}
		fields[key] = val
	}
	return fields
}

func fieldInt(fields map[string]string, key string) int {
	v, _ := strconv.Atoi(fields[key])
	return v
}

func fieldFloat(fields map[string]string, key string) float64 {
	v, _ := strconv.ParseFloat(fields[key], 64)
	return v
}
