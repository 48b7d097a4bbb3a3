package ui

import (
	"fmt"
	"image"
	"os"
	"runtime"
	"strings"
	"sync"
)

// termRenderer converts a pixel canvas into a terminal string. In color mode
// it uses "▀" with fg/bg colors to pack two pixel rows per terminal row; with
// colors disabled it falls back to a brightness ramp.
type termRenderer struct {
	mode colorMode
	sb   strings.Builder
}

func newTermRenderer() *termRenderer {
	return &termRenderer{mode: detectColorMode()}
}

// ASCII brightness ramp from darkest to brightest.
const asciiRamp = " .:-=+*#%@"

type colorMode uint8

const (
	colorOff colorMode = iota
	colorANSI16
	colorANSI256
	colorTrue
)

var (
	detectOnce sync.Once
	termColor  colorMode
)

// detectColorMode checks terminal capabilities once.
func detectColorMode() colorMode {
	detectOnce.Do(func() {
		if _, ok := os.LookupEnv("NO_COLOR"); ok {
			termColor = colorOff
			return
		}
		term := strings.ToLower(os.Getenv("TERM"))
		ct := strings.ToLower(os.Getenv("COLORTERM"))
		switch {
		case strings.Contains(ct, "truecolor"), strings.Contains(ct, "24bit"):
			termColor = colorTrue
		case strings.Contains(term, "256color"):
			termColor = colorANSI256
		case term == "dumb":
			termColor = colorOff
		case term == "" && runtime.GOOS == "windows":
			termColor = colorANSI16
		case term == "":
			termColor = colorOff
		default:
			termColor = colorANSI16
		}
	})
	return termColor
}

// cellColumns returns how many canvas pixel rows one terminal row shows for
// the active mode.
func (r *termRenderer) rowsPerCell() int {
	if r.mode == colorOff {
		return 1
	}
	return 2
}

// Render converts the image into terminal rows. The canvas is expected to be
// outW pixels wide and outH*rowsPerCell pixels tall.
func (r *termRenderer) Render(img *image.RGBA, outW, outH int) string {
	if img == nil || outW <= 0 || outH <= 0 {
		return ""
	}

	r.sb.Reset()
	r.sb.Grow(outW * outH * 24)

	if r.mode == colorOff {
		r.renderASCII(img, outW, outH)
	} else {
		r.renderHalfBlock(img, outW, outH)
	}
	return r.sb.String()
}

func (r *termRenderer) renderHalfBlock(img *image.RGBA, outW, outH int) {
	var lastFg, lastBg string

	for row := 0; row < outH; row++ {
		for col := 0; col < outW; col++ {
			tr, tg, tb := pixelAt(img, col, row*2)
			br, bg, bb := pixelAt(img, col, row*2+1)

			fg := fgColorSeq(r.mode, tr, tg, tb)
			bgc := bgColorSeq(r.mode, br, bg, bb)
			if fg != lastFg {
				r.sb.WriteString(fg)
				lastFg = fg
			}
			if bgc != lastBg {
				r.sb.WriteString(bgc)
				lastBg = bgc
			}
			r.sb.WriteString("▀")
		}
		r.sb.WriteString(ansiReset)
		lastFg = ""
		lastBg = ""
		if row < outH-1 {
			r.sb.WriteByte('\n')
		}
	}
}

func (r *termRenderer) renderASCII(img *image.RGBA, outW, outH int) {
	for row := 0; row < outH; row++ {
		for col := 0; col < outW; col++ {
			pr, pg, pb := pixelAt(img, col, row)
			lum := luminance(pr, pg, pb)
			idx := int(lum) * (len(asciiRamp) - 1) / 255
			r.sb.WriteByte(asciiRamp[idx])
		}
		if row < outH-1 {
			r.sb.WriteByte('\n')
		}
	}
}

func pixelAt(img *image.RGBA, x, y int) (uint8, uint8, uint8) {
	b := img.Bounds()
	if x < b.Min.X || x >= b.Max.X || y < b.Min.Y || y >= b.Max.Y {
		return 0, 0, 0
	}
	off := (y-b.Min.Y)*img.Stride + (x-b.Min.X)*4
	return img.Pix[off], img.Pix[off+1], img.Pix[off+2]
}

// luminance computes perceived brightness (ITU-R BT.601).
func luminance(r, g, b uint8) uint8 {
	return uint8((299*int(r) + 587*int(g) + 114*int(b)) / 1000)
}

const ansiReset = "\x1b[0m"

func fgColorSeq(mode colorMode, r, g, b uint8) string {
	switch mode {
	case colorTrue:
		return fmt.Sprintf("\x1b[38;2;%d;%d;%dm", r, g, b)
	case colorANSI256:
		return fmt.Sprintf("\x1b[38;5;%dm", ansi256Index(r, g, b))
	case colorANSI16:
		return ansi16Seq(r, g, b, 30, 90)
	default:
		return ""
	}
}

func bgColorSeq(mode colorMode, r, g, b uint8) string {
	switch mode {
	case colorTrue:
		return fmt.Sprintf("\x1b[48;2;%d;%d;%dm", r, g, b)
	case colorANSI256:
		return fmt.Sprintf("\x1b[48;5;%dm", ansi256Index(r, g, b))
	case colorANSI16:
		return ansi16Seq(r, g, b, 40, 100)
	default:
		return ""
	}
}

func ansi256Index(r, g, b uint8) int {
	ri := int(r) * 5 / 255
	gi := int(g) * 5 / 255
	bi := int(b) * 5 / 255
	return 16 + 36*ri + 6*gi + bi
}

// ansi16Seq maps an RGB value to the nearest ANSI 16 color escape, using the
// normal or bright code base depending on which half matches.
func ansi16Seq(r, g, b uint8, normalBase, brightBase int) string {
	best := 0
	bestDist := 1<<31 - 1
	for i, c := range ansi16Palette {
		dr := int(r) - int(c[0])
		dg := int(g) - int(c[1])
		db := int(b) - int(c[2])
		d := dr*dr + dg*dg + db*db
		if d < bestDist {
			bestDist = d
			best = i
		}
	}
	if best < 8 {
		return fmt.Sprintf("\x1b[%dm", normalBase+best)
	}
	return fmt.Sprintf("\x1b[%dm", brightBase+best-8)
}

var ansi16Palette = [16][3]uint8{
	{0, 0, 0},
	{205, 49, 49},
	{13, 188, 121},
	{229, 229, 16},
	{36, 114, 200},
	{188, 63, 188},
	{17, 168, 205},
	{229, 229, 229},
	{102, 102, 102},
	{241, 76, 76},
	{35, 209, 139},
	{245, 245, 67},
	{59, 142, 234},
	{214, 112, 214},
	{41, 184, 219},
	{255, 255, 255},
}
