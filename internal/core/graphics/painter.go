// Copyright 2024 Google, LLC
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     https://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package graphics

import (
	"fmt"
	"image"
	"image/color"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"math"
	"os"
	"path/filepath"
	"strings"
	"unicode"

	"github.com/fogleman/gg"
	"golang.org/x/image/draw"
	"golang.org/x/image/font"
)

const (
	// ReferenceHeight is the frame height FontSize is given for.
	ReferenceHeight = 1080
	subtitleWidth   = 0.8
	subtitleTop     = 0.9
	lineSpacing     = 1.2
	gridAlpha       = 30
)

// Painter draws backgrounds and subtitles for one frame size.
type Painter struct {
	Width       int
	Height      int
	GridSpacing int
	FontSize    float64
	font        *Font
	face        font.Face
}

// NewPainter sizes the subtitle font to the frame: fontSize applies at 1080
// lines and scales linearly with height.
func NewPainter(width, height int, f *Font, fontSize float64, gridSpacing int) (*Painter, error) {
	if width <= 0 || height <= 0 {
		return nil, fmt.Errorf("invalid frame size %dx%d", width, height)
	}
	if f == nil {
		f = &Font{}
	}
	if fontSize <= 0 {
		fontSize = 70
	}
	scaled := math.Max(8, fontSize*float64(height)/ReferenceHeight)
	face, err := f.Face(scaled)
	if err != nil {
		return nil, fmt.Errorf("failed to create font face: %w", err)
	}
	return &Painter{
		Width:       width,
		Height:      height,
		GridSpacing: gridSpacing,
		FontSize:    scaled,
		font:        f,
		face:        face,
	}, nil
}

// Background draws a solid colour frame with a faint grid.
func (p *Painter) Background(c color.NRGBA) image.Image {
	dc := gg.NewContext(p.Width, p.Height)
	dc.SetColor(c)
	dc.Clear()
	p.drawGrid(dc, c)
	return dc.Image()
}

// ImageBackground scales src to cover the frame and crops the overflow
// around the centre.
func (p *Painter) ImageBackground(src image.Image) image.Image {
	b := src.Bounds()
	scale := math.Max(float64(p.Width)/float64(b.Dx()), float64(p.Height)/float64(b.Dy()))
	w := int(math.Ceil(float64(b.Dx()) * scale))
	h := int(math.Ceil(float64(b.Dy()) * scale))

	scaled := image.NewRGBA(image.Rect(0, 0, w, h))
	draw.CatmullRom.Scale(scaled, scaled.Bounds(), src, b, draw.Src, nil)

	dc := gg.NewContext(p.Width, p.Height)
	dc.DrawImage(scaled, -(w-p.Width)/2, -(h-p.Height)/2)
	return dc.Image()
}

func (p *Painter) drawGrid(dc *gg.Context, base color.NRGBA) {
	if p.GridSpacing <= 0 {
		return
	}
	line := color.NRGBA{R: lighten(base.R), G: lighten(base.G), B: lighten(base.B), A: gridAlpha}
	dc.SetColor(line)
	dc.SetLineWidth(1)
	for x := 0; x < p.Width; x += p.GridSpacing {
		dc.DrawLine(float64(x)+0.5, 0, float64(x)+0.5, float64(p.Height))
	}
	for y := 0; y < p.Height; y += p.GridSpacing {
		dc.DrawLine(0, float64(y)+0.5, float64(p.Width), float64(y)+0.5)
	}
	dc.Stroke()
}

func lighten(v uint8) uint8 {
	return uint8(int(v) + (255-int(v))/2)
}

// Subtitle draws text onto a transparent frame: white with a dark outline,
// wrapped to 80% of the width and centred. The block starts at 90% of the
// height and moves up as far as needed to stay inside the frame.
func (p *Painter) Subtitle(text string) image.Image {
	dc := gg.NewContext(p.Width, p.Height)
	dc.SetFontFace(p.face)

	lines := WrapText(dc.MeasureString, strings.TrimSpace(text), float64(p.Width)*subtitleWidth)
	metrics := p.face.Metrics()
	ascent := float64(metrics.Ascent.Ceil())
	descent := float64(metrics.Descent.Ceil())
	lineHeight := (ascent + descent) * lineSpacing
	blockHeight := lineHeight*float64(len(lines)-1) + ascent + descent

	margin := float64(p.Height) * 0.02
	top := float64(p.Height) * subtitleTop
	if top+blockHeight > float64(p.Height)-margin {
		top = float64(p.Height) - margin - blockHeight
	}
	if top < 0 {
		top = 0
	}

	outline := math.Max(1, math.Round(p.FontSize/20))
	for i, line := range lines {
		w, _ := dc.MeasureString(line)
		x := (float64(p.Width) - w) / 2
		y := top + ascent + float64(i)*lineHeight

		dc.SetColor(color.NRGBA{A: 200})
		for dy := -outline; dy <= outline; dy++ {
			for dx := -outline; dx <= outline; dx++ {
				if dx != 0 || dy != 0 {
					dc.DrawString(line, x+dx, y+dy)
				}
			}
		}
		dc.SetColor(color.White)
		dc.DrawString(line, x, y)
	}
	return dc.Image()
}

// WrapText breaks text into lines no wider than maxWidth. Words are kept
// whole where they fit; text without spaces, such as Japanese, and words
// wider than a line are broken between runes.
func WrapText(measure func(string) (float64, float64), text string, maxWidth float64) []string {
	width := func(s string) float64 {
		w, _ := measure(s)
		return w
	}
	var lines []string
	for _, paragraph := range strings.Split(text, "\n") {
		var current string
		for _, word := range splitWords(paragraph) {
			candidate := current + word
			if current == "" {
				candidate = strings.TrimLeftFunc(word, unicode.IsSpace)
			}
			if width(candidate) <= maxWidth {
				current = candidate
				continue
			}
			if current != "" {
				lines = append(lines, strings.TrimRightFunc(current, unicode.IsSpace))
			}
			current = ""
			word = strings.TrimLeftFunc(word, unicode.IsSpace)
			if width(word) <= maxWidth {
				current = word
				continue
			}
			for _, r := range word {
				if current != "" && width(current+string(r)) > maxWidth {
					lines = append(lines, current)
					current = ""
				}
				current += string(r)
			}
		}
		lines = append(lines, strings.TrimRightFunc(current, unicode.IsSpace))
	}
	return lines
}

// splitWords keeps leading spaces with the word that follows them.
func splitWords(s string) []string {
	var words []string
	start := 0
	inSpace := true
	for i, r := range s {
		if unicode.IsSpace(r) {
			if !inSpace && i > start {
				words = append(words, s[start:i])
				start = i
			}
			inSpace = true
			continue
		}
		inSpace = false
	}
	if start < len(s) {
		words = append(words, s[start:])
	}
	return words
}

// LoadImage decodes a PNG, JPEG or GIF file.
func LoadImage(path string) (image.Image, error) {
	in, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer in.Close()
	img, _, err := image.Decode(in)
	if err != nil {
		return nil, fmt.Errorf("failed to decode image %s: %w", path, err)
	}
	return img, nil
}

// SavePNG writes img to path, creating the directory.
func SavePNG(path string, img image.Image) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	if err := gg.SavePNG(path, img); err != nil {
		return fmt.Errorf("failed to save %s: %w", path, err)
	}
	return nil
}
