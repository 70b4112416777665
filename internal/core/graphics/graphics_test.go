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

package graphics_test

import (
	"image"
	"image/color"
	"path/filepath"
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/jaycherian/gcp-go-story-reel/internal/core/graphics"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseHexColor(t *testing.T) {
	c, err := graphics.ParseHexColor("#1a1a2e")
	require.NoError(t, err)
	assert.Equal(t, color.NRGBA{R: 0x1a, G: 0x1a, B: 0x2e, A: 255}, c)

	c, err = graphics.ParseHexColor("FF8000")
	require.NoError(t, err)
	assert.Equal(t, uint8(0xff), c.R)

	for _, bad := range []string{"", "#fff", "#12345g", "navy blue", "#1234567"} {
		_, err := graphics.ParseHexColor(bad)
		assert.Error(t, err, bad)
	}
}

func TestSceneColorGoldenAngle(t *testing.T) {
	assert.Equal(t, color.NRGBA{R: 30, G: 122, B: 57, A: 255}, graphics.SceneColor(1))
	assert.NotEqual(t, graphics.SceneColor(1), graphics.SceneColor(2))
	assert.Equal(t, graphics.SceneColor(3), graphics.ResolveColor("a stormy sea", 3))
	assert.Equal(t, color.NRGBA{R: 1, G: 2, B: 3, A: 255}, graphics.ResolveColor("#010203", 3))
}

func fixedWidth(s string) (float64, float64) {
	return float64(utf8.RuneCountInString(s)) * 10, 10
}

func TestWrapTextWords(t *testing.T) {
	lines := graphics.WrapText(fixedWidth, "the quick brown fox jumps", 100)
	assert.Equal(t, []string{"the quick", "brown fox", "jumps"}, lines)
	for _, l := range lines {
		w, _ := fixedWidth(l)
		assert.LessOrEqual(t, w, 100.0)
	}
}

func TestWrapTextBreaksRunes(t *testing.T) {
	lines := graphics.WrapText(fixedWidth, "今日はとても良い天気ですね。", 50)
	assert.Equal(t, []string{"今日はとて", "も良い天気", "ですね。"}, lines)

	lines = graphics.WrapText(fixedWidth, "a supercalifragilistic b", 60)
	assert.Equal(t, "a", lines[0])
	assert.Equal(t, "asupercalifragilisticb", strings.ReplaceAll(strings.Join(lines, ""), " ", ""))
	for _, l := range lines {
		w, _ := fixedWidth(l)
		assert.LessOrEqual(t, w, 60.0, l)
	}
}

func TestBackgroundColorAndGrid(t *testing.T) {
	p, err := graphics.NewPainter(200, 120, nil, 70, 50)
	require.NoError(t, err)
	base := color.NRGBA{R: 0x1a, G: 0x1a, B: 0x2e, A: 255}
	img := p.Background(base)

	assert.Equal(t, image.Rect(0, 0, 200, 120), img.Bounds())
	r, g, b, _ := img.At(25, 25).RGBA()
	assert.Equal(t, [3]uint32{0x1a, 0x1a, 0x2e}, [3]uint32{r >> 8, g >> 8, b >> 8})
	gr, _, _, _ := img.At(50, 25).RGBA()
	assert.Greater(t, gr>>8, uint32(0x1a))
}

func TestImageBackgroundCovers(t *testing.T) {
	p, err := graphics.NewPainter(160, 90, nil, 70, 0)
	require.NoError(t, err)
	src := image.NewRGBA(image.Rect(0, 0, 40, 40))
	for y := 0; y < 40; y++ {
		for x := 0; x < 40; x++ {
			src.Set(x, y, color.RGBA{R: 200, G: 200, B: 200, A: 255})
		}
	}
	img := p.ImageBackground(src)
	assert.Equal(t, image.Rect(0, 0, 160, 90), img.Bounds())
	for _, pt := range []image.Point{{0, 0}, {159, 89}, {80, 45}} {
		_, _, _, a := img.At(pt.X, pt.Y).RGBA()
		assert.Equal(t, uint32(0xffff), a, "%v", pt)
	}
}

func TestSubtitleSitsNearBottom(t *testing.T) {
	p, err := graphics.NewPainter(640, 360, nil, 70, 0)
	require.NoError(t, err)
	img := p.Subtitle("Hello there")

	opaqueTop, opaqueBottom := -1, -1
	b := img.Bounds()
	for y := b.Min.Y; y < b.Max.Y; y++ {
		for x := b.Min.X; x < b.Max.X; x++ {
			if _, _, _, a := img.At(x, y).RGBA(); a > 0 {
				if opaqueTop < 0 {
					opaqueTop = y
				}
				opaqueBottom = y
			}
		}
	}
	require.GreaterOrEqual(t, opaqueTop, 0, "subtitle drew nothing")
	assert.Greater(t, opaqueTop, 360/2)
	assert.Less(t, opaqueBottom, 360)
	_, _, _, a := img.At(5, 5).RGBA()
	assert.Equal(t, uint32(0), a)
}

func TestSubtitleLongTextStaysInFrame(t *testing.T) {
	p, err := graphics.NewPainter(640, 360, nil, 70, 0)
	require.NoError(t, err)
	img := p.Subtitle(strings.Repeat("many words here ", 30))
	_, _, _, a := img.At(320, 359).RGBA()
	assert.Equal(t, uint32(0), a)
}

func TestFonts(t *testing.T) {
	_, err := graphics.FindFont(filepath.Join(t.TempDir(), "missing.ttf"))
	assert.Error(t, err)

	f, err := graphics.LoadFont("")
	require.NoError(t, err)
	assert.True(t, f.Builtin())
	face, err := f.Face(40)
	require.NoError(t, err)
	assert.NotNil(t, face)

	assert.Contains(t, graphics.FontCandidates("linux"), "/usr/share/fonts/truetype/dejavu/DejaVuSans.ttf")
	assert.Contains(t, graphics.FontCandidates("windows"), `C:\Windows\Fonts\msgothic.ttc`)
}

func TestLoadFontRejectsGarbage(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.ttf")
	require.NoError(t, graphics.SavePNG(path, image.NewRGBA(image.Rect(0, 0, 1, 1))))
	_, err := graphics.LoadFont(path)
	assert.Error(t, err)
}

func TestSavePNGAndLoadImage(t *testing.T) {
	p, err := graphics.NewPainter(64, 36, nil, 70, 10)
	require.NoError(t, err)
	path := filepath.Join(t.TempDir(), "nested", "bg_scene_1.png")
	require.NoError(t, graphics.SavePNG(path, p.Background(graphics.SceneColor(1))))

	img, err := graphics.LoadImage(path)
	require.NoError(t, err)
	assert.Equal(t, 64, img.Bounds().Dx())
}

func TestNewPainterRejectsBadSize(t *testing.T) {
	_, err := graphics.NewPainter(0, 360, nil, 70, 50)
	assert.Error(t, err)
}
