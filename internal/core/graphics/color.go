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

// Package graphics draws the still images of a scene: the background and the
// subtitle overlay that the encoder composites on top of it.
package graphics

import (
	"encoding/hex"
	"fmt"
	"image/color"
	"math"
	"strings"
)

// Palette parameters for scenes without a usable colour.
const (
	GoldenAngle      = 137.5
	PaletteLightness = 0.3
	PaletteSat       = 0.6
)

// ParseHexColor accepts "#rrggbb" or "rrggbb".
func ParseHexColor(s string) (color.NRGBA, error) {
	h := strings.TrimPrefix(strings.TrimSpace(s), "#")
	if len(h) != 6 {
		return color.NRGBA{}, fmt.Errorf("invalid hex color: %q", s)
	}
	raw, err := hex.DecodeString(h)
	if err != nil {
		return color.NRGBA{}, fmt.Errorf("invalid hex color: %q", s)
	}
	return color.NRGBA{R: raw[0], G: raw[1], B: raw[2], A: 255}, nil
}

// SceneColor returns the palette colour for scene n: hues a golden angle
// apart so neighbouring scenes never look alike.
func SceneColor(n int) color.NRGBA {
	hue := math.Mod(float64(n)*GoldenAngle, 360) / 360
	r, g, b := hlsToRGB(hue, PaletteLightness, PaletteSat)
	return color.NRGBA{R: uint8(r * 255), G: uint8(g * 255), B: uint8(b * 255), A: 255}
}

// ResolveColor parses ref as a hex colour and otherwise falls back to the
// palette colour of scene n. Descriptions such as "a stormy sea" land here.
func ResolveColor(ref string, n int) color.NRGBA {
	if c, err := ParseHexColor(ref); err == nil {
		return c
	}
	return SceneColor(n)
}

func hlsToRGB(h, l, s float64) (float64, float64, float64) {
	if s == 0 {
		return l, l, l
	}
	var m2 float64
	if l <= 0.5 {
		m2 = l * (1 + s)
	} else {
		m2 = l + s - l*s
	}
	m1 := 2*l - m2
	return hueToRGB(m1, m2, h+1.0/3), hueToRGB(m1, m2, h), hueToRGB(m1, m2, h-1.0/3)
}

func hueToRGB(m1, m2, hue float64) float64 {
	hue = math.Mod(hue, 1)
	if hue < 0 {
		hue++
	}
	switch {
	case hue < 1.0/6:
		return m1 + (m2-m1)*hue*6
	case hue < 0.5:
		return m2
	case hue < 2.0/3:
		return m1 + (m2-m1)*(2.0/3-hue)*6
	default:
		return m1
	}
}
