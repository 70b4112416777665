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
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strings"

	"github.com/golang/freetype/truetype"
	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/font/opentype"
)

// fontCandidates are tried in order when no font is configured.
var fontCandidates = map[string][]string{
	"darwin": {
		"/System/Library/Fonts/Helvetica.ttc",
		"/Library/Fonts/Arial Unicode.ttf",
		"/System/Library/Fonts/Supplemental/Arial Unicode.ttf",
	},
	"linux": {
		"/usr/share/fonts/truetype/dejavu/DejaVuSans.ttf",
		"/usr/share/fonts/dejavu/DejaVuSans.ttf",
		"/usr/share/fonts/truetype/liberation/LiberationSans-Regular.ttf",
		"/usr/share/fonts/liberation/LiberationSans-Regular.ttf",
	},
	"windows": {
		`C:\Windows\Fonts\msgothic.ttc`,
		`C:\Windows\Fonts\meiryo.ttc`,
	},
}

// FontCandidates lists the auto-detected font paths for goos.
func FontCandidates(goos string) []string {
	return fontCandidates[goos]
}

// FindFont returns explicit when it is set, failing if it does not exist.
// Otherwise it returns the first installed candidate for this OS, or "" when
// there is none.
func FindFont(explicit string) (string, error) {
	if explicit != "" {
		if _, err := os.Stat(explicit); err != nil {
			return "", fmt.Errorf("font file %s: %w", explicit, err)
		}
		return explicit, nil
	}
	for _, candidate := range FontCandidates(runtime.GOOS) {
		if _, err := os.Stat(candidate); err == nil {
			return candidate, nil
		}
	}
	return "", nil
}

// Font is a parsed font file that can produce faces at any size. The zero
// Font (no path) produces the built-in fixed size face.
type Font struct {
	Path     string
	truetype *truetype.Font
	sfnt     *opentype.Font
}

// LoadFont parses a .ttf, .otf or .ttc file; for collections the first face
// is used. An empty path gives the built-in face.
func LoadFont(path string) (*Font, error) {
	if path == "" {
		return &Font{}, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read font file: %w", err)
	}

	f := &Font{Path: path}
	switch strings.ToLower(filepath.Ext(path)) {
	case ".ttc", ".otc":
		collection, err := opentype.ParseCollection(data)
		if err != nil {
			return nil, fmt.Errorf("failed to parse font collection %s: %w", path, err)
		}
		if collection.NumFonts() == 0 {
			return nil, fmt.Errorf("font collection %s is empty", path)
		}
		if f.sfnt, err = collection.Font(0); err != nil {
			return nil, fmt.Errorf("failed to read font collection %s: %w", path, err)
		}
	case ".otf":
		if f.sfnt, err = opentype.Parse(data); err != nil {
			return nil, fmt.Errorf("failed to parse OTF %s: %w", path, err)
		}
	default:
		if f.truetype, err = truetype.Parse(data); err != nil {
			// CFF outlines in a .ttf are only understood by sfnt.
			var sfntErr error
			if f.sfnt, sfntErr = opentype.Parse(data); sfntErr != nil {
				return nil, fmt.Errorf("failed to parse TTF %s: %w", path, errors.Join(err, sfntErr))
			}
		}
	}
	return f, nil
}

// Builtin reports whether f falls back to the fixed size face.
func (f *Font) Builtin() bool {
	return f.truetype == nil && f.sfnt == nil
}

// Face returns a face of size points at 72 DPI.
func (f *Font) Face(size float64) (font.Face, error) {
	switch {
	case f.truetype != nil:
		return truetype.NewFace(f.truetype, &truetype.Options{
			Size:    size,
			DPI:     72,
			Hinting: font.HintingNone,
		}), nil
	case f.sfnt != nil:
		return opentype.NewFace(f.sfnt, &opentype.FaceOptions{
			Size:    size,
			DPI:     72,
			Hinting: font.HintingNone,
		})
	default:
		return basicfont.Face7x13, nil
	}
}
