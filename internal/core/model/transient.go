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

package model

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
)

// Frame size limits accepted by the API and CLI.
const (
	DefaultWidth  = 1920
	DefaultHeight = 1080
	MinWidth      = 640
	MaxWidth      = 3840
	MinHeight     = 360
	MaxHeight     = 2160
)

var (
	// ErrEmptyInput is returned when a request carries neither text nor a script.
	ErrEmptyInput = errors.New("input text must not be empty")
	// ErrInvalidRequest wraps every other request validation failure.
	ErrInvalidRequest = errors.New("invalid request")
)

// GenerateRequest asks the pipeline for one video.
type GenerateRequest struct {
	InputText string `json:"input_text"`
	// Backend names the language-model backend; empty means the default one.
	Backend string `json:"backend,omitempty"`
	Width   int    `json:"width,omitempty"`
	Height  int    `json:"height,omitempty"`
	// OutputName is a bare file name created inside the output directory.
	OutputName string `json:"output_name,omitempty"`
	// OutputPath, when set, is used as is and wins over OutputName.
	OutputPath string `json:"-"`
	// ScriptJSON skips the language model and renders this script instead.
	ScriptJSON string `json:"script,omitempty"`
}

// ApplyDefaults fills a zero width or height with the 1080p defaults.
func (r *GenerateRequest) ApplyDefaults() {
	if r.Width == 0 {
		r.Width = DefaultWidth
	}
	if r.Height == 0 {
		r.Height = DefaultHeight
	}
}

// Validate rejects requests that must not start any generation work.
func (r *GenerateRequest) Validate() error {
	if strings.TrimSpace(r.InputText) == "" && strings.TrimSpace(r.ScriptJSON) == "" {
		return ErrEmptyInput
	}
	if r.Width < MinWidth || r.Width > MaxWidth {
		return fmt.Errorf("%w: width %d is outside %d-%d", ErrInvalidRequest, r.Width, MinWidth, MaxWidth)
	}
	if r.Height < MinHeight || r.Height > MaxHeight {
		return fmt.Errorf("%w: height %d is outside %d-%d", ErrInvalidRequest, r.Height, MinHeight, MaxHeight)
	}
	// libx264 with yuv420p needs even dimensions.
	if r.Width%2 != 0 || r.Height%2 != 0 {
		return fmt.Errorf("%w: width and height must be even, got %dx%d", ErrInvalidRequest, r.Width, r.Height)
	}
	if r.OutputName != "" {
		if err := ValidateOutputName(r.OutputName); err != nil {
			return err
		}
	}
	if r.OutputPath != "" && strings.ToLower(filepath.Ext(r.OutputPath)) != ".mp4" {
		return fmt.Errorf("%w: output path %q must end in .mp4", ErrInvalidRequest, r.OutputPath)
	}
	return nil
}

// ValidateOutputName accepts only a plain "*.mp4" file name.
func ValidateOutputName(name string) error {
	if name != filepath.Base(name) || strings.ContainsAny(name, `/\`) || name == ".." || strings.HasPrefix(name, ".") {
		return fmt.Errorf("%w: output name %q must be a plain file name", ErrInvalidRequest, name)
	}
	if strings.ToLower(filepath.Ext(name)) != ".mp4" {
		return fmt.Errorf("%w: output name %q must end in .mp4", ErrInvalidRequest, name)
	}
	return nil
}

// RenderID derives the deterministic identifier of this request.
func (r *GenerateRequest) RenderID() string {
	return NewRenderID(fmt.Sprintf("%s|%s|%s|%dx%d", r.InputText, r.ScriptJSON, r.Backend, r.Width, r.Height))
}

// NewRenderID returns a UUIDv5 of input in the URL namespace.
func NewRenderID(input string) string {
	return uuid.NewSHA1(uuid.NameSpaceURL, []byte(input)).String()
}

// Asset keys, one set per scene number.
func BackgroundKey(scene int) string { return fmt.Sprintf("bg_%d", scene) }
func SubtitleKey(scene int) string   { return fmt.Sprintf("subtitle_%d", scene) }
func AudioKey(scene int) string      { return fmt.Sprintf("audio_%d", scene) }

// BackgroundSourceKey points at a downloaded copy of a remote background image.
func BackgroundSourceKey(scene int) string { return fmt.Sprintf("bg_src_%d", scene) }

// AssetSet maps asset keys to files on disk.
type AssetSet map[string]string

// Has reports whether key is present.
func (a AssetSet) Has(key string) bool {
	_, ok := a[key]
	return ok
}

// RenderResult describes a finished video.
type RenderResult struct {
	ID             string  `json:"id"`
	OutputPath     string  `json:"video_path"`
	FileName       string  `json:"file_name"`
	Backend        string  `json:"backend"`
	Script         *Script `json:"script"`
	ProbedDuration float64 `json:"duration_seconds"`
	RemoteURL      string  `json:"video_url,omitempty"`
}
