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

// Package speech turns scene narration into audio files.
package speech

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/h2non/filetype"
	"github.com/jaycherian/gcp-go-story-reel/internal/cloud"
	"github.com/jaycherian/gcp-go-story-reel/internal/core/video"
)

// Engine names accepted in speech.engine.
const (
	EngineCommand = "command"
	EngineGoogle  = "google"
	EngineSilent  = "silent"
)

// ErrEmptyText is returned for blank narration.
var ErrEmptyText = errors.New("text must not be empty for audio generation")

// Synthesizer writes speech for text next to outPathNoExt and returns the
// path of the file it created, whose extension matches the audio format.
type Synthesizer interface {
	Name() string
	Synthesize(ctx context.Context, text string, outPathNoExt string) (string, error)
}

// New builds the synthesizer selected by settings.Engine.
func New(ctx context.Context, settings cloud.Speech, ffmpeg *video.FFmpeg) (Synthesizer, error) {
	switch settings.Engine {
	case EngineCommand:
		return NewCommandSynthesizer(settings.Command, settings.Language, settings.Voice)
	case EngineGoogle:
		return NewGoogleSynthesizer(ctx, settings)
	case EngineSilent, "":
		return NewSilentSynthesizer(ffmpeg), nil
	default:
		return nil, fmt.Errorf("unknown speech engine %q", settings.Engine)
	}
}

func checkText(text string) error {
	if strings.TrimSpace(text) == "" {
		return ErrEmptyText
	}
	return nil
}

// fixExtension sniffs the audio format of path and renames it to
// outPathNoExt plus the matching extension.
func fixExtension(path string, outPathNoExt string) (string, error) {
	kind, err := filetype.MatchFile(path)
	if err != nil {
		return "", fmt.Errorf("failed to read audio file %s: %w", path, err)
	}
	if kind == filetype.Unknown || !strings.HasPrefix(kind.MIME.Type, "audio") {
		return "", fmt.Errorf("%s is not a recognized audio file (%s)", filepath.Base(path), kind.MIME.Value)
	}
	target := outPathNoExt + "." + kind.Extension
	if target == path {
		return path, nil
	}
	if err := os.Rename(path, target); err != nil {
		return "", fmt.Errorf("failed to rename %s: %w", path, err)
	}
	return target, nil
}
