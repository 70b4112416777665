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

package commands

import (
	"fmt"
	"log/slog"
	"path/filepath"

	"github.com/jaycherian/gcp-go-story-reel/internal/core/cor"
	"github.com/jaycherian/gcp-go-story-reel/internal/core/model"
	"github.com/jaycherian/gcp-go-story-reel/internal/core/speech"
)

// SpeechSynthesizer voices every scene's narration into
// audio_scene_{n}.<ext> inside the working directory.
type SpeechSynthesizer struct {
	cor.BaseCommand
	synthesizer speech.Synthesizer
	allowSilent bool
}

// NewSpeechSynthesizer builds the step. With allowSilent a failed scene is
// logged and rendered without narration instead of failing the render.
func NewSpeechSynthesizer(name string, synthesizer speech.Synthesizer, allowSilent bool) *SpeechSynthesizer {
	return &SpeechSynthesizer{
		BaseCommand: *cor.NewBaseCommand(name),
		synthesizer: synthesizer,
		allowSilent: allowSilent,
	}
}

func (s *SpeechSynthesizer) Execute(context cor.Context) {
	script, err := scriptFrom(context)
	if err != nil {
		s.Fail(context, err)
		return
	}
	workDir, err := workDirFrom(context)
	if err != nil {
		s.Fail(context, err)
		return
	}
	assets := assetsFrom(context)

	for _, scene := range script.Scenes {
		if err := context.GetContext().Err(); err != nil {
			s.Fail(context, err)
			return
		}
		out := filepath.Join(workDir, fmt.Sprintf("audio_scene_%d", scene.Number))
		path, err := s.synthesizer.Synthesize(context.GetContext(), scene.Narration, out)
		if err != nil {
			if s.allowSilent && context.GetContext().Err() == nil {
				slog.WarnContext(context.GetContext(), "speech failed, scene will be silent",
					"scene", scene.Number, "engine", s.synthesizer.Name(), "error", err)
				continue
			}
			s.Fail(context, fmt.Errorf("scene %d: %s speech failed: %w", scene.Number, s.synthesizer.Name(), err))
			return
		}
		assets[model.AudioKey(scene.Number)] = path
	}

	s.Succeed(context)
	context.Add(s.GetOutputParam(), script)
}
