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

package speech

import (
	"context"

	"github.com/jaycherian/gcp-go-story-reel/internal/core/video"
)

// SilentSeconds is the length of each silent clip. The scene encoder loops
// or cuts audio to the scene duration, so any length works.
const SilentSeconds = 1.0

// SilentSynthesizer writes silence instead of speech, for offline runs.
type SilentSynthesizer struct {
	ffmpeg *video.FFmpeg
}

func NewSilentSynthesizer(ffmpeg *video.FFmpeg) *SilentSynthesizer {
	return &SilentSynthesizer{ffmpeg: ffmpeg}
}

func (s *SilentSynthesizer) Name() string {
	return EngineSilent
}

func (s *SilentSynthesizer) Synthesize(ctx context.Context, text string, outPathNoExt string) (string, error) {
	if err := checkText(text); err != nil {
		return "", err
	}
	out := outPathNoExt + ".wav"
	if err := s.ffmpeg.Silence(ctx, SilentSeconds, out); err != nil {
		return "", err
	}
	return out, nil
}
