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
	"fmt"
	"os"
	"path/filepath"
	"strings"

	texttospeech "cloud.google.com/go/texttospeech/apiv1"
	"cloud.google.com/go/texttospeech/apiv1/texttospeechpb"
	"github.com/jaycherian/gcp-go-story-reel/internal/cloud"
	"google.golang.org/api/option"
)

type synthesizeFunc func(ctx context.Context, req *texttospeechpb.SynthesizeSpeechRequest) (*texttospeechpb.SynthesizeSpeechResponse, error)

// GoogleSynthesizer uses Cloud Text-to-Speech and writes MP3.
type GoogleSynthesizer struct {
	client     *texttospeech.Client
	synthesize synthesizeFunc
	settings   cloud.Speech
}

func NewGoogleSynthesizer(ctx context.Context, settings cloud.Speech) (*GoogleSynthesizer, error) {
	var opts []option.ClientOption
	if settings.CredentialsFile != "" {
		opts = append(opts, option.WithCredentialsFile(settings.CredentialsFile))
	}
	client, err := texttospeech.NewClient(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create text-to-speech client: %w", err)
	}
	g := &GoogleSynthesizer{client: client, settings: settings}
	g.synthesize = func(ctx context.Context, req *texttospeechpb.SynthesizeSpeechRequest) (*texttospeechpb.SynthesizeSpeechResponse, error) {
		return client.SynthesizeSpeech(ctx, req)
	}
	return g, nil
}

func (g *GoogleSynthesizer) Name() string {
	return EngineGoogle
}

// Close releases the client.
func (g *GoogleSynthesizer) Close() error {
	if g.client == nil {
		return nil
	}
	return g.client.Close()
}

// Request builds the API request for text.
func (g *GoogleSynthesizer) Request(text string) *texttospeechpb.SynthesizeSpeechRequest {
	rate := g.settings.SpeakingRate
	if rate <= 0 {
		rate = 1.0
	}
	return &texttospeechpb.SynthesizeSpeechRequest{
		Input: &texttospeechpb.SynthesisInput{
			InputSource: &texttospeechpb.SynthesisInput_Text{Text: text},
		},
		Voice: &texttospeechpb.VoiceSelectionParams{
			LanguageCode: LanguageCode(g.settings.Language),
			Name:         g.settings.Voice,
		},
		AudioConfig: &texttospeechpb.AudioConfig{
			AudioEncoding: texttospeechpb.AudioEncoding_MP3,
			SpeakingRate:  rate,
		},
	}
}

func (g *GoogleSynthesizer) Synthesize(ctx context.Context, text string, outPathNoExt string) (string, error) {
	if err := checkText(text); err != nil {
		return "", err
	}
	resp, err := g.synthesize(ctx, g.Request(text))
	if err != nil {
		return "", fmt.Errorf("failed to generate audio: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(outPathNoExt), 0o755); err != nil {
		return "", fmt.Errorf("failed to create audio directory: %w", err)
	}
	out := outPathNoExt + ".mp3"
	if err := os.WriteFile(out, resp.AudioContent, 0o644); err != nil {
		return "", fmt.Errorf("failed to write %s: %w", out, err)
	}
	return out, nil
}

// LanguageCode expands a bare language into the BCP-47 code the API
// expects. Codes with a region pass through.
func LanguageCode(language string) string {
	if language == "" {
		return "ja-JP"
	}
	if strings.Contains(language, "-") {
		return language
	}
	switch strings.ToLower(language) {
	case "ja":
		return "ja-JP"
	case "en":
		return "en-US"
	case "zh":
		return "cmn-CN"
	case "ko":
		return "ko-KR"
	default:
		return language
	}
}
