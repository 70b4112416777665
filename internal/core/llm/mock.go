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

package llm

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"strings"
	"unicode/utf8"
)

const (
	mockMaxScenes   = 5
	mockTitleLength = 30
	mockFallback    = "Generated Video"
)

// MockBackend builds a script without calling any model: one scene per
// sentence, at most five, with a duration that grows with sentence length.
type MockBackend struct{}

func NewMockBackend() *MockBackend {
	return &MockBackend{}
}

func (m *MockBackend) Name() string {
	return MockBackendName
}

type mockScene struct {
	SceneNumber     int     `json:"scene_number"`
	Dialogue        string  `json:"dialogue"`
	DisplayText     string  `json:"display_text"`
	DurationSeconds float64 `json:"duration_seconds"`
	BackgroundColor string  `json:"background_color"`
}

type mockScript struct {
	Title                string      `json:"title"`
	Scenes               []mockScene `json:"scenes"`
	TotalDurationSeconds float64     `json:"total_duration_seconds"`
}

// GenerateScript ignores the system prompt.
func (m *MockBackend) GenerateScript(ctx context.Context, _ string, input string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	sentences := SplitSentences(input)

	script := mockScript{Title: mockFallback, Scenes: []mockScene{}}
	if len(sentences) > 0 {
		script.Title = truncateRunes(sentences[0], mockTitleLength)
	}
	if len(sentences) > mockMaxScenes {
		sentences = sentences[:mockMaxScenes]
	}
	for i, sentence := range sentences {
		n := i + 1
		scene := mockScene{
			SceneNumber:     n,
			Dialogue:        sentence,
			DisplayText:     sentence,
			DurationSeconds: math.Max(2.0, float64(utf8.RuneCountInString(sentence))*0.1),
			BackgroundColor: fmt.Sprintf("#%02x%02x%02x", n*30%255, n*50%255, n*70%255),
		}
		script.Scenes = append(script.Scenes, scene)
		script.TotalDurationSeconds += scene.DurationSeconds
	}

	out, err := json.MarshalIndent(script, "", "  ")
	if err != nil {
		return "", err
	}
	return string(out), nil
}

// SplitSentences breaks text after every '.' and '。', keeping the delimiter,
// and drops empty pieces.
func SplitSentences(text string) []string {
	var out []string
	var current strings.Builder
	flush := func() {
		if s := strings.TrimSpace(current.String()); s != "" {
			out = append(out, s)
		}
		current.Reset()
	}
	for _, r := range text {
		// Line breaks also end a sentence.
		if r == '\n' {
			flush()
			continue
		}
		current.WriteRune(r)
		if r == '.' || r == '。' {
			flush()
		}
	}
	flush()
	return out
}

func truncateRunes(s string, n int) string {
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	return string([]rune(s)[:n])
}
