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

// Package model holds the data types that flow through the reel pipeline: the
// scene script produced by a language model, the request that asks for a
// video, and the assets and result produced while rendering it.
package model

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math"
	"strings"
)

// DurationTolerance is the largest accepted gap, in seconds, between a
// declared script total and the sum of its scene durations.
const DurationTolerance = 0.1

// Scene is one segment of the video.
type Scene struct {
	Number          int     `json:"scene_number" yaml:"scene_number"`
	Narration       string  `json:"dialogue" yaml:"dialogue"`
	DisplayText     string  `json:"display_text" yaml:"display_text"`
	DurationSeconds float64 `json:"duration_seconds" yaml:"duration_seconds"`
	// BackgroundColor is either a "#rrggbb" colour or a free-form description.
	BackgroundColor string `json:"background_color,omitempty" yaml:"background_color,omitempty"`
	// BackgroundImage is a local path or http(s) URL.
	BackgroundImage string `json:"background_image,omitempty" yaml:"background_image,omitempty"`
}

// BackgroundReference returns whatever identifies the scene's background,
// preferring an image over a colour.
func (s Scene) BackgroundReference() string {
	if strings.TrimSpace(s.BackgroundImage) != "" {
		return s.BackgroundImage
	}
	return s.BackgroundColor
}

// Script is the validated, ordered plan of scenes for one video. Once built by
// ParseScript or NewScript it must be treated as read-only.
type Script struct {
	Title                string  `json:"title" yaml:"title"`
	Scenes               []Scene `json:"scenes" yaml:"scenes"`
	TotalDurationSeconds float64 `json:"total_duration_seconds" yaml:"total_duration_seconds"`
}

// TotalDuration sums the scene durations.
func (s *Script) TotalDuration() float64 {
	total := 0.0
	for _, scene := range s.Scenes {
		total += scene.DurationSeconds
	}
	return total
}

// Validate checks every invariant of a Script and reports all violations at once.
func (s *Script) Validate() error {
	if s == nil {
		return &ValidationError{Problems: []string{"script is nil"}}
	}
	v := &ValidationError{}
	if strings.TrimSpace(s.Title) == "" {
		v.add("title is required")
	}
	if len(s.Scenes) == 0 {
		v.add("scenes must contain at least one scene")
	}
	seen := make(map[int]int, len(s.Scenes))
	for i, scene := range s.Scenes {
		validateScene(v, i, scene)
		if scene.Number <= 0 {
			continue
		}
		if first, dup := seen[scene.Number]; dup {
			v.add(fmt.Sprintf("scenes[%d]: scene_number %d already used by scenes[%d]", i, scene.Number, first))
		} else {
			seen[scene.Number] = i
		}
	}
	if s.TotalDurationSeconds != 0 && math.Abs(s.TotalDurationSeconds-s.TotalDuration()) >= DurationTolerance {
		v.add(fmt.Sprintf("total_duration_seconds %.2f does not match the scene sum %.2f", s.TotalDurationSeconds, s.TotalDuration()))
	}
	return v.orNil()
}

func validateScene(v *ValidationError, i int, scene Scene) {
	if scene.Number < 0 {
		v.add(fmt.Sprintf("scenes[%d]: scene_number must be positive", i))
	}
	if strings.TrimSpace(scene.Narration) == "" {
		v.add(fmt.Sprintf("scenes[%d]: dialogue is required", i))
	}
	if strings.TrimSpace(scene.DisplayText) == "" {
		v.add(fmt.Sprintf("scenes[%d]: display_text is required", i))
	}
	if math.IsNaN(scene.DurationSeconds) || math.IsInf(scene.DurationSeconds, 0) || scene.DurationSeconds <= 0 {
		v.add(fmt.Sprintf("scenes[%d]: duration_seconds must be greater than zero", i))
	}
	color := strings.TrimSpace(scene.BackgroundColor)
	if color == "" && strings.TrimSpace(scene.BackgroundImage) == "" {
		v.add(fmt.Sprintf("scenes[%d]: a background_color or background_image is required", i))
	}
	if strings.HasPrefix(color, "#") && !IsHexColor(color) {
		v.add(fmt.Sprintf("scenes[%d]: background_color %q is not a #rrggbb colour", i, color))
	}
}

// IsHexColor reports whether s is six hex digits with an optional leading '#'.
func IsHexColor(s string) bool {
	s = strings.TrimPrefix(strings.TrimSpace(s), "#")
	if len(s) != 6 {
		return false
	}
	for _, r := range s {
		switch {
		case r >= '0' && r <= '9', r >= 'a' && r <= 'f', r >= 'A' && r <= 'F':
		default:
			return false
		}
	}
	return true
}

// NewScript validates the given scenes and returns a Script whose scene
// numbers and total are filled in.
func NewScript(title string, scenes []Scene) (*Script, error) {
	s := &Script{Title: title, Scenes: append([]Scene(nil), scenes...)}
	if err := s.Validate(); err != nil {
		return nil, err
	}
	s.finalize()
	return s, nil
}

func (s *Script) finalize() {
	for i := range s.Scenes {
		if s.Scenes[i].Number == 0 {
			s.Scenes[i].Number = i + 1
		}
		s.Scenes[i].Narration = strings.TrimSpace(s.Scenes[i].Narration)
		s.Scenes[i].DisplayText = strings.TrimSpace(s.Scenes[i].DisplayText)
		s.Scenes[i].BackgroundColor = strings.TrimSpace(s.Scenes[i].BackgroundColor)
		s.Scenes[i].BackgroundImage = strings.TrimSpace(s.Scenes[i].BackgroundImage)
	}
	s.Title = strings.TrimSpace(s.Title)
	s.TotalDurationSeconds = s.TotalDuration()
}

// rawScene and rawScript mirror the wire format with pointer fields so that a
// missing field can be told apart from a zero value.
type rawScene struct {
	Number             *int     `json:"scene_number"`
	Dialogue           *string  `json:"dialogue"`
	DisplayText        *string  `json:"display_text"`
	DurationSeconds    *float64 `json:"duration_seconds"`
	BackgroundColor    *string  `json:"background_color"`
	BackgroundImage    *string  `json:"background_image"`
	BackgroundImageURL *string  `json:"background_image_url"`
}

type rawScript struct {
	Title                *string     `json:"title"`
	Scenes               *[]rawScene `json:"scenes"`
	TotalDurationSeconds *float64    `json:"total_duration_seconds"`
}

// StripCodeFence removes a surrounding markdown code fence such as ```json.
func StripCodeFence(in string) string {
	out := strings.TrimSpace(in)
	if strings.HasPrefix(out, "```") {
		out = strings.TrimPrefix(out, "```")
		if nl := strings.IndexByte(out, '\n'); nl >= 0 && !strings.ContainsAny(out[:nl], "{[") {
			out = out[nl+1:]
		} else {
			out = strings.TrimPrefix(out, "json")
		}
	}
	out = strings.TrimSuffix(strings.TrimSpace(out), "```")
	return strings.TrimSpace(out)
}

// ParseScript decodes a language-model response into a Script. Any shape
// mismatch returns a *ValidationError and a nil Script.
func ParseScript(raw string) (*Script, error) {
	body := StripCodeFence(raw)
	if body == "" {
		return nil, &ValidationError{Problems: []string{"response is empty"}}
	}

	dec := json.NewDecoder(bytes.NewReader([]byte(body)))
	var in rawScript
	if err := dec.Decode(&in); err != nil {
		return nil, &ValidationError{Problems: []string{fmt.Sprintf("malformed JSON: %v", err)}, cause: err}
	}
	if _, err := dec.Token(); !errors.Is(err, io.EOF) {
		return nil, &ValidationError{Problems: []string{"unexpected data after the JSON object"}}
	}

	v := &ValidationError{}
	if in.Title == nil {
		v.add("title is missing")
	}
	if in.Scenes == nil {
		v.add("scenes is missing")
	}
	script := &Script{}
	if in.Title != nil {
		script.Title = *in.Title
	}
	if in.TotalDurationSeconds != nil {
		script.TotalDurationSeconds = *in.TotalDurationSeconds
	}
	if in.Scenes != nil {
		for i, rs := range *in.Scenes {
			script.Scenes = append(script.Scenes, rs.toScene(v, i))
		}
	}
	if err := script.Validate(); err != nil {
		var more *ValidationError
		if errors.As(err, &more) {
			v.Problems = append(v.Problems, more.Problems...)
		}
	}
	if err := v.orNil(); err != nil {
		return nil, err
	}
	script.finalize()
	return script, nil
}

func (rs rawScene) toScene(v *ValidationError, i int) Scene {
	scene := Scene{}
	if rs.Number != nil {
		if *rs.Number <= 0 {
			v.add(fmt.Sprintf("scenes[%d]: scene_number must be positive", i))
		} else {
			scene.Number = *rs.Number
		}
	}
	if rs.Dialogue == nil {
		v.add(fmt.Sprintf("scenes[%d]: dialogue is missing", i))
	} else {
		scene.Narration = *rs.Dialogue
	}
	if rs.DisplayText == nil {
		v.add(fmt.Sprintf("scenes[%d]: display_text is missing", i))
	} else {
		scene.DisplayText = *rs.DisplayText
	}
	if rs.DurationSeconds == nil {
		v.add(fmt.Sprintf("scenes[%d]: duration_seconds is missing", i))
	} else {
		scene.DurationSeconds = *rs.DurationSeconds
	}
	if rs.BackgroundColor != nil {
		scene.BackgroundColor = *rs.BackgroundColor
	}
	switch {
	case rs.BackgroundImage != nil:
		scene.BackgroundImage = *rs.BackgroundImage
	case rs.BackgroundImageURL != nil:
		scene.BackgroundImage = *rs.BackgroundImageURL
	}
	return scene
}

// ValidationError lists every reason a script was rejected.
type ValidationError struct {
	Problems []string
	cause    error
}

func (e *ValidationError) Error() string {
	return "invalid script: " + strings.Join(dedupe(e.Problems), "; ")
}

func (e *ValidationError) Unwrap() error {
	return e.cause
}

func (e *ValidationError) add(problem string) {
	e.Problems = append(e.Problems, problem)
}

func (e *ValidationError) orNil() error {
	if len(e.Problems) == 0 {
		return nil
	}
	e.Problems = dedupe(e.Problems)
	return e
}

func dedupe(in []string) []string {
	seen := make(map[string]bool, len(in))
	out := make([]string, 0, len(in))
	for _, p := range in {
		if !seen[p] {
			seen[p] = true
			out = append(out, p)
		}
	}
	return out
}
