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
	"math"
	"path/filepath"

	"github.com/jaycherian/gcp-go-story-reel/internal/core/cor"
	"github.com/jaycherian/gcp-go-story-reel/internal/core/model"
	"github.com/jaycherian/gcp-go-story-reel/internal/core/video"
)

// VideoProbe measures the finished video and builds the *model.RenderResult.
// A duration far from the script total is logged, not rejected.
type VideoProbe struct {
	cor.BaseCommand
	renderer  video.Renderer
	tolerance float64
}

func NewVideoProbe(name string, renderer video.Renderer, tolerance float64) *VideoProbe {
	return &VideoProbe{BaseCommand: *cor.NewBaseCommand(name), renderer: renderer, tolerance: tolerance}
}

func (c *VideoProbe) Execute(context cor.Context) {
	req, err := requestFrom(context)
	if err != nil {
		c.Fail(context, err)
		return
	}
	script, err := scriptFrom(context)
	if err != nil {
		c.Fail(context, err)
		return
	}
	path, ok := context.Get(VideoParam).(string)
	if !ok || path == "" {
		c.Fail(context, fmt.Errorf("no video to probe"))
		return
	}

	duration, err := c.renderer.Probe(context.GetContext(), path)
	if err != nil {
		c.Fail(context, err)
		return
	}
	if c.tolerance > 0 && math.Abs(duration-script.TotalDurationSeconds) > c.tolerance {
		slog.WarnContext(context.GetContext(), "video duration differs from script",
			"probed_seconds", duration,
			"script_seconds", script.TotalDurationSeconds,
			"tolerance_seconds", c.tolerance)
	}

	backend, _ := context.Get(BackendParam).(string)
	result := &model.RenderResult{
		ID:             req.RenderID(),
		OutputPath:     path,
		FileName:       filepath.Base(path),
		Backend:        backend,
		Script:         script,
		ProbedDuration: duration,
	}

	c.Succeed(context)
	context.Add(ResultParam, result)
	context.Add(c.GetOutputParam(), result)
}
