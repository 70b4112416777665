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
	"os"
	"path/filepath"

	"github.com/jaycherian/gcp-go-story-reel/internal/core/cor"
	"github.com/jaycherian/gcp-go-story-reel/internal/core/model"
	"github.com/jaycherian/gcp-go-story-reel/internal/core/video"
)

// SceneRenderer encodes one scene_{n}.mp4 clip per scene from its painted
// assets and narration.
type SceneRenderer struct {
	cor.BaseCommand
	renderer video.Renderer
}

func NewSceneRenderer(name string, renderer video.Renderer) *SceneRenderer {
	return &SceneRenderer{BaseCommand: *cor.NewBaseCommand(name), renderer: renderer}
}

func (c *SceneRenderer) Execute(context cor.Context) {
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
	workDir, err := workDirFrom(context)
	if err != nil {
		c.Fail(context, err)
		return
	}
	assets := assetsFrom(context)

	clips := make([]string, 0, len(script.Scenes))
	for _, scene := range script.Scenes {
		if !assets.Has(model.BackgroundKey(scene.Number)) {
			c.Fail(context, fmt.Errorf("background asset not found for scene %d", scene.Number))
			return
		}

		audio := assets[model.AudioKey(scene.Number)]
		if audio != "" {
			if _, err := os.Stat(audio); err != nil {
				slog.WarnContext(context.GetContext(), "audio unreadable, rendering scene silent",
					"scene", scene.Number, "path", audio, "error", err)
				audio = ""
			}
		}

		clip := video.SceneClip{
			Background: assets[model.BackgroundKey(scene.Number)],
			Subtitle:   assets[model.SubtitleKey(scene.Number)],
			Audio:      audio,
			Duration:   scene.DurationSeconds,
			Width:      req.Width,
			Height:     req.Height,
			Output:     filepath.Join(workDir, fmt.Sprintf("scene_%d.mp4", scene.Number)),
		}
		if err := c.renderer.RenderScene(context.GetContext(), clip); err != nil {
			c.Fail(context, fmt.Errorf("scene %d: %w", scene.Number, err))
			return
		}
		slog.DebugContext(context.GetContext(), "scene rendered", "scene", scene.Number, "clip", clip.Output)
		clips = append(clips, clip.Output)
	}

	c.Succeed(context)
	context.Add(ClipsParam, clips)
	context.Add(c.GetOutputParam(), clips)
}

// VideoConcatenator joins the scene clips into the requested output file.
type VideoConcatenator struct {
	cor.BaseCommand
	renderer video.Renderer
}

func NewVideoConcatenator(name string, renderer video.Renderer) *VideoConcatenator {
	return &VideoConcatenator{BaseCommand: *cor.NewBaseCommand(name), renderer: renderer}
}

func (c *VideoConcatenator) Execute(context cor.Context) {
	req, err := requestFrom(context)
	if err != nil {
		c.Fail(context, err)
		return
	}
	workDir, err := workDirFrom(context)
	if err != nil {
		c.Fail(context, err)
		return
	}
	clips, ok := context.Get(ClipsParam).([]string)
	if !ok || len(clips) == 0 {
		c.Fail(context, fmt.Errorf("no scene clips to concatenate"))
		return
	}

	if err := c.renderer.Concatenate(context.GetContext(), clips, req.OutputPath, workDir); err != nil {
		// Never leave a half written video behind.
		_ = os.Remove(req.OutputPath)
		c.Fail(context, err)
		return
	}
	slog.InfoContext(context.GetContext(), "video written", "path", req.OutputPath, "clips", len(clips))

	c.Succeed(context)
	context.Add(VideoParam, req.OutputPath)
	context.Add(c.GetOutputParam(), req.OutputPath)
}
