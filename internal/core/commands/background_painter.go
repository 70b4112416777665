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
	"image"
	"path/filepath"

	"github.com/jaycherian/gcp-go-story-reel/internal/core/cor"
	"github.com/jaycherian/gcp-go-story-reel/internal/core/graphics"
	"github.com/jaycherian/gcp-go-story-reel/internal/core/model"
)

// BackgroundPainter draws bg_scene_{n}.png and subtitle_scene_{n}.png for
// every scene at the requested frame size.
type BackgroundPainter struct {
	cor.BaseCommand
	font        *graphics.Font
	fontSize    float64
	gridSpacing int
}

func NewBackgroundPainter(name string, font *graphics.Font, fontSize float64, gridSpacing int) *BackgroundPainter {
	return &BackgroundPainter{
		BaseCommand: *cor.NewBaseCommand(name),
		font:        font,
		fontSize:    fontSize,
		gridSpacing: gridSpacing,
	}
}

func (p *BackgroundPainter) Execute(context cor.Context) {
	req, err := requestFrom(context)
	if err != nil {
		p.Fail(context, err)
		return
	}
	script, err := scriptFrom(context)
	if err != nil {
		p.Fail(context, err)
		return
	}
	workDir, err := workDirFrom(context)
	if err != nil {
		p.Fail(context, err)
		return
	}
	painter, err := graphics.NewPainter(req.Width, req.Height, p.font, p.fontSize, p.gridSpacing)
	if err != nil {
		p.Fail(context, err)
		return
	}
	assets := assetsFrom(context)

	for _, scene := range script.Scenes {
		if err := context.GetContext().Err(); err != nil {
			p.Fail(context, err)
			return
		}

		background, err := p.background(painter, assets, scene)
		if err != nil {
			p.Fail(context, fmt.Errorf("scene %d: %w", scene.Number, err))
			return
		}
		bgPath := filepath.Join(workDir, fmt.Sprintf("bg_scene_%d.png", scene.Number))
		if err := graphics.SavePNG(bgPath, background); err != nil {
			p.Fail(context, err)
			return
		}
		assets[model.BackgroundKey(scene.Number)] = bgPath

		subPath := filepath.Join(workDir, fmt.Sprintf("subtitle_scene_%d.png", scene.Number))
		if err := graphics.SavePNG(subPath, painter.Subtitle(scene.DisplayText)); err != nil {
			p.Fail(context, err)
			return
		}
		assets[model.SubtitleKey(scene.Number)] = subPath
	}

	p.Succeed(context)
	context.Add(p.GetOutputParam(), assets)
}

// background prefers the scene image, downloaded or local, over its colour.
func (p *BackgroundPainter) background(painter *graphics.Painter, assets model.AssetSet, scene model.Scene) (image.Image, error) {
	source := assets[model.BackgroundSourceKey(scene.Number)]
	if source == "" && scene.BackgroundImage != "" && !IsRemoteImage(scene.BackgroundImage) {
		source = scene.BackgroundImage
	}
	if source == "" {
		if scene.BackgroundImage != "" {
			return nil, fmt.Errorf("background image %s was not downloaded", scene.BackgroundImage)
		}
		return painter.Background(graphics.ResolveColor(scene.BackgroundColor, scene.Number)), nil
	}
	img, err := graphics.LoadImage(source)
	if err != nil {
		return nil, fmt.Errorf("background image: %w", err)
	}
	return painter.ImageBackground(img), nil
}
