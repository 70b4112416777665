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

// Package workflow assembles the pipeline commands into the chains that turn
// a story into a video.
package workflow

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"text/template"
	"time"

	credentials "cloud.google.com/go/iam/credentials/apiv1"
	"cloud.google.com/go/storage"

	"github.com/jaycherian/gcp-go-story-reel/internal/cloud"
	"github.com/jaycherian/gcp-go-story-reel/internal/core/commands"
	"github.com/jaycherian/gcp-go-story-reel/internal/core/cor"
	"github.com/jaycherian/gcp-go-story-reel/internal/core/graphics"
	"github.com/jaycherian/gcp-go-story-reel/internal/core/llm"
	"github.com/jaycherian/gcp-go-story-reel/internal/core/speech"
	"github.com/jaycherian/gcp-go-story-reel/internal/core/video"
)

const imageFetchTimeout = 60 * time.Second

// ReelGeneratorWorkflow renders one *model.GenerateRequest, placed under
// cor.CtxIn, into an MP4. The *model.RenderResult is left under
// commands.ResultParam.
type ReelGeneratorWorkflow struct {
	cor.BaseCommand
	config         *cloud.Config
	registry       *llm.Registry
	synthesizer    speech.Synthesizer
	renderer       video.Renderer
	font           *graphics.Font
	storageClient  *storage.Client
	iamClient      *credentials.IamCredentialsClient
	scriptTemplate *template.Template
	chain          cor.Chain
}

func (w *ReelGeneratorWorkflow) Execute(context cor.Context) {
	w.chain.Execute(context)
}

// Chain exposes the underlying chain.
func (w *ReelGeneratorWorkflow) Chain() cor.Chain {
	return w.chain
}

// Registry returns the backends this workflow can write scripts with.
func (w *ReelGeneratorWorkflow) Registry() *llm.Registry {
	return w.registry
}

// Close releases the speech engine when it holds a connection.
func (w *ReelGeneratorWorkflow) Close() error {
	if closer, ok := w.synthesizer.(io.Closer); ok {
		return closer.Close()
	}
	return nil
}

func (w *ReelGeneratorWorkflow) initializeChain() {
	rendering := w.config.Rendering
	out := cor.NewBaseChain(w.GetName())

	out.AddCommand(commands.NewGenerateRequestReader("read-generate-request", w.config.Storage, rendering.KeepTempFiles))
	out.AddCommand(commands.NewScriptCreator("generate-script", w.config, w.registry, w.scriptTemplate))
	out.AddCommand(commands.NewScriptJsonToStruct("convert-script"))
	out.AddCommand(commands.NewBackgroundImageFetcher("fetch-background-images", w.storageClient, &http.Client{Timeout: imageFetchTimeout}))
	out.AddCommand(commands.NewSpeechSynthesizer("synthesize-speech", w.synthesizer, rendering.AllowSilentScenes))
	out.AddCommand(commands.NewBackgroundPainter("paint-scenes", w.font, rendering.FontSize, rendering.GridSpacing))
	out.AddCommand(commands.NewSceneRenderer("render-scenes", w.renderer))
	out.AddCommand(commands.NewVideoConcatenator("concatenate-scenes", w.renderer))
	out.AddCommand(commands.NewVideoProbe("probe-video", w.renderer, rendering.DurationToleranceSeconds))
	out.AddCommand(commands.NewGCSFileUpload(
		"upload-video",
		w.storageClient,
		w.iamClient,
		w.config.Storage.OutputBucket,
		w.config.Application.SignerServiceAccountEmail,
		time.Duration(w.config.Storage.SignedURLMinutes)*time.Minute))

	w.chain = out
}

// NewReelGeneratorWorkflow builds the pipeline from explicit parts. clients
// may be nil when no cloud service is configured.
func NewReelGeneratorWorkflow(
	config *cloud.Config,
	serviceClients *cloud.ServiceClients,
	registry *llm.Registry,
	synthesizer speech.Synthesizer,
	renderer video.Renderer) (*ReelGeneratorWorkflow, error) {

	scriptTemplate, err := llm.ParsePromptTemplate(config.PromptTemplates.Script)
	if err != nil {
		return nil, err
	}
	font, err := LoadConfiguredFont(config.Rendering.FontPath)
	if err != nil {
		return nil, err
	}

	pipeline := &ReelGeneratorWorkflow{
		BaseCommand:    *cor.NewBaseCommand("reel-generator-pipeline"),
		config:         config,
		registry:       registry,
		synthesizer:    synthesizer,
		renderer:       renderer,
		font:           font,
		scriptTemplate: scriptTemplate,
	}
	if serviceClients != nil {
		pipeline.storageClient = serviceClients.StorageClient
		pipeline.iamClient = serviceClients.IAMClient
	}
	pipeline.initializeChain()
	return pipeline, nil
}

// NewReelGeneratorWorkflowFromConfig wires the configured backends, speech
// engine and ffmpeg binaries.
func NewReelGeneratorWorkflowFromConfig(
	ctx context.Context,
	config *cloud.Config,
	serviceClients *cloud.ServiceClients) (*ReelGeneratorWorkflow, error) {

	ffmpeg := video.NewFFmpeg(FFmpegSettings(config.Rendering))
	if err := ffmpeg.Available(); err != nil {
		return nil, err
	}
	synthesizer, err := speech.New(ctx, config.Speech, ffmpeg)
	if err != nil {
		return nil, fmt.Errorf("failed to create speech engine: %w", err)
	}
	registry := llm.NewRegistryFromConfig(config, serviceClients)
	slog.InfoContext(ctx, "reel generator ready",
		"backends", registry.Names(),
		"speech", synthesizer.Name(),
		"ffmpeg", ffmpeg.Settings().FFmpegPath)

	return NewReelGeneratorWorkflow(config, serviceClients, registry, synthesizer, ffmpeg)
}

// FFmpegSettings maps the rendering section onto encoder settings.
func FFmpegSettings(r cloud.Rendering) video.Settings {
	return video.Settings{
		FFmpegPath:  r.FFmpegPath,
		FFprobePath: r.FFprobePath,
		FPS:         r.FPS,
		VideoCodec:  r.VideoCodec,
		AudioCodec:  r.AudioCodec,
		Preset:      r.Preset,
		CRF:         r.CRF,
	}
}

// LoadConfiguredFont loads the configured font, or the first system font
// found. A configured font that cannot be read is an error; having no font
// at all falls back to the built-in face.
func LoadConfiguredFont(path string) (*graphics.Font, error) {
	found, err := graphics.FindFont(path)
	if err != nil {
		return nil, err
	}
	if found == "" {
		slog.Warn("no system font found, subtitles use the built-in face")
	}
	return graphics.LoadFont(found)
}
