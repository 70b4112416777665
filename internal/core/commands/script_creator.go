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
	"text/template"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"

	"github.com/jaycherian/gcp-go-story-reel/internal/cloud"
	"github.com/jaycherian/gcp-go-story-reel/internal/core/cor"
	"github.com/jaycherian/gcp-go-story-reel/internal/core/llm"
	"github.com/jaycherian/gcp-go-story-reel/internal/core/model"
)

// ScriptCreator asks a language-model backend to turn the request text into
// a raw JSON script. A request that already carries a script skips the model.
type ScriptCreator struct {
	cor.BaseCommand
	config          *cloud.Config
	registry        *llm.Registry
	template        *template.Template
	latencyHist     metric.Float64Histogram
	fallbackCounter metric.Int64Counter
}

func NewScriptCreator(
	name string,
	config *cloud.Config,
	registry *llm.Registry,
	template *template.Template) *ScriptCreator {

	out := &ScriptCreator{
		BaseCommand: *cor.NewBaseCommand(name),
		config:      config,
		registry:    registry,
		template:    template,
	}
	out.latencyHist, _ = out.GetMeter().Float64Histogram(fmt.Sprintf("%s.llm.latency", out.GetName()), metric.WithUnit("s"))
	out.fallbackCounter, _ = out.GetMeter().Int64Counter(fmt.Sprintf("%s.llm.fallback", out.GetName()))
	return out
}

func (t *ScriptCreator) Execute(context cor.Context) {
	req, err := requestFrom(context)
	if err != nil {
		t.Fail(context, err)
		return
	}

	if req.ScriptJSON != "" {
		t.Succeed(context)
		context.Add(BackendParam, ScriptBackendName)
		context.Add(t.GetOutputParam(), req.ScriptJSON)
		return
	}

	requested := req.Backend
	if requested == "" {
		requested = t.config.Application.DefaultBackend
	}
	backend := t.registry.Resolve(context.GetContext(), requested)
	if requested != "" && backend.Name() != requested && t.fallbackCounter != nil {
		t.fallbackCounter.Add(context.GetContext(), 1)
	}
	trace.SpanFromContext(context.GetContext()).SetAttributes(attribute.String("llm.backend", backend.Name()))

	prompt, err := llm.RenderPrompt(t.template, t.config.PromptTemplates.MinScenes, t.config.PromptTemplates.MaxScenes)
	if err != nil {
		t.Fail(context, err)
		return
	}

	start := time.Now()
	out, err := backend.GenerateScript(context.GetContext(), prompt, req.InputText)
	if t.latencyHist != nil {
		t.latencyHist.Record(context.GetContext(), time.Since(start).Seconds())
	}
	if err != nil {
		t.Fail(context, fmt.Errorf("%s backend failed: %w", backend.Name(), err))
		return
	}
	slog.DebugContext(context.GetContext(), "script generated", "backend", backend.Name(), "bytes", len(out))

	t.Succeed(context)
	context.Add(BackendParam, backend.Name())
	context.Add(t.GetOutputParam(), model.StripCodeFence(out))
}
