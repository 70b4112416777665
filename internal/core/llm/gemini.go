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
	"fmt"
	"time"

	"github.com/jaycherian/gcp-go-story-reel/internal/cloud"
	"github.com/jaycherian/gcp-go-story-reel/internal/core/cor"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/metric"
	"google.golang.org/genai"
)

// GeminiBackend asks Gemini (Developer API or Vertex AI) for the script
// through the rate limited model wrapper.
type GeminiBackend struct {
	name               string
	model              *cloud.QuotaAwareGenerativeAIModel
	timeout            time.Duration
	inputTokenCounter  metric.Int64Counter
	outputTokenCounter metric.Int64Counter
}

func NewGeminiBackend(name string, model *cloud.QuotaAwareGenerativeAIModel) *GeminiBackend {
	meter := otel.Meter(cor.MeterName)
	out := &GeminiBackend{name: name, model: model}
	out.inputTokenCounter, _ = meter.Int64Counter(fmt.Sprintf("llm.%s.token.input", name))
	out.outputTokenCounter, _ = meter.Int64Counter(fmt.Sprintf("llm.%s.token.output", name))
	return out
}

// WithTimeout bounds each request.
func (g *GeminiBackend) WithTimeout(timeout time.Duration) *GeminiBackend {
	g.timeout = timeout
	return g
}

func (g *GeminiBackend) Name() string {
	return g.name
}

func (g *GeminiBackend) GenerateScript(ctx context.Context, systemPrompt string, input string) (string, error) {
	if g.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, g.timeout)
		defer cancel()
	}

	// The shared model settings stay untouched; only this request carries
	// the system prompt.
	settings := genai.GenerateContentConfig{}
	if g.model.GenerativeContentConfig != nil {
		settings = *g.model.GenerativeContentConfig
	}
	settings.SystemInstruction = &genai.Content{Parts: []*genai.Part{{Text: systemPrompt}}}
	if settings.ResponseMIMEType == "" {
		settings.ResponseMIMEType = "application/json"
	}
	request := *g.model
	request.GenerativeContentConfig = &settings

	out, err := cloud.GenerateTextResponse(ctx, g.inputTokenCounter, g.outputTokenCounter, &request, cloud.NewTextPart(input))
	if err != nil {
		return "", fmt.Errorf("gemini request failed: %w", err)
	}
	return out, nil
}
