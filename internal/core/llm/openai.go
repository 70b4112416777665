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
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jaycherian/gcp-go-story-reel/internal/cloud"
	"github.com/jaycherian/gcp-go-story-reel/internal/core/cor"
	"github.com/jaycherian/gcp-go-story-reel/internal/core/model"
	"github.com/sashabaranov/go-openai"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/metric"
)

const (
	DefaultOpenAIModel       = "gpt-4"
	DefaultOpenAITemperature = 0.7
)

// chatCompleter is the part of the go-openai client the backend uses.
type chatCompleter interface {
	CreateChatCompletion(ctx context.Context, request openai.ChatCompletionRequest) (openai.ChatCompletionResponse, error)
}

// OpenAIBackend asks an OpenAI compatible chat completion endpoint for the
// script.
type OpenAIBackend struct {
	name               string
	client             chatCompleter
	settings           cloud.LLMModel
	inputTokenCounter  metric.Int64Counter
	outputTokenCounter metric.Int64Counter
}

// NewOpenAIBackend creates a backend from an agent model entry. A missing
// model name means gpt-4.
func NewOpenAIBackend(name string, settings cloud.LLMModel) *OpenAIBackend {
	clientConfig := openai.DefaultConfig(settings.APIKey)
	if settings.BaseURL != "" {
		clientConfig.BaseURL = settings.BaseURL
	}
	return newOpenAIBackend(name, openai.NewClientWithConfig(clientConfig), settings)
}

func newOpenAIBackend(name string, client chatCompleter, settings cloud.LLMModel) *OpenAIBackend {
	if settings.Model == "" {
		settings.Model = DefaultOpenAIModel
	}
	meter := otel.Meter(cor.MeterName)
	out := &OpenAIBackend{name: name, client: client, settings: settings}
	out.inputTokenCounter, _ = meter.Int64Counter(fmt.Sprintf("llm.%s.token.input", name))
	out.outputTokenCounter, _ = meter.Int64Counter(fmt.Sprintf("llm.%s.token.output", name))
	return out
}

func (o *OpenAIBackend) Name() string {
	return o.name
}

func (o *OpenAIBackend) GenerateScript(ctx context.Context, systemPrompt string, input string) (string, error) {
	if o.settings.TimeoutSeconds > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, time.Duration(o.settings.TimeoutSeconds)*time.Second)
		defer cancel()
	}

	request := openai.ChatCompletionRequest{
		Model:       o.settings.Model,
		Temperature: o.settings.Temperature,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: systemPrompt},
			{Role: openai.ChatMessageRoleUser, Content: input},
		},
		ResponseFormat: &openai.ChatCompletionResponseFormat{Type: openai.ChatCompletionResponseFormatTypeJSONObject},
	}
	if o.settings.MaxTokens > 0 {
		request.MaxTokens = int(o.settings.MaxTokens)
	}

	resp, err := o.client.CreateChatCompletion(ctx, request)
	if err != nil {
		return "", fmt.Errorf("openai request failed: %w", err)
	}
	o.inputTokenCounter.Add(ctx, int64(resp.Usage.PromptTokens))
	o.outputTokenCounter.Add(ctx, int64(resp.Usage.CompletionTokens))

	if len(resp.Choices) == 0 {
		return "", errors.New("openai response has no choices")
	}
	return model.StripCodeFence(strings.TrimSpace(resp.Choices[0].Message.Content)), nil
}
