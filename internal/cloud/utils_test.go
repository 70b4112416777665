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

package cloud_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/jaycherian/gcp-go-story-reel/internal/cloud"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/metric/noop"
	"google.golang.org/genai"
)

const fencedResponse = `{
  "candidates": [{
    "content": {"role": "model", "parts": [{"text": "` + "```json\\n{\\\"title\\\": \\\"Fenced\\\"}\\n```" + `"}]}
  }],
  "usageMetadata": {"promptTokenCount": 3, "candidatesTokenCount": 5}
}`

func TestGenerateTextResponseStripsCodeFence(t *testing.T) {
	var path string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		path = r.URL.Path
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(fencedResponse))
	}))
	defer server.Close()

	ctx := context.Background()
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:      "test-key",
		Backend:     genai.BackendGeminiAPI,
		HTTPOptions: genai.HTTPOptions{BaseURL: server.URL + "/"},
	})
	require.NoError(t, err)

	genModel := cloud.NewQuotaAwareModel(&genai.GenerateContentConfig{}, "gemini-test", client.Models, 10)
	meter := noop.NewMeterProvider().Meter("test")
	inputTokens, _ := meter.Int64Counter("input")
	outputTokens, _ := meter.Int64Counter("output")

	out, err := cloud.GenerateTextResponse(ctx, inputTokens, outputTokens, genModel, cloud.NewTextPart("a story"))
	require.NoError(t, err)
	assert.Equal(t, `{"title": "Fenced"}`, out)
	assert.True(t, strings.HasSuffix(path, "gemini-test:generateContent"), path)
}
