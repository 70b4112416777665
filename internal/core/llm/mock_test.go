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

package llm_test

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"testing"

	"github.com/jaycherian/gcp-go-story-reel/internal/cloud"
	"github.com/jaycherian/gcp-go-story-reel/internal/core/llm"
	"github.com/jaycherian/gcp-go-story-reel/internal/core/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMockTwoSentences(t *testing.T) {
	raw, err := llm.NewMockBackend().GenerateScript(context.Background(), "", "This is a test. Here is a second sentence.")
	require.NoError(t, err)

	script, err := model.ParseScript(raw)
	require.NoError(t, err)
	require.Len(t, script.Scenes, 2)
	assert.Equal(t, "This is a test.", script.Title)
	assert.Equal(t, "This is a test.", script.Scenes[0].Narration)
	assert.Equal(t, "Here is a second sentence.", script.Scenes[1].DisplayText)
	for _, s := range script.Scenes {
		assert.Greater(t, s.DurationSeconds, 0.0)
	}
	// 26 runes gives 2.6s, the short first sentence is held at the 2s floor.
	assert.InDelta(t, 2.0, script.Scenes[0].DurationSeconds, 1e-9)
	assert.InDelta(t, 2.6, script.Scenes[1].DurationSeconds, 1e-9)
	assert.InDelta(t, 4.6, script.TotalDuration(), 1e-9)
}

func TestMockIsDeterministic(t *testing.T) {
	text := "One. Two. Three."
	a, err := llm.NewMockBackend().GenerateScript(context.Background(), "", text)
	require.NoError(t, err)
	b, err := llm.NewMockBackend().GenerateScript(context.Background(), "ignored prompt", text)
	require.NoError(t, err)
	assert.Equal(t, a, b)
}

func TestMockColorsAndCap(t *testing.T) {
	raw, err := llm.NewMockBackend().GenerateScript(context.Background(), "", "A. B. C. D. E. F. G.")
	require.NoError(t, err)

	var decoded struct {
		Scenes []struct {
			Number int    `json:"scene_number"`
			Color  string `json:"background_color"`
		} `json:"scenes"`
	}
	require.NoError(t, json.Unmarshal([]byte(raw), &decoded))
	require.Len(t, decoded.Scenes, 5)
	assert.Equal(t, "#1e3246", decoded.Scenes[0].Color)
	assert.Equal(t, "#3c648c", decoded.Scenes[1].Color)
	assert.Equal(t, "#96fa5f", decoded.Scenes[4].Color)
	assert.Equal(t, 5, decoded.Scenes[4].Number)
}

func TestMockJapaneseSentences(t *testing.T) {
	raw, err := llm.NewMockBackend().GenerateScript(context.Background(), "", "今日は晴れです。明日は雨です。")
	require.NoError(t, err)
	script, err := model.ParseScript(raw)
	require.NoError(t, err)
	require.Len(t, script.Scenes, 2)
	assert.Equal(t, "今日は晴れです。", script.Scenes[0].Narration)
}

func TestMockTitleTruncation(t *testing.T) {
	long := strings.Repeat("word ", 20) + "end."
	raw, err := llm.NewMockBackend().GenerateScript(context.Background(), "", long)
	require.NoError(t, err)
	script, err := model.ParseScript(raw)
	require.NoError(t, err)
	assert.LessOrEqual(t, len([]rune(script.Title)), 30)
}

func TestMockWithoutSentences(t *testing.T) {
	raw, err := llm.NewMockBackend().GenerateScript(context.Background(), "", "   ")
	require.NoError(t, err)
	assert.Contains(t, raw, "Generated Video")

	// A script with no scenes never validates.
	_, err = model.ParseScript(raw)
	var validation *model.ValidationError
	assert.True(t, errors.As(err, &validation))
}

func TestMockHonoursCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := llm.NewMockBackend().GenerateScript(ctx, "", "Hello.")
	assert.ErrorIs(t, err, context.Canceled)
}

func TestSplitSentences(t *testing.T) {
	assert.Equal(t, []string{"First.", "Second", "Third."}, llm.SplitSentences("First.\nSecond\nThird."))
	assert.Empty(t, llm.SplitSentences(""))
}

func TestRegistryFallsBackToMock(t *testing.T) {
	r := llm.NewRegistry()
	assert.Equal(t, []string{"mock"}, r.Names())

	_, err := r.Get("openai")
	assert.ErrorIs(t, err, llm.ErrBackendUnavailable)

	b := r.Resolve(context.Background(), "openai")
	assert.Equal(t, llm.MockBackendName, b.Name())
	assert.Equal(t, llm.MockBackendName, r.Resolve(context.Background(), "").Name())
}

func TestRegistryFromConfigSkipsUnreachableBackends(t *testing.T) {
	config := cloud.NewConfig()
	config.AgentModels["openai"] = cloud.LLMModel{Provider: "openai", Model: "gpt-4"}
	config.AgentModels["gemini"] = cloud.LLMModel{Provider: "gemini", Model: "gemini-2.5-flash"}
	config.AgentModels["keyed"] = cloud.LLMModel{Provider: "openai", APIKey: "sk-test"}

	r := llm.NewRegistryFromConfig(config, nil)
	assert.Equal(t, []string{"keyed", "mock"}, r.Names())
}

func TestRenderPrompt(t *testing.T) {
	tmpl, err := llm.ParsePromptTemplate("")
	require.NoError(t, err)
	prompt, err := llm.RenderPrompt(tmpl, 3, 5)
	require.NoError(t, err)
	assert.Contains(t, prompt, "3-5 scenes")
	assert.Contains(t, prompt, `"The Lighthouse Keeper"`)
	assert.Contains(t, prompt, `"display_text"`)

	custom, err := llm.ParsePromptTemplate("Between {{.MIN_SCENES}} and {{.MAX_SCENES}}.")
	require.NoError(t, err)
	prompt, err = llm.RenderPrompt(custom, 2, 4)
	require.NoError(t, err)
	assert.Equal(t, "Between 2 and 4.", prompt)

	_, err = llm.ParsePromptTemplate("{{.Broken")
	assert.Error(t, err)

	missing, err := llm.ParsePromptTemplate("{{.NOT_A_PARAM}}")
	require.NoError(t, err)
	_, err = llm.RenderPrompt(missing, 3, 5)
	assert.Error(t, err)
}
