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
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/jaycherian/gcp-go-story-reel/internal/cloud"
	"github.com/jaycherian/gcp-go-story-reel/internal/core/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, path, body string) {
	t.Helper()
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
}

func TestLoadConfigAppliesOverlay(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, ".env.toml"), `
[application]
name = "story-to-reel"
log_level = "info"

[rendering]
fps = 24
font_path = "/fonts/base.ttf"

[agent_models.openai]
provider = "openai"
model = "gpt-4"
temperature = 0.7
`)
	writeFile(t, filepath.Join(dir, ".env.unit.toml"), `
[application]
log_level = "debug"

[rendering]
fps = 30
`)
	t.Setenv(cloud.EnvConfigFilePrefix, dir)
	t.Setenv(cloud.EnvConfigRuntime, "unit")
	t.Setenv(cloud.EnvOpenAIAPIKey, "")
	t.Setenv(cloud.EnvGeminiAPIKey, "")
	t.Setenv(cloud.EnvGoogleAPIKey, "")
	t.Setenv(cloud.EnvDefaultFontPath, "")

	config := cloud.NewConfig()
	require.NoError(t, cloud.LoadConfig(config))

	assert.Equal(t, "debug", config.Application.LogLevel)
	assert.Equal(t, "story-to-reel", config.Application.Name)
	assert.Equal(t, 30, config.Rendering.FPS)
	assert.Equal(t, "/fonts/base.ttf", config.Rendering.FontPath)
	// Defaults survive keys the files never mention.
	assert.Equal(t, "libx264", config.Rendering.VideoCodec)
	assert.Equal(t, "output", config.Storage.OutputDirectory)
	assert.Equal(t, "gpt-4", config.AgentModels["openai"].Model)
	assert.InDelta(t, 0.7, config.AgentModels["openai"].Temperature, 1e-6)
}

func TestLoadConfigRejectsBrokenFile(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, ".env.toml"), "[application\nname=")
	t.Setenv(cloud.EnvConfigFilePrefix, dir)
	t.Setenv(cloud.EnvConfigRuntime, "none")

	err := cloud.LoadConfig(cloud.NewConfig())
	assert.Error(t, err)
}

func TestLoadConfigWithoutFilesKeepsDefaults(t *testing.T) {
	t.Setenv(cloud.EnvConfigFilePrefix, t.TempDir())
	t.Setenv(cloud.EnvConfigRuntime, "")
	t.Setenv(cloud.EnvOpenAIAPIKey, "")
	t.Setenv(cloud.EnvGeminiAPIKey, "")
	t.Setenv(cloud.EnvGoogleAPIKey, "")
	t.Setenv(cloud.EnvDefaultFontPath, "")

	config := cloud.NewConfig()
	require.NoError(t, cloud.LoadConfig(config))
	assert.Equal(t, "mock", config.Application.DefaultBackend)
	assert.Equal(t, "ja", config.Speech.Language)
	assert.Empty(t, config.AgentModels)
}

func TestConfigFilesDefaultRuntime(t *testing.T) {
	t.Setenv(cloud.EnvConfigFilePrefix, "configs")
	t.Setenv(cloud.EnvConfigRuntime, "")
	base, overlay := cloud.ConfigFiles()
	assert.Equal(t, filepath.Join("configs", ".env.toml"), base)
	assert.Equal(t, filepath.Join("configs", ".env.local.toml"), overlay)
}

func TestApplyEnvironment(t *testing.T) {
	t.Setenv(cloud.EnvOpenAIAPIKey, "sk-test")
	t.Setenv(cloud.EnvGeminiAPIKey, "")
	t.Setenv(cloud.EnvGoogleAPIKey, "g-test")
	t.Setenv(cloud.EnvDefaultFontPath, "/usr/share/fonts/x.ttf")

	config := cloud.NewConfig()
	config.AgentModels["openai"] = cloud.LLMModel{Model: "gpt-4"}
	cloud.ApplyEnvironment(config)

	assert.Equal(t, "sk-test", config.AgentModels["openai"].APIKey)
	assert.Equal(t, "gpt-4", config.AgentModels["openai"].Model)
	assert.Equal(t, cloud.ProviderOpenAI, config.AgentModels["openai"].Provider)
	assert.Equal(t, "g-test", config.AgentModels["gemini"].APIKey)
	assert.Equal(t, "/usr/share/fonts/x.ttf", config.Rendering.FontPath)
}

func TestProviderDefaultsToKey(t *testing.T) {
	assert.Equal(t, "gemini", cloud.Provider("gemini", cloud.LLMModel{}))
	assert.Equal(t, "openai", cloud.Provider("fast", cloud.LLMModel{Provider: "openai"}))
}

func TestIsPermanent(t *testing.T) {
	_, parseErr := model.ParseScript("{")
	require.Error(t, parseErr)

	assert.True(t, cloud.IsPermanent(model.ErrEmptyInput))
	assert.True(t, cloud.IsPermanent(fmt.Errorf("request: %w", model.ErrInvalidRequest)))
	assert.True(t, cloud.IsPermanent(fmt.Errorf("script: %w", parseErr)))
	assert.False(t, cloud.IsPermanent(errors.New("ffmpeg exited with status 1")))
}

func TestGCSObjectURI(t *testing.T) {
	o := &cloud.GCSObject{Bucket: "reels", Name: "a/b.mp4"}
	assert.Equal(t, "gs://reels/a/b.mp4", o.URI())
}
