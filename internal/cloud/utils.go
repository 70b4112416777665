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

package cloud

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/jaycherian/gcp-go-story-reel/internal/core/model"
	"github.com/joho/godotenv"
	"go.opentelemetry.io/otel/metric"
	"google.golang.org/genai"
)

const (
	ConfigFileBaseName  = ".env"               // The base name for configuration files (e.g., ".env.toml").
	ConfigFileExtension = ".toml"              // The file extension for configuration files.
	ConfigSeparator     = "."                  // The separator used in config file names (e.g., ".env.local.toml").
	EnvConfigFilePrefix = "REEL_CONFIG_PREFIX" // The directory holding the config files.
	EnvConfigRuntime    = "REEL_RUNTIME"       // The runtime overlay to apply (e.g., "local", "test", "prod").
	DefaultRuntime      = "local"
	DotEnvFile          = ".env"
)

// Environment variables that override the TOML files.
const (
	EnvOpenAIAPIKey    = "OPENAI_API_KEY"
	EnvGeminiAPIKey    = "GEMINI_API_KEY"
	EnvGoogleAPIKey    = "GOOGLE_API_KEY"
	EnvDefaultFontPath = "DEFAULT_FONT_PATH"
)

func fileExists(in string) bool {
	_, err := os.Stat(in)
	return !errors.Is(err, os.ErrNotExist)
}

// ConfigFiles returns the base and runtime overlay file names LoadConfig
// reads, in the order they are applied.
func ConfigFiles() (base string, overlay string) {
	prefix := os.Getenv(EnvConfigFilePrefix)
	if len(prefix) > 0 && !strings.HasSuffix(prefix, string(os.PathSeparator)) {
		prefix = prefix + string(os.PathSeparator)
	}
	runtimeEnvironment := os.Getenv(EnvConfigRuntime)
	if runtimeEnvironment == "" {
		runtimeEnvironment = DefaultRuntime
	}
	base = prefix + ConfigFileBaseName + ConfigFileExtension
	overlay = prefix + ConfigFileBaseName + ConfigSeparator + runtimeEnvironment + ConfigFileExtension
	return base, overlay
}

// LoadConfig decodes the base configuration file and then the runtime overlay
// into baseConfig. Missing files are skipped; a file that fails to decode is
// an error. A .env file in the working directory is loaded into the process
// environment first, without replacing variables that are already set.
func LoadConfig(baseConfig interface{}) error {
	if fileExists(DotEnvFile) {
		if err := godotenv.Load(DotEnvFile); err != nil {
			return fmt.Errorf("failed to load %s: %w", DotEnvFile, err)
		}
	}

	baseConfigFileName, envConfigFileName := ConfigFiles()
	for _, name := range []string{baseConfigFileName, envConfigFileName} {
		if !fileExists(name) {
			slog.Debug("configuration file not found", "file", name)
			continue
		}
		if _, err := toml.DecodeFile(name, baseConfig); err != nil {
			return fmt.Errorf("failed to decode configuration file %s: %w", name, err)
		}
		slog.Debug("loaded configuration file", "file", name)
	}

	if c, ok := baseConfig.(*Config); ok {
		ApplyEnvironment(c)
	}
	return nil
}

// ApplyEnvironment copies API keys and the font path from the environment
// over whatever the configuration files set.
func ApplyEnvironment(c *Config) {
	if c.AgentModels == nil {
		c.AgentModels = make(map[string]LLMModel)
	}
	if key := os.Getenv(EnvOpenAIAPIKey); key != "" {
		m := c.AgentModels[ProviderOpenAI]
		m.APIKey = key
		if m.Provider == "" {
			m.Provider = ProviderOpenAI
		}
		c.AgentModels[ProviderOpenAI] = m
	}
	key := os.Getenv(EnvGeminiAPIKey)
	if key == "" {
		key = os.Getenv(EnvGoogleAPIKey)
	}
	if key != "" {
		m := c.AgentModels[ProviderGemini]
		m.APIKey = key
		if m.Provider == "" {
			m.Provider = ProviderGemini
		}
		c.AgentModels[ProviderGemini] = m
	}
	if font := os.Getenv(EnvDefaultFontPath); font != "" {
		c.Rendering.FontPath = font
	}
}

// GenerateTextResponse sends content to the model once and returns the
// concatenated text of every candidate with any markdown code fence removed.
// Token usage is recorded on the two counters when the response carries it.
func GenerateTextResponse(
	ctx context.Context,
	inputTokenCounter metric.Int64Counter,
	outputTokenCounter metric.Int64Counter,
	genModel *QuotaAwareGenerativeAIModel,
	content []*genai.Content) (value string, err error) {
	resp, err := genModel.GenerateContent(ctx, content)
	if err != nil {
		return "", err
	}
	if resp.UsageMetadata != nil {
		inputTokenCounter.Add(ctx, int64(resp.UsageMetadata.PromptTokenCount))
		outputTokenCounter.Add(ctx, int64(resp.UsageMetadata.CandidatesTokenCount))
	}

	var sb strings.Builder
	for _, candidate := range resp.Candidates {
		if candidate.Content != nil {
			for _, part := range candidate.Content.Parts {
				sb.WriteString(part.Text)
			}
		}
	}
	return model.StripCodeFence(sb.String()), nil
}

func NewTextPart(in string) []*genai.Content {
	return genai.Text(in)
}
