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

import "google.golang.org/genai"

// DefaultSafetySettings relaxes the Gemini filters; story text routinely trips
// them on harmless input and a blocked response cannot become a script.
var DefaultSafetySettings = []*genai.SafetySetting{
	{
		Category:  genai.HarmCategoryDangerousContent,
		Threshold: genai.HarmBlockThresholdBlockOnlyHigh,
	},
	{
		Category:  genai.HarmCategoryHarassment,
		Threshold: genai.HarmBlockThresholdBlockOnlyHigh,
	},
	{
		Category:  genai.HarmCategoryHateSpeech,
		Threshold: genai.HarmBlockThresholdBlockOnlyHigh,
	},
	{
		Category:  genai.HarmCategorySexuallyExplicit,
		Threshold: genai.HarmBlockThresholdBlockOnlyHigh,
	},
}

// Names of the language-model providers understood by agent_models entries.
const (
	ProviderGemini = "gemini"
	ProviderOpenAI = "openai"
)

// PromptTemplates configures the script prompt.
type PromptTemplates struct {
	Script    string `toml:"script"`     // text/template rendered into the system prompt
	MinScenes int    `toml:"min_scenes"` // exposed to the template as MIN_SCENES
	MaxScenes int    `toml:"max_scenes"` // exposed to the template as MAX_SCENES
}

// LLMModel configures one real language-model backend.
type LLMModel struct {
	Provider       string  `toml:"provider"` // "gemini" or "openai"
	Model          string  `toml:"model"`
	APIKey         string  `toml:"api_key"`  // usually supplied through the environment
	BaseURL        string  `toml:"base_url"` // OpenAI compatible endpoints only
	Temperature    float32 `toml:"temperature"`
	TopP           float32 `toml:"top_p"`
	TopK           float32 `toml:"top_k"`
	MaxTokens      int32   `toml:"max_tokens"`
	OutputFormat   string  `toml:"output_format"`
	RateLimit      int     `toml:"rate_limit"` // requests per second, burst of the same size
	TimeoutSeconds int     `toml:"timeout_seconds"`
}

// TopicSubscription names a Pub/Sub subscription to listen on.
type TopicSubscription struct {
	Name             string `toml:"name"`
	DeadLetterTopic  string `toml:"dead_letter_topic"`
	TimeoutInSeconds int    `toml:"timeout_in_seconds"`
}

// Storage holds where files live.
type Storage struct {
	OutputDirectory  string `toml:"output_directory"`
	TempDirectory    string `toml:"temp_directory"`
	OutputBucket     string `toml:"output_bucket"` // optional; finished videos are copied here
	SignedURLMinutes int    `toml:"signed_url_minutes"`
}

// Rendering configures the image and video stages.
type Rendering struct {
	FFmpegPath               string  `toml:"ffmpeg_path"`
	FFprobePath              string  `toml:"ffprobe_path"`
	FPS                      int     `toml:"fps"`
	VideoCodec               string  `toml:"video_codec"`
	AudioCodec               string  `toml:"audio_codec"`
	Preset                   string  `toml:"preset"`
	CRF                      int     `toml:"crf"`
	FontPath                 string  `toml:"font_path"`
	FontSize                 float64 `toml:"font_size"` // at 1080 lines, scaled with the frame height
	GridSpacing              int     `toml:"grid_spacing"`
	AllowSilentScenes        bool    `toml:"allow_silent_scenes"`
	KeepTempFiles            bool    `toml:"keep_temp_files"`
	DurationToleranceSeconds float64 `toml:"duration_tolerance_seconds"`
}

// Speech configures the text-to-speech engine.
type Speech struct {
	Engine          string  `toml:"engine"` // "command", "google" or "silent"
	Language        string  `toml:"language"`
	Voice           string  `toml:"voice"`
	Command         string  `toml:"command"` // template with {text}, {lang}, {voice} and {output}
	SpeakingRate    float64 `toml:"speaking_rate"`
	CredentialsFile string  `toml:"credentials_file"`
}

// Telemetry selects the trace and metric exporters.
type Telemetry struct {
	Exporter string `toml:"exporter"` // "gcp", "stdout" or "none"
}

// Server configures the HTTP API.
type Server struct {
	Address                string `toml:"address"`
	ShutdownTimeoutSeconds int    `toml:"shutdown_timeout_seconds"`
	RequestTimeoutSeconds  int    `toml:"request_timeout_seconds"`
}

// Config is the application configuration loaded by LoadConfig.
type Config struct {
	Application struct {
		Name                      string `toml:"name"`
		GoogleProjectId           string `toml:"google_project_id"`
		GoogleLocation            string `toml:"location"`
		DefaultBackend            string `toml:"default_backend"`
		LogLevel                  string `toml:"log_level"`
		LogFile                   string `toml:"log_file"`
		SignerServiceAccountEmail string `toml:"signer_service_account_email"`
	} `toml:"application"`
	Server             Server                       `toml:"server"`
	Storage            Storage                      `toml:"storage"`
	Rendering          Rendering                    `toml:"rendering"`
	Speech             Speech                       `toml:"speech"`
	PromptTemplates    PromptTemplates              `toml:"prompt_templates"`
	Telemetry          Telemetry                    `toml:"telemetry"`
	TopicSubscriptions map[string]TopicSubscription `toml:"topic_subscriptions"`
	AgentModels        map[string]LLMModel          `toml:"agent_models"` // keyed by backend name, e.g. "gemini"
}

// NewConfig returns a Config with the built-in defaults, which the TOML files
// then override.
func NewConfig() *Config {
	c := &Config{
		Server: Server{
			Address:                ":8080",
			ShutdownTimeoutSeconds: 5,
			RequestTimeoutSeconds:  600,
		},
		Storage: Storage{
			OutputDirectory:  "output",
			TempDirectory:    "temp",
			SignedURLMinutes: 15,
		},
		Rendering: Rendering{
			FFmpegPath:               "ffmpeg",
			FFprobePath:              "ffprobe",
			FPS:                      24,
			VideoCodec:               "libx264",
			AudioCodec:               "aac",
			Preset:                   "veryfast",
			CRF:                      23,
			FontSize:                 70,
			GridSpacing:              50,
			DurationToleranceSeconds: 0.5,
		},
		Speech: Speech{
			Engine:       "silent",
			Language:     "ja",
			SpeakingRate: 1.0,
		},
		PromptTemplates: PromptTemplates{
			MinScenes: 3,
			MaxScenes: 5,
		},
		Telemetry:          Telemetry{Exporter: "none"},
		TopicSubscriptions: make(map[string]TopicSubscription),
		AgentModels:        make(map[string]LLMModel),
	}
	c.Application.Name = "story-to-reel"
	c.Application.DefaultBackend = "mock"
	c.Application.LogLevel = "info"
	return c
}
