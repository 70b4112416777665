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

// Package test provides helpers and fixtures shared by the test suites. The
// configuration it loads comes from configs/.env.toml with the
// configs/.env.test.toml overlay at the repository root.
package test

import (
	"log"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"
	"sync"
	"testing"

	"github.com/jaycherian/gcp-go-story-reel/internal/cloud"
)

type StateManager struct {
	once   sync.Once
	config *cloud.Config
}

var state = &StateManager{}

// HandleErr fails the test when err is not nil.
func HandleErr(err error, t *testing.T) {
	t.Helper()
	if err != nil {
		t.Errorf("unexpected error: %v", err)
	}
}

// RepoRoot returns the repository root, found relative to this source file
// so tests work from any package directory.
func RepoRoot() string {
	_, file, _, _ := runtime.Caller(0)
	return filepath.Join(filepath.Dir(file), "..", "..")
}

// SetupOS points the configuration loader at the test configuration.
func SetupOS() (err error) {
	err = os.Setenv(cloud.EnvConfigFilePrefix, filepath.Join(RepoRoot(), "configs"))
	if err != nil {
		return err
	}
	return os.Setenv(cloud.EnvConfigRuntime, "test")
}

// GetConfig loads the test configuration once and returns a copy, so a test
// can change fields without affecting the others.
func GetConfig() *cloud.Config {
	state.once.Do(func() {
		if err := SetupOS(); err != nil {
			log.Fatalf("failed to setup environment for test: %v\n", err)
		}
		config := cloud.NewConfig()
		if err := cloud.LoadConfig(config); err != nil {
			log.Fatalf("failed to load test configuration: %v\n", err)
		}
		state.config = config
	})
	c := *state.config
	c.AgentModels = make(map[string]cloud.LLMModel, len(state.config.AgentModels))
	for k, v := range state.config.AgentModels {
		c.AgentModels[k] = v
	}
	c.TopicSubscriptions = make(map[string]cloud.TopicSubscription, len(state.config.TopicSubscriptions))
	for k, v := range state.config.TopicSubscriptions {
		c.TopicSubscriptions[k] = v
	}
	return &c
}

// RequireFFmpeg skips the test unless ffmpeg and ffprobe are on the PATH.
func RequireFFmpeg(t *testing.T) {
	t.Helper()
	for _, tool := range []string{"ffmpeg", "ffprobe"} {
		if _, err := exec.LookPath(tool); err != nil {
			t.Skipf("%s not found on PATH", tool)
		}
	}
}

// GetTestStoryText returns a short story of four sentences.
func GetTestStoryText() string {
	return "The tide went out at dawn. A girl found a glass bottle in the sand. " +
		"Inside was a map drawn in faded ink. She followed it to the old lighthouse."
}

// GetTestGenerationMessageText returns a generation request as it arrives on
// the Pub/Sub subscription.
func GetTestGenerationMessageText() string {
	return `{
  "input_text": "The tide went out at dawn. A girl found a glass bottle in the sand.",
  "backend": "mock",
  "width": 640,
  "height": 360,
  "output_name": "pubsub-reel.mp4"
}`
}

// GetTestScriptJSON returns a valid two scene script.
func GetTestScriptJSON() string {
	return `{
  "title": "Bottle",
  "scenes": [
    {
      "scene_number": 1,
      "dialogue": "The tide went out at dawn.",
      "display_text": "The tide went out at dawn.",
      "duration_seconds": 1.5,
      "background_color": "#1e3a5f"
    },
    {
      "scene_number": 2,
      "dialogue": "A girl found a bottle.",
      "display_text": "A girl found a bottle.",
      "duration_seconds": 1.0,
      "background_color": "sandy beach at sunrise"
    }
  ],
  "total_duration_seconds": 2.5
}`
}

// WriteTestMP4 writes the ftyp box of an ISO base media file, which is all a
// file type sniffer needs to see an MP4.
func WriteTestMP4(t *testing.T, path string) {
	t.Helper()
	box := []byte{0x00, 0x00, 0x00, 0x20, 'f', 't', 'y', 'p', 'i', 's', 'o', 'm', 0x00, 0x00, 0x02, 0x00}
	box = append(box, []byte("isomiso2avc1mp41")...)
	if err := os.WriteFile(path, box, 0o644); err != nil {
		t.Fatalf("failed to write %s: %v", path, err)
	}
}
