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

package main

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jaycherian/gcp-go-story-reel/internal/cloud"
	"github.com/jaycherian/gcp-go-story-reel/internal/core/model"
	test "github.com/jaycherian/gcp-go-story-reel/internal/testutil"
)

func TestUsageErrors(t *testing.T) {
	for _, args := range [][]string{
		{},
		{"-use-openai", "-use-gemini", "story"},
		{"-unknown-flag", "story"},
		{"-input-file", "story.txt", "more text"},
		{"-width", "641", "story"},
		{"-o", "video.avi", "story"},
	} {
		var stderr bytes.Buffer
		assert.Equal(t, exitUsage, run(args, strings.NewReader(""), &bytes.Buffer{}, &stderr), args)
		assert.NotEmpty(t, stderr.String(), args)
	}
}

func TestBackendSelection(t *testing.T) {
	o, err := parseFlags([]string{"story"}, &bytes.Buffer{})
	require.NoError(t, err)
	assert.Equal(t, "mock", o.Backend())
	assert.Equal(t, "output_video.mp4", o.Output)

	o, err = parseFlags([]string{"-use-gemini", "-output", "x.mp4", "story"}, &bytes.Buffer{})
	require.NoError(t, err)
	assert.Equal(t, "gemini", o.Backend())
	assert.Equal(t, "x.mp4", o.Output)

	o, err = parseFlags([]string{"-use-openai", "-o", "y.mp4", "story"}, &bytes.Buffer{})
	require.NoError(t, err)
	assert.Equal(t, "openai", o.Backend())
	assert.Equal(t, "y.mp4", o.Output)
}

func TestReadInput(t *testing.T) {
	text, err := readInput(&Options{Args: []string{"-"}}, strings.NewReader("from stdin"))
	require.NoError(t, err)
	assert.Equal(t, "from stdin", text)

	path := filepath.Join(t.TempDir(), "story.txt")
	require.NoError(t, os.WriteFile(path, []byte("from a file"), 0o644))
	text, err = readInput(&Options{InputFile: path}, nil)
	require.NoError(t, err)
	assert.Equal(t, "from a file", text)

	text, err = readInput(&Options{Args: []string{"two", "words"}}, nil)
	require.NoError(t, err)
	assert.Equal(t, "two words", text)
}

// writeConfig writes a configuration directory whose scratch paths live in dir.
func writeConfig(t *testing.T, dir string) string {
	t.Helper()
	configDir := filepath.Join(dir, "configs")
	require.NoError(t, os.MkdirAll(configDir, 0o755))
	body := fmt.Sprintf(`
[application]
log_level = "warn"

[storage]
output_directory = %q
temp_directory = %q

[rendering]
preset = "ultrafast"

[speech]
engine = "silent"
`, filepath.Join(dir, "out"), filepath.Join(dir, "tmp"))
	require.NoError(t, os.WriteFile(filepath.Join(configDir, ".env.toml"), []byte(body), 0o644))
	return configDir
}

func TestRunRendersVideo(t *testing.T) {
	test.RequireFFmpeg(t)
	t.Setenv(cloud.EnvConfigFilePrefix, "")
	t.Setenv(cloud.EnvConfigRuntime, "cli-test")

	dir := t.TempDir()
	configDir := writeConfig(t, dir)
	output := filepath.Join(dir, "reel.mp4")
	scriptPath := filepath.Join(dir, "script.yaml")

	var stdout, stderr bytes.Buffer
	code := run([]string{
		"-config", configDir,
		"-width", "640", "-height", "360",
		"-o", output,
		"-save-script", scriptPath,
		"This is a test. Here is a second sentence.",
	}, strings.NewReader(""), &stdout, &stderr)
	require.Equal(t, exitOK, code, stderr.String())
	assert.Contains(t, stdout.String(), output)
	assert.FileExists(t, output)

	script, err := model.LoadScriptFile(scriptPath)
	require.NoError(t, err)
	assert.Len(t, script.Scenes, 2)

	// The saved script renders again without a model.
	again := filepath.Join(dir, "again.mp4")
	code = run([]string{"-config", configDir, "-width", "640", "-height", "360", "-o", again, "-script", scriptPath},
		strings.NewReader(""), &stdout, &stderr)
	require.Equal(t, exitOK, code, stderr.String())
	assert.FileExists(t, again)
}

func TestRunFailsWithoutBackend(t *testing.T) {
	test.RequireFFmpeg(t)
	t.Setenv(cloud.EnvConfigFilePrefix, "")
	t.Setenv(cloud.EnvConfigRuntime, "cli-test")
	t.Setenv(cloud.EnvOpenAIAPIKey, "")

	dir := t.TempDir()
	var stderr bytes.Buffer
	code := run([]string{"-config", writeConfig(t, dir), "-use-openai", "-o", filepath.Join(dir, "x.mp4"), "story"},
		strings.NewReader(""), &bytes.Buffer{}, &stderr)
	assert.Equal(t, exitError, code)
	assert.Contains(t, stderr.String(), "unavailable")
}
