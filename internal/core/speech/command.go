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

package speech

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
)

// Placeholders understood in the command template.
const (
	PlaceholderText   = "{text}"
	PlaceholderLang   = "{lang}"
	PlaceholderVoice  = "{voice}"
	PlaceholderOutput = "{output}"
)

// CommandSynthesizer runs an external TTS program such as gtts-cli, edge-tts
// or espeak-ng. The template is split into arguments before substitution,
// so narration with spaces stays a single argument.
type CommandSynthesizer struct {
	args     []string
	language string
	voice    string
}

func NewCommandSynthesizer(template string, language string, voice string) (*CommandSynthesizer, error) {
	args := strings.Fields(template)
	if len(args) == 0 {
		return nil, errors.New("speech command template is empty")
	}
	if !strings.Contains(template, PlaceholderOutput) {
		return nil, fmt.Errorf("speech command template must contain %s", PlaceholderOutput)
	}
	return &CommandSynthesizer{args: args, language: language, voice: voice}, nil
}

func (c *CommandSynthesizer) Name() string {
	return EngineCommand
}

// Args returns the argv for one invocation.
func (c *CommandSynthesizer) Args(text string, outPathNoExt string) []string {
	replacer := strings.NewReplacer(
		PlaceholderText, text,
		PlaceholderLang, c.language,
		PlaceholderVoice, c.voice,
		PlaceholderOutput, outPathNoExt,
	)
	out := make([]string, len(c.args))
	for i, a := range c.args {
		out[i] = replacer.Replace(a)
	}
	return out
}

func (c *CommandSynthesizer) Synthesize(ctx context.Context, text string, outPathNoExt string) (string, error) {
	if err := checkText(text); err != nil {
		return "", err
	}
	if err := os.MkdirAll(filepath.Dir(outPathNoExt), 0o755); err != nil {
		return "", fmt.Errorf("failed to create audio directory: %w", err)
	}

	args := c.Args(text, outPathNoExt)
	cmd := exec.CommandContext(ctx, args[0], args[1:]...)
	if out, err := cmd.CombinedOutput(); err != nil {
		if ctx.Err() != nil {
			return "", ctx.Err()
		}
		return "", fmt.Errorf("failed to generate audio with %s: %w: %s", args[0], err, strings.TrimSpace(string(out)))
	}

	produced, err := findOutput(outPathNoExt)
	if err != nil {
		return "", err
	}
	return fixExtension(produced, outPathNoExt)
}

// findOutput locates the file the command wrote, with or without an
// extension.
func findOutput(outPathNoExt string) (string, error) {
	if info, err := os.Stat(outPathNoExt); err == nil && !info.IsDir() {
		return outPathNoExt, nil
	}
	matches, err := filepath.Glob(outPathNoExt + ".*")
	if err != nil {
		return "", err
	}
	for _, m := range matches {
		if info, err := os.Stat(m); err == nil && info.Size() > 0 {
			return m, nil
		}
	}
	return "", fmt.Errorf("audio file was not created at %s", outPathNoExt)
}
