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
	"bytes"
	"encoding/json"
	"fmt"
	"text/template"

	"github.com/jaycherian/gcp-go-story-reel/internal/core/model"
)

// DefaultScriptPrompt is used when prompt_templates.script is empty.
const DefaultScriptPrompt = `You are a video script generator. Generate a JSON structure for a video script based on the input text.

The output must be valid JSON with this structure:
{{.EXAMPLE_JSON}}

Split the input text into {{.MIN_SCENES}}-{{.MAX_SCENES}} scenes. Each scene should have appropriate duration based on text length.
Use "dialogue" for the narration that is spoken and "display_text" for the subtitle shown on screen.
"background_color" must be a hex colour such as "#1a1a2e". Reply with the JSON object only.`

// ParsePromptTemplate compiles the script prompt, using DefaultScriptPrompt
// for empty text.
func ParsePromptTemplate(text string) (*template.Template, error) {
	if text == "" {
		text = DefaultScriptPrompt
	}
	tmpl, err := template.New("script").Option("missingkey=error").Parse(text)
	if err != nil {
		return nil, fmt.Errorf("failed to parse prompt template: %w", err)
	}
	return tmpl, nil
}

// PromptParams are the values available to the prompt template.
func PromptParams(minScenes, maxScenes int) map[string]interface{} {
	params := make(map[string]interface{})
	example, _ := json.MarshalIndent(model.GetExampleScript(), "", "  ")
	params["EXAMPLE_JSON"] = string(example)
	params["MIN_SCENES"] = minScenes
	params["MAX_SCENES"] = maxScenes
	return params
}

// RenderPrompt executes tmpl with PromptParams.
func RenderPrompt(tmpl *template.Template, minScenes, maxScenes int) (string, error) {
	var buffer bytes.Buffer
	if err := tmpl.Execute(&buffer, PromptParams(minScenes, maxScenes)); err != nil {
		return "", fmt.Errorf("failed to execute prompt template: %w", err)
	}
	return buffer.String(), nil
}
