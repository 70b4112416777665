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

package commands

import (
	"fmt"
	"log/slog"

	"github.com/jaycherian/gcp-go-story-reel/internal/core/cor"
	"github.com/jaycherian/gcp-go-story-reel/internal/core/model"
)

// ScriptJsonToStruct validates the raw script and stores the parsed
// *model.Script under ScriptParam.
type ScriptJsonToStruct struct {
	cor.BaseCommand
}

func NewScriptJsonToStruct(name string) *ScriptJsonToStruct {
	return &ScriptJsonToStruct{BaseCommand: *cor.NewBaseCommand(name)}
}

func (s *ScriptJsonToStruct) Execute(context cor.Context) {
	in, ok := context.Get(s.GetInputParam()).(string)
	if !ok {
		s.Fail(context, fmt.Errorf("expected a raw script string, got %T", context.Get(s.GetInputParam())))
		return
	}

	script, err := model.ParseScript(in)
	if err != nil {
		s.Fail(context, err)
		return
	}
	slog.InfoContext(context.GetContext(), "script accepted",
		"title", script.Title,
		"scenes", len(script.Scenes),
		"total_duration_seconds", script.TotalDurationSeconds)

	s.Succeed(context)
	context.Add(ScriptParam, script)
	context.Add(s.GetOutputParam(), script)
}
