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

// Package commands holds the steps of the reel pipeline. Each step is a
// cor.Command that reads typed values left in the chain context by the steps
// before it and records its failure under its own name.
package commands

import (
	"fmt"

	"github.com/jaycherian/gcp-go-story-reel/internal/core/cor"
	"github.com/jaycherian/gcp-go-story-reel/internal/core/model"
)

// Context keys shared by the pipeline steps.
const (
	RequestParam = "__REQUEST__" // *model.GenerateRequest
	WorkDirParam = "__WORK_DIR__"
	BackendParam = "__BACKEND__" // name of the backend that wrote the script
	ScriptParam  = "__SCRIPT__"  // *model.Script
	AssetsParam  = "__ASSETS__"  // model.AssetSet
	ClipsParam   = "__CLIPS__"   // []string, one rendered clip per scene
	VideoParam   = "__VIDEO__"   // path of the concatenated video
	ResultParam  = "__RESULT__"  // *model.RenderResult
)

// ScriptBackendName is reported as the backend when a caller supplied the
// script itself.
const ScriptBackendName = "script"

func requestFrom(context cor.Context) (*model.GenerateRequest, error) {
	req, ok := context.Get(RequestParam).(*model.GenerateRequest)
	if !ok || req == nil {
		return nil, fmt.Errorf("no generate request in context")
	}
	return req, nil
}

func scriptFrom(context cor.Context) (*model.Script, error) {
	script, ok := context.Get(ScriptParam).(*model.Script)
	if !ok || script == nil {
		return nil, fmt.Errorf("no script in context")
	}
	return script, nil
}

func workDirFrom(context cor.Context) (string, error) {
	dir, ok := context.Get(WorkDirParam).(string)
	if !ok || dir == "" {
		return "", fmt.Errorf("no working directory in context")
	}
	return dir, nil
}

// assetsFrom returns the context's asset set, creating it on first use.
func assetsFrom(context cor.Context) model.AssetSet {
	if assets, ok := context.Get(AssetsParam).(model.AssetSet); ok && assets != nil {
		return assets
	}
	assets := model.AssetSet{}
	context.Add(AssetsParam, assets)
	return assets
}
