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
	"context"
	"fmt"
	"log/slog"

	"github.com/jaycherian/gcp-go-story-reel/internal/core/cor"
	"github.com/jaycherian/gcp-go-story-reel/internal/core/model"
)

// ReelGenerator renders one request from start to finish.
type ReelGenerator interface {
	Generate(ctx context.Context, req *model.GenerateRequest) (*model.RenderResult, error)
}

// GenerateDispatcher hands a decoded request to a ReelGenerator, so queued
// requests share the same single render slot as API requests.
type GenerateDispatcher struct {
	cor.BaseCommand
	generator ReelGenerator
}

func NewGenerateDispatcher(name string, generator ReelGenerator) *GenerateDispatcher {
	return &GenerateDispatcher{BaseCommand: *cor.NewBaseCommand(name), generator: generator}
}

func (d *GenerateDispatcher) Execute(context cor.Context) {
	req, ok := context.Get(d.GetInputParam()).(*model.GenerateRequest)
	if !ok || req == nil {
		d.Fail(context, fmt.Errorf("%w: no generate request", model.ErrInvalidRequest))
		return
	}

	result, err := d.generator.Generate(context.GetContext(), req)
	if err != nil {
		d.Fail(context, err)
		return
	}
	slog.InfoContext(context.GetContext(), "queued render finished", "id", result.ID, "video_path", result.OutputPath)

	d.Succeed(context)
	context.Add(ResultParam, result)
	context.Add(d.GetOutputParam(), result)
}
