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

// Package services exposes the pipeline to the API, the CLI and the queue
// listener.
package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"

	"golang.org/x/sync/semaphore"

	"github.com/jaycherian/gcp-go-story-reel/internal/core/commands"
	"github.com/jaycherian/gcp-go-story-reel/internal/core/cor"
	"github.com/jaycherian/gcp-go-story-reel/internal/core/model"
)

// ErrBusy is returned when the caller gave up waiting for the render slot.
var ErrBusy = errors.New("another video is being generated")

// ReelService runs the generator workflow for one request at a time.
type ReelService struct {
	Workflow cor.Command
	slot     *semaphore.Weighted
}

func NewReelService(workflow cor.Command) *ReelService {
	return &ReelService{Workflow: workflow, slot: semaphore.NewWeighted(1)}
}

// Generate waits for the render slot, bounded by ctx, and then renders req.
// Command errors are joined in command name order.
func (s *ReelService) Generate(ctx context.Context, req *model.GenerateRequest) (*model.RenderResult, error) {
	if req == nil {
		return nil, model.ErrEmptyInput
	}
	if err := s.slot.Acquire(ctx, 1); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrBusy, err)
	}
	defer s.slot.Release(1)

	chainCtx := cor.NewBaseContext()
	chainCtx.SetContext(ctx)
	chainCtx.Add(cor.CtxIn, req)
	defer chainCtx.Close()

	s.Workflow.Execute(chainCtx)

	if chainCtx.HasErrors() {
		return nil, joinErrors(chainCtx.GetErrors())
	}
	result, ok := chainCtx.Get(commands.ResultParam).(*model.RenderResult)
	if !ok {
		return nil, errors.New("workflow finished without a result")
	}
	slog.InfoContext(ctx, "video generated", "id", result.ID, "video_path", result.OutputPath, "duration_seconds", result.ProbedDuration)
	return result, nil
}

// Busy reports whether a render is in progress.
func (s *ReelService) Busy() bool {
	if !s.slot.TryAcquire(1) {
		return true
	}
	s.slot.Release(1)
	return false
}

func joinErrors(errs map[string]error) error {
	names := make([]string, 0, len(errs))
	for name := range errs {
		names = append(names, name)
	}
	sort.Strings(names)
	out := make([]error, 0, len(names))
	for _, name := range names {
		out = append(out, fmt.Errorf("%s: %w", name, errs[name]))
	}
	return errors.Join(out...)
}
