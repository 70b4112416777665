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
	"os"
	"path/filepath"

	"github.com/jaycherian/gcp-go-story-reel/internal/cloud"
	"github.com/jaycherian/gcp-go-story-reel/internal/core/cor"
	"github.com/jaycherian/gcp-go-story-reel/internal/core/model"
)

// GenerateRequestReader is the first step of a render. It validates the
// request, decides where the video is written and creates the scratch
// directory every later step works in.
type GenerateRequestReader struct {
	cor.BaseCommand
	storage   cloud.Storage
	keepFiles bool
}

func NewGenerateRequestReader(name string, storage cloud.Storage, keepFiles bool) *GenerateRequestReader {
	return &GenerateRequestReader{
		BaseCommand: *cor.NewBaseCommand(name),
		storage:     storage,
		keepFiles:   keepFiles,
	}
}

func (c *GenerateRequestReader) Execute(context cor.Context) {
	req, ok := context.Get(c.GetInputParam()).(*model.GenerateRequest)
	if !ok || req == nil {
		c.Fail(context, fmt.Errorf("%w: no generate request", model.ErrInvalidRequest))
		return
	}

	// Work on a copy so the caller's request stays untouched.
	out := *req
	out.ApplyDefaults()
	if err := out.Validate(); err != nil {
		c.Fail(context, err)
		return
	}

	out.OutputPath = c.OutputPath(&out)
	if err := os.MkdirAll(filepath.Dir(out.OutputPath), 0o755); err != nil {
		c.Fail(context, fmt.Errorf("failed to create output directory: %w", err))
		return
	}

	tempDir := c.storage.TempDirectory
	if tempDir == "" {
		tempDir = os.TempDir()
	}
	if err := os.MkdirAll(tempDir, 0o755); err != nil {
		c.Fail(context, fmt.Errorf("failed to create temp directory %s: %w", tempDir, err))
		return
	}
	workDir, err := os.MkdirTemp(tempDir, out.RenderID()+"-")
	if err != nil {
		c.Fail(context, fmt.Errorf("failed to create working directory: %w", err))
		return
	}
	if c.keepFiles {
		slog.InfoContext(context.GetContext(), "keeping render files", "work_dir", workDir)
	} else {
		context.AddTempFile(workDir)
	}

	c.Succeed(context)
	context.Add(RequestParam, &out)
	context.Add(WorkDirParam, workDir)
	context.Add(c.GetOutputParam(), &out)
}

// OutputPath resolves the final video location: an explicit path wins, then
// the requested name inside the output directory, then "<render-id>.mp4".
func (c *GenerateRequestReader) OutputPath(req *model.GenerateRequest) string {
	if req.OutputPath != "" {
		return req.OutputPath
	}
	name := req.OutputName
	if name == "" {
		name = req.RenderID() + ".mp4"
	}
	dir := c.storage.OutputDirectory
	if dir == "" {
		dir = "."
	}
	return filepath.Join(dir, name)
}
