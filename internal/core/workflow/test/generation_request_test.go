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

package workflow_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jaycherian/gcp-go-story-reel/internal/cloud"
	"github.com/jaycherian/gcp-go-story-reel/internal/core/commands"
	"github.com/jaycherian/gcp-go-story-reel/internal/core/cor"
	"github.com/jaycherian/gcp-go-story-reel/internal/core/model"
	"github.com/jaycherian/gcp-go-story-reel/internal/core/workflow"
	test "github.com/jaycherian/gcp-go-story-reel/internal/testutil"
)

type recordingGenerator struct {
	requests []*model.GenerateRequest
}

func (r *recordingGenerator) Generate(_ context.Context, req *model.GenerateRequest) (*model.RenderResult, error) {
	r.requests = append(r.requests, req)
	return &model.RenderResult{ID: req.RenderID(), FileName: req.OutputName}, nil
}

func messageContext(body string) cor.Context {
	chainCtx := cor.NewBaseContext()
	chainCtx.SetContext(ctx)
	chainCtx.Add(cor.CtxIn, body)
	return chainCtx
}

func TestGenerationRequestWorkflow(t *testing.T) {
	generator := &recordingGenerator{}
	pipeline := workflow.NewGenerationRequestWorkflow(generator)

	chainCtx := messageContext(test.GetTestGenerationMessageText())
	defer chainCtx.Close()
	pipeline.Execute(chainCtx)
	require.False(t, chainCtx.HasErrors())

	require.Len(t, generator.requests, 1)
	assert.Equal(t, 640, generator.requests[0].Width)
	result := chainCtx.Get(commands.ResultParam).(*model.RenderResult)
	assert.Equal(t, "pubsub-reel.mp4", result.FileName)
}

func TestGenerationRequestWorkflowDropsBadMessages(t *testing.T) {
	generator := &recordingGenerator{}
	pipeline := workflow.NewGenerationRequestWorkflow(generator)

	for _, body := range []string{`{"input_text": ""}`, `{"input_text": "x", "width": 99}`, `[]`} {
		chainCtx := messageContext(body)
		pipeline.Execute(chainCtx)
		require.True(t, chainCtx.HasErrors(), body)
		for _, e := range chainCtx.GetErrors() {
			assert.True(t, cloud.IsPermanent(e), body)
		}
		chainCtx.Close()
	}
	assert.Empty(t, generator.requests)
}
