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

package cor_test

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/jaycherian/gcp-go-story-reel/internal/core/cor"
	"github.com/zeebo/assert"
)

// appendCommand appends its name to the string input.
type appendCommand struct {
	cor.BaseCommand
	suffix string
	fail   bool
}

func newAppend(name, suffix string, fail bool) *appendCommand {
	return &appendCommand{BaseCommand: *cor.NewBaseCommand(name), suffix: suffix, fail: fail}
}

func (a *appendCommand) Execute(context cor.Context) {
	if a.fail {
		a.Fail(context, errors.New("boom"))
		return
	}
	in := context.Get(a.GetInputParam()).(string)
	context.Add(a.GetOutputParam(), in+a.suffix)
	a.Succeed(context)
}

// quietCommand succeeds without writing an output.
type quietCommand struct {
	cor.BaseCommand
}

func (q *quietCommand) Execute(context cor.Context) { q.Succeed(context) }

// neverCommand is never executable.
type neverCommand struct {
	cor.BaseCommand
	ran bool
}

func (n *neverCommand) IsExecutable(cor.Context) bool { return false }
func (n *neverCommand) Execute(cor.Context)         { n.ran = true }

func newContext(in any) cor.Context {
	ctx := cor.NewBaseContext()
	ctx.SetContext(context.Background())
	if in != nil {
		ctx.Add(cor.CtxIn, in)
	}
	return ctx
}

func TestChainPipesOutputToInput(t *testing.T) {
	chain := cor.NewBaseChain("pipe")
	chain.AddCommand(newAppend("a", "-a", false)).AddCommand(newAppend("b", "-b", false))

	ctx := newContext("start")
	assert.True(t, chain.IsExecutable(ctx))
	chain.Execute(ctx)

	assert.False(t, ctx.HasErrors())
	assert.Equal(t, "start-a-b", ctx.Get(cor.CtxIn))
	assert.Nil(t, ctx.Get(cor.CtxOut))
}

func TestChainStopsOnFirstError(t *testing.T) {
	last := newAppend("last", "-z", false)
	chain := cor.NewBaseChain("stop")
	chain.AddCommand(newAppend("broken", "", true)).AddCommand(last)

	ctx := newContext("start")
	chain.Execute(ctx)

	assert.True(t, ctx.HasErrors())
	assert.Equal(t, 1, len(ctx.GetErrors()))
	_, ok := ctx.GetErrors()["broken"]
	assert.True(t, ok)
	assert.Equal(t, "start", ctx.Get(cor.CtxIn))
}

func TestChainContinueOnFailure(t *testing.T) {
	chain := cor.NewBaseChain("continue")
	chain.ContinueOnFailure(true)
	chain.AddCommand(newAppend("broken", "", true)).AddCommand(newAppend("after", "-after", false))

	ctx := newContext("start")
	chain.Execute(ctx)

	assert.True(t, ctx.HasErrors())
	assert.Equal(t, "start-after", ctx.Get(cor.CtxIn))
}

func TestChainSkipsNonExecutableWithoutLosingInput(t *testing.T) {
	never := &neverCommand{BaseCommand: *cor.NewBaseCommand("never")}
	chain := cor.NewBaseChain("skip")
	chain.AddCommand(never).AddCommand(newAppend("after", "-x", false))

	ctx := newContext("in")
	chain.Execute(ctx)

	assert.False(t, never.ran)
	assert.False(t, ctx.HasErrors())
	assert.Equal(t, "in-x", ctx.Get(cor.CtxIn))
}

func TestChainHonoursCancellation(t *testing.T) {
	chain := cor.NewBaseChain("cancel")
	chain.AddCommand(newAppend("a", "-a", false))

	goCtx, cancel := context.WithCancel(context.Background())
	cancel()
	ctx := cor.NewBaseContext()
	ctx.SetContext(goCtx)
	ctx.Add(cor.CtxIn, "in")

	chain.Execute(ctx)

	assert.True(t, ctx.HasErrors())
	assert.True(t, errors.Is(ctx.GetErrors()["cancel"], context.Canceled))
	assert.Equal(t, goCtx, ctx.GetContext())
}

func TestContextCloseRemovesTempFiles(t *testing.T) {
	dir := t.TempDir()
	work := filepath.Join(dir, "work")
	assert.NoError(t, os.MkdirAll(work, 0o755))
	file := filepath.Join(work, "audio.wav")
	assert.NoError(t, os.WriteFile(file, []byte("x"), 0o644))

	ctx := newContext(nil)
	ctx.AddTempFile(work)
	ctx.AddTempFile(file)
	assert.Equal(t, 2, len(ctx.GetTempFiles()))

	ctx.Close()

	_, err := os.Stat(work)
	assert.True(t, os.IsNotExist(err))
	assert.Equal(t, 0, len(ctx.GetTempFiles()))
}

func TestBaseCommandDefaults(t *testing.T) {
	cmd := cor.NewBaseCommand("defaults")
	assert.Equal(t, cor.CtxIn, cmd.GetInputParam())
	assert.Equal(t, cor.CtxOut, cmd.GetOutputParam())

	cmd.OutputParamName = "__SCRIPT__"
	assert.Equal(t, "__SCRIPT__", cmd.GetOutputParam())

	assert.False(t, cmd.IsExecutable(newContext(nil)))
	assert.True(t, cmd.IsExecutable(newContext("x")))
}

func TestChainKeepsInputWhenCommandWritesNoOutput(t *testing.T) {
	quiet := &quietCommand{BaseCommand: *cor.NewBaseCommand("quiet")}
	chain := cor.NewBaseChain("quiet")
	chain.AddCommand(quiet).AddCommand(newAppend("after", "-after", false))

	ctx := newContext("start")
	chain.Execute(ctx)

	assert.False(t, ctx.HasErrors())
	assert.Equal(t, "start-after", ctx.Get(cor.CtxIn))
}

func TestChainContinueOnFailureRunsEveryCommand(t *testing.T) {
	chain := cor.NewBaseChain("continue-all")
	chain.ContinueOnFailure(true)
	chain.AddCommand(newAppend("first", "", true)).
		AddCommand(newAppend("second", "", true)).
		AddCommand(newAppend("third", "-third", false))

	ctx := newContext("start")
	chain.Execute(ctx)

	assert.Equal(t, 2, len(ctx.GetErrors()))
	assert.Equal(t, "start-third", ctx.Get(cor.CtxIn))
}
