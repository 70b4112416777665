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

package workflow

import (
	"github.com/jaycherian/gcp-go-story-reel/internal/core/commands"
	"github.com/jaycherian/gcp-go-story-reel/internal/core/cor"
)

// GenerationRequestWorkflow handles one queued generation message: the raw
// JSON body under cor.CtxIn is decoded and handed to the generator.
type GenerationRequestWorkflow struct {
	cor.BaseCommand
	generator commands.ReelGenerator
	chain     cor.Chain
}

func (g *GenerationRequestWorkflow) Execute(context cor.Context) {
	g.chain.Execute(context)
}

func (g *GenerationRequestWorkflow) initializeChain() {
	out := cor.NewBaseChain(g.GetName())
	out.AddCommand(commands.NewGenerateMessageReader("read-generation-message"))
	out.AddCommand(commands.NewGenerateDispatcher("dispatch-generation", g.generator))
	g.chain = out
}

func NewGenerationRequestWorkflow(generator commands.ReelGenerator) *GenerationRequestWorkflow {
	out := &GenerationRequestWorkflow{
		BaseCommand: *cor.NewBaseCommand("generation-request-pipeline"),
		generator:   generator,
	}
	out.initializeChain()
	return out
}
