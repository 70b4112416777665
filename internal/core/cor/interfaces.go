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

// Package cor implements the chain of responsibility used to run the reel
// pipeline. A Chain is itself a Command, so workflows can be nested, and every
// participant shares a single Context that carries inputs, outputs, errors and
// the temporary files that must be removed when the request finishes.
package cor

import (
	"context"

	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
)

const (
	// CtxIn holds the primary input of the command about to run. BaseChain
	// fills it with the previous command's CtxOut.
	CtxIn = "__IN__"
	// CtxOut is where a command leaves its primary output.
	CtxOut = "__OUT__"
)

// Context is the state shared by every command of a chain.
type Context interface {
	// SetContext replaces the Go context used for cancellation and tracing.
	SetContext(context context.Context)
	// GetContext returns the current Go context.
	GetContext() context.Context
	// Add stores a value under key and returns the Context for chaining.
	Add(key string, value interface{}) Context
	// AddError records an error, usually keyed by the failing command's name.
	AddError(key string, err error)
	// GetErrors returns every recorded error.
	GetErrors() map[string]error
	// Get returns the value stored under key, or nil.
	Get(key string) interface{}
	// Remove deletes key.
	Remove(key string)
	// HasErrors reports whether any command has failed.
	HasErrors() bool
	// AddTempFile registers a file or directory to delete on Close.
	AddTempFile(file string)
	// GetTempFiles lists the registered temporary paths.
	GetTempFiles() []string
	// Close deletes every registered temporary path.
	Close()
}

// Executable is anything that can run against a Context.
type Executable interface {
	Execute(context Context)
}

// Command is a single named pipeline step with its own telemetry.
type Command interface {
	Executable

	GetName() string
	// GetInputParam is the context key the command reads its input from.
	GetInputParam() string
	// GetOutputParam is the context key the command writes its output to.
	GetOutputParam() string
	// IsExecutable is checked by the chain before Execute is called.
	IsExecutable(context Context) bool

	GetTracer() trace.Tracer
	GetMeter() metric.Meter
	GetSuccessCounter() metric.Int64Counter
	GetErrorCounter() metric.Int64Counter
}

// Chain runs an ordered list of commands.
type Chain interface {
	Command

	// ContinueOnFailure keeps the chain running after a command records an error.
	ContinueOnFailure(bool) Chain
	// AddCommand appends a command to the chain.
	AddCommand(command Command) Chain
}
