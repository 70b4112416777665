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

// Package llm turns free text into the raw JSON of a scene script. Each
// language model is a ScriptBackend; the Registry picks one by name and falls
// back to the offline mock when the requested backend is not configured.
package llm

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"sync"
	"time"

	"github.com/jaycherian/gcp-go-story-reel/internal/cloud"
)

// MockBackendName is the name of the backend that never leaves the process.
const MockBackendName = "mock"

// ErrBackendUnavailable is returned when a backend is not registered.
var ErrBackendUnavailable = errors.New("language model backend unavailable")

// ScriptBackend produces the raw script JSON for input text.
type ScriptBackend interface {
	Name() string
	GenerateScript(ctx context.Context, systemPrompt string, input string) (string, error)
}

// Registry holds the configured backends by name. The mock backend is always
// present.
type Registry struct {
	mu       sync.RWMutex
	backends map[string]ScriptBackend
}

func NewRegistry(backends ...ScriptBackend) *Registry {
	r := &Registry{backends: make(map[string]ScriptBackend)}
	r.Register(NewMockBackend())
	for _, b := range backends {
		r.Register(b)
	}
	return r
}

// Register adds or replaces a backend under its own name.
func (r *Registry) Register(backend ScriptBackend) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.backends[backend.Name()] = backend
}

// Get returns the backend registered under name.
func (r *Registry) Get(name string) (ScriptBackend, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	b, ok := r.backends[name]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrBackendUnavailable, name)
	}
	return b, nil
}

// Resolve returns the named backend, or the mock backend with a warning when
// name is not registered. An empty name selects the mock.
func (r *Registry) Resolve(ctx context.Context, name string) ScriptBackend {
	if name == "" {
		name = MockBackendName
	}
	b, err := r.Get(name)
	if err != nil {
		slog.WarnContext(ctx, "falling back to mock backend", "requested", name, "error", err)
		b, _ = r.Get(MockBackendName)
	}
	return b
}

// Names lists the registered backends in sorted order.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]string, 0, len(r.backends))
	for k := range r.backends {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

// NewRegistryFromConfig registers a backend for every agent model that can
// actually be reached: OpenAI entries need an API key, Gemini entries need a
// client in clients. Entries that cannot be used are logged and skipped.
func NewRegistryFromConfig(config *cloud.Config, clients *cloud.ServiceClients) *Registry {
	r := NewRegistry()
	for name, values := range config.AgentModels {
		switch cloud.Provider(name, values) {
		case cloud.ProviderOpenAI:
			if values.APIKey == "" {
				slog.Info("openai backend disabled, no API key", "backend", name)
				continue
			}
			r.Register(NewOpenAIBackend(name, values))
		case cloud.ProviderGemini:
			if clients == nil || clients.AgentModels[name] == nil {
				slog.Info("gemini backend disabled, no client", "backend", name)
				continue
			}
			r.Register(NewGeminiBackend(name, clients.AgentModels[name]).
				WithTimeout(time.Duration(values.TimeoutSeconds) * time.Second))
		default:
			slog.Warn("unknown agent model provider", "backend", name, "provider", values.Provider)
		}
	}
	return r
}
