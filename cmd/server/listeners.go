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

package main

import (
	"context"
	"log/slog"

	"github.com/jaycherian/gcp-go-story-reel/internal/cloud"
	"github.com/jaycherian/gcp-go-story-reel/internal/core/services"
	"github.com/jaycherian/gcp-go-story-reel/internal/core/workflow"
)

// GenerationSubscription is the topic_subscriptions key of the queue that
// carries generation requests.
const GenerationSubscription = "generation"

// SetupListeners attaches the generation workflow to its subscription.
// Queued renders go through reelService and so wait for API renders.
func SetupListeners(ctx context.Context, config *cloud.Config, cloudClients *cloud.ServiceClients, reelService *services.ReelService) {
	for key := range config.TopicSubscriptions {
		if key != GenerationSubscription {
			slog.Warn("ignoring unknown subscription", "key", key)
		}
	}
	listener, ok := cloudClients.PubSubListeners[GenerationSubscription]
	if !ok {
		return
	}
	listener.SetCommand(workflow.NewGenerationRequestWorkflow(reelService))
	listener.Listen(ctx)
}
