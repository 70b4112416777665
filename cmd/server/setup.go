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
	"fmt"
	"log"
	"os"

	"github.com/jaycherian/gcp-go-story-reel/internal/cloud"
	"github.com/jaycherian/gcp-go-story-reel/internal/core/services"
	"github.com/jaycherian/gcp-go-story-reel/internal/core/workflow"
)

// StateManager holds everything the handlers and listeners share.
type StateManager struct {
	config       *cloud.Config
	cloud        *cloud.ServiceClients
	generator    *workflow.ReelGeneratorWorkflow
	reelService  *services.ReelService
	videoService *services.VideoService
}

var state = &StateManager{}

// SetupOS defaults the config directory and runtime when the environment
// does not set them.
func SetupOS() (err error) {
	if os.Getenv(cloud.EnvConfigFilePrefix) == "" {
		if err = os.Setenv(cloud.EnvConfigFilePrefix, "configs"); err != nil {
			return err
		}
	}
	if os.Getenv(cloud.EnvConfigRuntime) == "" {
		err = os.Setenv(cloud.EnvConfigRuntime, cloud.DefaultRuntime)
	}
	return err
}

func GetConfig() *cloud.Config {
	if state.config == nil {
		if err := SetupOS(); err != nil {
			log.Fatalf("failed to setup os: %v\n", err)
		}
		config := cloud.NewConfig()
		if err := cloud.LoadConfig(config); err != nil {
			log.Fatalf("failed to load configuration: %v\n", err)
		}
		state.config = config
	}
	return state.config
}

// InitState creates the cloud clients, the generator workflow and the
// services, then starts the queue listeners.
func InitState(ctx context.Context) error {
	config := GetConfig()

	cloudClients, err := cloud.NewCloudServiceClients(ctx, config)
	if err != nil {
		return err
	}
	state.cloud = cloudClients

	generator, err := workflow.NewReelGeneratorWorkflowFromConfig(ctx, config, cloudClients)
	if err != nil {
		return fmt.Errorf("failed to create reel generator: %w", err)
	}
	state.generator = generator
	state.reelService = services.NewReelService(generator)
	state.videoService = &services.VideoService{OutputDirectory: config.Storage.OutputDirectory}

	if err := os.MkdirAll(config.Storage.OutputDirectory, 0o755); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}

	SetupListeners(ctx, config, cloudClients, state.reelService)
	return nil
}

// CloseState releases the clients opened by InitState.
func CloseState() {
	if state.generator != nil {
		_ = state.generator.Close()
	}
	state.cloud.Close()
}
