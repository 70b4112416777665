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

// Command server exposes the story-to-reel pipeline over HTTP and, when a
// generation subscription is configured, over Pub/Sub.
package main

import (
	"context"
	"errors"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"

	"github.com/jaycherian/gcp-go-story-reel/internal/telemetry"
)

func main() {
	config := GetConfig()

	closeLog, err := telemetry.SetupLogging(os.Stdout, config.Application.LogLevel, config.Application.LogFile)
	if err != nil {
		log.Fatal(err)
	}
	defer closeLog()
	slog.Info("Logging initialized")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	shutdownTelemetry, err := telemetry.SetupOpenTelemetry(ctx, config)
	if err != nil {
		slog.Error("Failed to setup OpenTelemetry", "error", err)
		log.Fatal(err)
	}
	slog.Info("Tracing initialized", "exporter", config.Telemetry.Exporter)

	if err := InitState(ctx); err != nil {
		slog.Error("Failed to initialize state", "error", err)
		log.Fatal(err)
	}
	defer CloseState()
	slog.Info("Initialized State")

	requestTimeout := time.Duration(config.Server.RequestTimeoutSeconds) * time.Second
	api := &API{
		ServiceName:    config.Application.Name,
		Generator:      state.reelService,
		Videos:         state.videoService,
		Backends:       state.generator.Registry().Names(),
		DefaultBackend: config.Application.DefaultBackend,
		RequestTimeout: requestTimeout,
	}

	r := gin.Default()
	r.Use(otelgin.Middleware(config.Application.Name))
	r.Use(cors.Default())
	api.Routes(r)

	srv := &http.Server{
		Addr:         config.Server.Address,
		Handler:      r,
		ReadTimeout:  20 * time.Second,
		WriteTimeout: requestTimeout + 30*time.Second, // renders run inside the request
	}

	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("failed to listen", "error", err)
			cancel()
		}
	}()
	slog.Info("Server ready", "address", config.Server.Address, "backends", api.Backends)

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	select {
	case <-quit:
	case <-ctx.Done():
	}
	slog.Info("Shutdown Server ...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), time.Duration(config.Server.ShutdownTimeoutSeconds)*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		slog.Error("Server Shutdown Failed", "error", err)
	}
	// Stops the Pub/Sub receivers.
	cancel()
	if err := shutdownTelemetry(shutdownCtx); err != nil {
		slog.Error("failed to shutdown telemetry", "error", err)
	}

	slog.Info("Server exiting")
}
