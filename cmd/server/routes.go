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
	"errors"
	"log/slog"
	"net/http"
	"path/filepath"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/jaycherian/gcp-go-story-reel/internal/core/commands"
	"github.com/jaycherian/gcp-go-story-reel/internal/core/llm"
	"github.com/jaycherian/gcp-go-story-reel/internal/core/model"
	"github.com/jaycherian/gcp-go-story-reel/internal/core/services"
)

// GenerateBody is the POST /api/v1/generate payload.
type GenerateBody struct {
	InputText  string `json:"input_text"`
	UseMockLLM *bool  `json:"use_mock_llm"`
	Backend    string `json:"backend"`
	Width      int    `json:"width"`
	Height     int    `json:"height"`
	OutputName string `json:"output_name"`
	Script     string `json:"script"`
}

// API carries what the handlers depend on.
type API struct {
	ServiceName    string
	Generator      commands.ReelGenerator
	Videos         *services.VideoService
	Backends       []string
	DefaultBackend string
	RequestTimeout time.Duration
}

// Backend picks the backend for body: an explicit name wins, otherwise the
// mock unless use_mock_llm is false, in which case the configured default or
// the first real backend is used.
func (a *API) Backend(body *GenerateBody) string {
	if body.Backend != "" {
		return body.Backend
	}
	if body.UseMockLLM == nil || *body.UseMockLLM {
		return llm.MockBackendName
	}
	if a.DefaultBackend != "" && a.DefaultBackend != llm.MockBackendName {
		return a.DefaultBackend
	}
	for _, name := range a.Backends {
		if name != llm.MockBackendName {
			return name
		}
	}
	return llm.MockBackendName
}

func (a *API) Routes(r *gin.Engine) {
	r.GET("/", a.Root)

	apiV1 := r.Group("/api/v1")
	{
		apiV1.POST("/generate", a.Generate)
		apiV1.GET("/video/:filename", a.Video)
		apiV1.GET("/health", a.Health)
	}
}

func (a *API) Root(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"message":  "Story to Reel API",
		"backends": a.Backends,
		"endpoints": gin.H{
			"generate": "POST /api/v1/generate",
			"video":    "GET /api/v1/video/:filename",
			"health":   "GET /api/v1/health",
		},
	})
}

// Health reports liveness and whether a render currently holds the slot.
func (a *API) Health(c *gin.Context) {
	rendering := false
	if b, ok := a.Generator.(interface{ Busy() bool }); ok {
		rendering = b.Busy()
	}
	c.JSON(http.StatusOK, gin.H{"status": "healthy", "service": a.ServiceName, "rendering": rendering})
}

func (a *API) Generate(c *gin.Context) {
	var body GenerateBody
	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body: " + err.Error()})
		return
	}

	req := &model.GenerateRequest{
		InputText:  body.InputText,
		Backend:    a.Backend(&body),
		Width:      body.Width,
		Height:     body.Height,
		OutputName: body.OutputName,
		ScriptJSON: body.Script,
	}
	req.ApplyDefaults()
	if err := req.Validate(); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	ctx := c.Request.Context()
	if a.RequestTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, a.RequestTimeout)
		defer cancel()
	}

	result, err := a.Generator.Generate(ctx, req)
	if err != nil {
		status := StatusFor(err)
		slog.ErrorContext(ctx, "video generation failed", "status", status, "error", err)
		c.JSON(status, gin.H{"error": err.Error(), "status": "failed"})
		return
	}

	videoURL := result.RemoteURL
	if videoURL == "" {
		videoURL = "/api/v1/video/" + filepath.Base(result.OutputPath)
	}
	c.JSON(http.StatusOK, gin.H{
		"message":          "Video generated successfully",
		"status":           "completed",
		"id":               result.ID,
		"video_path":       result.OutputPath,
		"video_url":        videoURL,
		"backend":          result.Backend,
		"title":            result.Script.Title,
		"scenes":           len(result.Script.Scenes),
		"duration_seconds": result.ProbedDuration,
	})
}

func (a *API) Video(c *gin.Context) {
	file, err := a.Videos.Open(c.Param("filename"))
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "video not found"})
		return
	}
	defer file.Close()
	info, err := file.Stat()
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "video not found"})
		return
	}
	c.Header("Content-Type", "video/mp4")
	http.ServeContent(c.Writer, c.Request, info.Name(), info.ModTime(), file)
}

// StatusFor maps a generation error onto an HTTP status.
func StatusFor(err error) int {
	var validation *model.ValidationError
	switch {
	case errors.Is(err, model.ErrEmptyInput), errors.Is(err, model.ErrInvalidRequest):
		return http.StatusBadRequest
	case errors.As(err, &validation):
		return http.StatusUnprocessableEntity
	case errors.Is(err, services.ErrBusy):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}
