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
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"strings"

	"cloud.google.com/go/storage"
	"github.com/h2non/filetype"

	"github.com/jaycherian/gcp-go-story-reel/internal/core/cor"
	"github.com/jaycherian/gcp-go-story-reel/internal/core/model"
)

// maxImageBytes caps a downloaded background image.
const maxImageBytes = 32 << 20

// BackgroundImageFetcher downloads scene background images that live in
// Cloud Storage (gs://) or behind http(s) into the working directory, so the
// painter only ever reads local files.
type BackgroundImageFetcher struct {
	cor.BaseCommand
	client     *storage.Client
	httpClient *http.Client
}

// NewBackgroundImageFetcher accepts a nil storage client; gs:// images then
// fail the render.
func NewBackgroundImageFetcher(name string, client *storage.Client, httpClient *http.Client) *BackgroundImageFetcher {
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	return &BackgroundImageFetcher{
		BaseCommand: *cor.NewBaseCommand(name),
		client:      client,
		httpClient:  httpClient,
	}
}

// IsRemoteImage reports whether ref must be downloaded before painting.
func IsRemoteImage(ref string) bool {
	ref = strings.ToLower(strings.TrimSpace(ref))
	return strings.HasPrefix(ref, "gs://") || strings.HasPrefix(ref, "http://") || strings.HasPrefix(ref, "https://")
}

// IsExecutable skips the step when no scene uses a remote image.
func (c *BackgroundImageFetcher) IsExecutable(context cor.Context) bool {
	if context == nil || context.GetContext() == nil {
		return false
	}
	script, err := scriptFrom(context)
	if err != nil {
		return false
	}
	for _, scene := range script.Scenes {
		if IsRemoteImage(scene.BackgroundImage) {
			return true
		}
	}
	return false
}

func (c *BackgroundImageFetcher) Execute(context cor.Context) {
	script, err := scriptFrom(context)
	if err != nil {
		c.Fail(context, err)
		return
	}
	workDir, err := workDirFrom(context)
	if err != nil {
		c.Fail(context, err)
		return
	}
	assets := assetsFrom(context)

	for _, scene := range script.Scenes {
		if !IsRemoteImage(scene.BackgroundImage) {
			continue
		}
		target := filepath.Join(workDir, fmt.Sprintf("bg_src_%d", scene.Number))
		path, err := c.fetch(context, scene.BackgroundImage, target)
		if err != nil {
			c.Fail(context, fmt.Errorf("scene %d: %w", scene.Number, err))
			return
		}
		assets[model.BackgroundSourceKey(scene.Number)] = path
	}

	c.Succeed(context)
	context.Add(c.GetOutputParam(), script)
}

func (c *BackgroundImageFetcher) fetch(context cor.Context, ref string, target string) (string, error) {
	reader, err := c.open(context, ref)
	if err != nil {
		return "", err
	}
	defer func(reader io.ReadCloser) {
		if err := reader.Close(); err != nil {
			slog.Warn("failed to close image reader", "source", ref, "error", err)
		}
	}(reader)

	file, err := os.Create(target)
	if err != nil {
		return "", fmt.Errorf("could not create %s: %w", target, err)
	}
	written, err := io.Copy(file, io.LimitReader(reader, maxImageBytes+1))
	_ = file.Close()
	if err != nil {
		return "", fmt.Errorf("failed to download %s: %w", ref, err)
	}
	if written > maxImageBytes {
		return "", fmt.Errorf("image %s is larger than %d bytes", ref, maxImageBytes)
	}

	kind, err := filetype.MatchFile(target)
	if err != nil || kind.MIME.Type != "image" {
		return "", fmt.Errorf("%s is not an image", ref)
	}
	path := target + "." + kind.Extension
	if err := os.Rename(target, path); err != nil {
		return "", fmt.Errorf("failed to rename %s: %w", target, err)
	}
	slog.DebugContext(context.GetContext(), "background image downloaded", "source", ref, "path", path, "bytes", written)
	return path, nil
}

func (c *BackgroundImageFetcher) open(context cor.Context, ref string) (io.ReadCloser, error) {
	u, err := url.Parse(strings.TrimSpace(ref))
	if err != nil {
		return nil, fmt.Errorf("invalid image reference %q: %w", ref, err)
	}

	if strings.EqualFold(u.Scheme, "gs") {
		if c.client == nil {
			return nil, fmt.Errorf("cannot read %s: no storage client configured", ref)
		}
		reader, err := c.client.Bucket(u.Host).Object(strings.TrimPrefix(u.Path, "/")).NewReader(context.GetContext())
		if err != nil {
			return nil, fmt.Errorf("failed to create GCS reader for %s: %w", ref, err)
		}
		return reader, nil
	}

	req, err := http.NewRequestWithContext(context.GetContext(), http.MethodGet, u.String(), nil)
	if err != nil {
		return nil, err
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch %s: %w", ref, err)
	}
	if resp.StatusCode != http.StatusOK {
		_ = resp.Body.Close()
		return nil, fmt.Errorf("failed to fetch %s: status %s", ref, resp.Status)
	}
	return resp.Body, nil
}
