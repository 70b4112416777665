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

package services

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/h2non/filetype"

	"github.com/jaycherian/gcp-go-story-reel/internal/core/model"
)

// ErrVideoNotFound covers names that are invalid, missing or not an MP4.
var ErrVideoNotFound = errors.New("video not found")

// VideoService serves finished videos out of the output directory.
type VideoService struct {
	OutputDirectory string
}

// Resolve returns the path of name inside the output directory. Only plain
// "*.mp4" names that sniff as MP4 are accepted.
func (s *VideoService) Resolve(name string) (string, error) {
	if err := model.ValidateOutputName(name); err != nil {
		return "", fmt.Errorf("%w: %s", ErrVideoNotFound, name)
	}
	path := filepath.Join(s.OutputDirectory, name)
	info, err := os.Stat(path)
	if err != nil || !info.Mode().IsRegular() {
		return "", fmt.Errorf("%w: %s", ErrVideoNotFound, name)
	}
	kind, err := filetype.MatchFile(path)
	if err != nil || kind.MIME.Value != "video/mp4" {
		return "", fmt.Errorf("%w: %s is not an MP4", ErrVideoNotFound, name)
	}
	return path, nil
}

// Open resolves name and opens it. The caller closes the file.
func (s *VideoService) Open(name string) (*os.File, error) {
	path, err := s.Resolve(name)
	if err != nil {
		return nil, err
	}
	return os.Open(path)
}
