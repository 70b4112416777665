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

package model_test

import (
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/jaycherian/gcp-go-story-reel/internal/core/model"
	"github.com/stretchr/testify/assert"
)

func TestGenerateRequestValidate(t *testing.T) {
	ok := model.GenerateRequest{InputText: "hello.", Width: 1280, Height: 720}
	assert.NoError(t, ok.Validate())

	empty := model.GenerateRequest{InputText: "   ", Width: 1280, Height: 720}
	assert.True(t, errors.Is(empty.Validate(), model.ErrEmptyInput))

	scripted := model.GenerateRequest{ScriptJSON: "{}", Width: 1280, Height: 720}
	assert.NoError(t, scripted.Validate())

	for _, bad := range []model.GenerateRequest{
		{InputText: "x", Width: 320, Height: 720},
		{InputText: "x", Width: 4000, Height: 720},
		{InputText: "x", Width: 1280, Height: 100},
		{InputText: "x", Width: 1281, Height: 720},
		{InputText: "x", Width: 1280, Height: 720, OutputName: "../escape.mp4"},
		{InputText: "x", Width: 1280, Height: 720, OutputName: "clip.avi"},
		{InputText: "x", Width: 1280, Height: 720, OutputPath: "out/clip.mov"},
	} {
		assert.ErrorIs(t, bad.Validate(), model.ErrInvalidRequest, "%+v", bad)
	}
}

func TestGenerateRequestDefaults(t *testing.T) {
	r := model.GenerateRequest{InputText: "x"}
	r.ApplyDefaults()
	assert.Equal(t, model.DefaultWidth, r.Width)
	assert.Equal(t, model.DefaultHeight, r.Height)
}

func TestRenderIDIsDeterministic(t *testing.T) {
	a := model.GenerateRequest{InputText: "same", Width: 1920, Height: 1080}
	b := a
	c := model.GenerateRequest{InputText: "same", Width: 1280, Height: 720}

	assert.Equal(t, a.RenderID(), b.RenderID())
	assert.NotEqual(t, a.RenderID(), c.RenderID())
	assert.Equal(t, uuid.NewSHA1(uuid.NameSpaceURL, []byte("x")).String(), model.NewRenderID("x"))
}

func TestAssetKeys(t *testing.T) {
	assets := model.AssetSet{model.BackgroundKey(3): "bg.png"}
	assert.Equal(t, "bg_3", model.BackgroundKey(3))
	assert.Equal(t, "audio_3", model.AudioKey(3))
	assert.Equal(t, "subtitle_3", model.SubtitleKey(3))
	assert.Equal(t, "bg_src_3", model.BackgroundSourceKey(3))
	assert.True(t, assets.Has("bg_3"))
	assert.False(t, assets.Has(model.AudioKey(3)))
}
