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

package speech

import (
	"context"
	"encoding/binary"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"cloud.google.com/go/texttospeech/apiv1/texttospeechpb"
	"github.com/jaycherian/gcp-go-story-reel/internal/cloud"
	"github.com/jaycherian/gcp-go-story-reel/internal/core/video"
	test "github.com/jaycherian/gcp-go-story-reel/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// writeWAV writes a valid, empty 16-bit stereo WAV file.
func writeWAV(t *testing.T, path string) {
	t.Helper()
	header := make([]byte, 44)
	copy(header[0:], "RIFF")
	binary.LittleEndian.PutUint32(header[4:], 36)
	copy(header[8:], "WAVE")
	copy(header[12:], "fmt ")
	binary.LittleEndian.PutUint32(header[16:], 16)
	binary.LittleEndian.PutUint16(header[20:], 1)
	binary.LittleEndian.PutUint16(header[22:], 2)
	binary.LittleEndian.PutUint32(header[24:], 44100)
	binary.LittleEndian.PutUint32(header[28:], 44100*4)
	binary.LittleEndian.PutUint16(header[32:], 4)
	binary.LittleEndian.PutUint16(header[34:], 16)
	copy(header[36:], "data")
	require.NoError(t, os.WriteFile(path, header, 0o644))
}

func TestCommandArgsKeepTextAsOneArgument(t *testing.T) {
	c, err := NewCommandSynthesizer("gtts-cli --lang {lang} --output {output}.mp3 {text}", "ja", "")
	require.NoError(t, err)
	args := c.Args("two words", "/tmp/audio_scene_1")
	assert.Equal(t, []string{"gtts-cli", "--lang", "ja", "--output", "/tmp/audio_scene_1.mp3", "two words"}, args)
}

func TestCommandTemplateValidation(t *testing.T) {
	_, err := NewCommandSynthesizer("", "ja", "")
	assert.Error(t, err)
	_, err = NewCommandSynthesizer("say {text}", "ja", "")
	assert.Error(t, err)
}

func TestCommandSynthesizerFixesExtension(t *testing.T) {
	if _, err := os.Stat("/bin/cp"); err != nil {
		t.Skip("cp not available")
	}
	dir := t.TempDir()
	fixture := filepath.Join(dir, "fixture.wav")
	writeWAV(t, fixture)

	c, err := NewCommandSynthesizer("/bin/cp "+fixture+" {output}.bin", "ja", "")
	require.NoError(t, err)

	out, err := c.Synthesize(context.Background(), "hello", filepath.Join(dir, "audio_scene_1"))
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "audio_scene_1.wav"), out)
	assert.FileExists(t, out)
	assert.NoFileExists(t, filepath.Join(dir, "audio_scene_1.bin"))
}

func TestCommandSynthesizerReportsMissingOutput(t *testing.T) {
	if _, err := os.Stat("/bin/true"); err != nil {
		t.Skip("true not available")
	}
	c, err := NewCommandSynthesizer("/bin/true {output}", "ja", "")
	require.NoError(t, err)
	_, err = c.Synthesize(context.Background(), "hello", filepath.Join(t.TempDir(), "audio_scene_1"))
	assert.ErrorContains(t, err, "was not created")
}

func TestRejectsNonAudio(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "clip.bin")
	require.NoError(t, os.WriteFile(path, []byte("definitely not audio"), 0o644))
	_, err := fixExtension(path, filepath.Join(dir, "clip"))
	assert.Error(t, err)
}

func TestEmptyTextIsRejected(t *testing.T) {
	c, err := NewCommandSynthesizer("tts {output}", "ja", "")
	require.NoError(t, err)
	_, err = c.Synthesize(context.Background(), "  ", "/tmp/x")
	assert.ErrorIs(t, err, ErrEmptyText)

	_, err = NewSilentSynthesizer(video.NewFFmpeg(video.Settings{})).Synthesize(context.Background(), "", "/tmp/x")
	assert.ErrorIs(t, err, ErrEmptyText)
}

func TestGoogleSynthesizerWritesMP3(t *testing.T) {
	var got *texttospeechpb.SynthesizeSpeechRequest
	g := &GoogleSynthesizer{
		settings: cloud.Speech{Language: "ja", Voice: "ja-JP-Neural2-B"},
		synthesize: func(_ context.Context, req *texttospeechpb.SynthesizeSpeechRequest) (*texttospeechpb.SynthesizeSpeechResponse, error) {
			got = req
			return &texttospeechpb.SynthesizeSpeechResponse{AudioContent: []byte("ID3 fake")}, nil
		},
	}
	out, err := g.Synthesize(context.Background(), "こんにちは", filepath.Join(t.TempDir(), "audio_scene_2"))
	require.NoError(t, err)
	assert.Equal(t, ".mp3", filepath.Ext(out))
	assert.Equal(t, "ja-JP", got.Voice.LanguageCode)
	assert.Equal(t, "ja-JP-Neural2-B", got.Voice.Name)
	assert.Equal(t, texttospeechpb.AudioEncoding_MP3, got.AudioConfig.AudioEncoding)
	assert.Equal(t, 1.0, got.AudioConfig.SpeakingRate)
	assert.NoError(t, g.Close())

	g.synthesize = func(context.Context, *texttospeechpb.SynthesizeSpeechRequest) (*texttospeechpb.SynthesizeSpeechResponse, error) {
		return nil, errors.New("quota exceeded")
	}
	_, err = g.Synthesize(context.Background(), "text", filepath.Join(t.TempDir(), "a"))
	assert.ErrorContains(t, err, "quota exceeded")
}

func TestLanguageCode(t *testing.T) {
	assert.Equal(t, "ja-JP", LanguageCode("ja"))
	assert.Equal(t, "en-GB", LanguageCode("en-GB"))
	assert.Equal(t, "fr", LanguageCode("fr"))
}

func TestNewSelectsEngine(t *testing.T) {
	ffmpeg := video.NewFFmpeg(video.Settings{})
	s, err := New(context.Background(), cloud.Speech{Engine: EngineSilent}, ffmpeg)
	require.NoError(t, err)
	assert.Equal(t, EngineSilent, s.Name())

	s, err = New(context.Background(), cloud.Speech{Engine: EngineCommand, Command: "espeak-ng -w {output}.wav {text}"}, ffmpeg)
	require.NoError(t, err)
	assert.Equal(t, EngineCommand, s.Name())

	_, err = New(context.Background(), cloud.Speech{Engine: "parrot"}, ffmpeg)
	assert.Error(t, err)
}

func TestSilentSynthesizer(t *testing.T) {
	test.RequireFFmpeg(t)
	out, err := NewSilentSynthesizer(video.NewFFmpeg(video.Settings{})).Synthesize(context.Background(), "text", filepath.Join(t.TempDir(), "audio_scene_1"))
	require.NoError(t, err)
	kindOut, err := fixExtension(out, out[:len(out)-len(".wav")])
	require.NoError(t, err)
	assert.Equal(t, out, kindOut)
}
