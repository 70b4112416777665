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

// Package video drives ffmpeg and ffprobe: one encode per scene, a concat
// demuxer pass for the final file, and duration probes.
package video

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"
	"strings"
)

const (
	SampleRate    = 44100
	concatList    = "concat_list.txt"
	maxErrorBytes = 2048
)

// Settings are the encoder options shared by every clip of a render.
type Settings struct {
	FFmpegPath  string
	FFprobePath string
	FPS         int
	VideoCodec  string
	AudioCodec  string
	Preset      string
	CRF         int
}

// SceneClip describes the inputs of one scene encode. Subtitle and Audio are
// optional; without audio a silent track keeps every clip concat compatible.
type SceneClip struct {
	Background string
	Subtitle   string
	Audio      string
	Duration   float64
	Width      int
	Height     int
	Output     string
}

// Renderer composes scene clips into a video.
type Renderer interface {
	RenderScene(ctx context.Context, clip SceneClip) error
	Concatenate(ctx context.Context, clips []string, output string, workDir string) error
	Probe(ctx context.Context, path string) (float64, error)
}

// FFmpeg implements Renderer with the ffmpeg and ffprobe binaries.
type FFmpeg struct {
	settings Settings
}

// NewFFmpeg fills unset settings with 24 fps libx264/aac defaults.
func NewFFmpeg(settings Settings) *FFmpeg {
	if settings.FFmpegPath == "" {
		settings.FFmpegPath = "ffmpeg"
	}
	if settings.FFprobePath == "" {
		settings.FFprobePath = "ffprobe"
	}
	if settings.FPS <= 0 {
		settings.FPS = 24
	}
	if settings.VideoCodec == "" {
		settings.VideoCodec = "libx264"
	}
	if settings.AudioCodec == "" {
		settings.AudioCodec = "aac"
	}
	if settings.Preset == "" {
		settings.Preset = "veryfast"
	}
	if settings.CRF <= 0 {
		settings.CRF = 23
	}
	return &FFmpeg{settings: settings}
}

// Settings returns the effective settings.
func (f *FFmpeg) Settings() Settings {
	return f.settings
}

// Available reports an error when either binary cannot be found.
func (f *FFmpeg) Available() error {
	for _, tool := range []string{f.settings.FFmpegPath, f.settings.FFprobePath} {
		if _, err := exec.LookPath(tool); err != nil {
			return fmt.Errorf("%s not found: %w", tool, err)
		}
	}
	return nil
}

// SceneArgs builds the ffmpeg arguments for one clip.
func (f *FFmpeg) SceneArgs(clip SceneClip) ([]string, error) {
	if clip.Background == "" {
		return nil, errors.New("scene clip has no background")
	}
	if clip.Duration <= 0 {
		return nil, fmt.Errorf("scene clip duration %v must be positive", clip.Duration)
	}
	if clip.Width <= 0 || clip.Height <= 0 {
		return nil, fmt.Errorf("scene clip size %dx%d is invalid", clip.Width, clip.Height)
	}

	duration := formatSeconds(clip.Duration)
	fps := strconv.Itoa(f.settings.FPS)
	args := []string{"-y", "-hide_banner", "-loglevel", "error",
		"-loop", "1", "-framerate", fps, "-t", duration, "-i", clip.Background,
	}
	next := 1
	subtitleInput := -1
	if clip.Subtitle != "" {
		args = append(args, "-loop", "1", "-framerate", fps, "-t", duration, "-i", clip.Subtitle)
		subtitleInput = next
		next++
	}
	if clip.Audio != "" {
		// Short narration loops, long narration is cut by -t below.
		args = append(args, "-stream_loop", "-1", "-i", clip.Audio)
	} else {
		args = append(args, "-f", "lavfi", "-t", duration,
			"-i", fmt.Sprintf("anullsrc=channel_layout=stereo:sample_rate=%d", SampleRate))
	}
	audioInput := next

	scale := fmt.Sprintf("[0:v]scale=%d:%d:force_original_aspect_ratio=increase,crop=%d:%d,setsar=1",
		clip.Width, clip.Height, clip.Width, clip.Height)
	var filter string
	if subtitleInput >= 0 {
		filter = fmt.Sprintf("%s[bg];[bg][%d:v]overlay=0:0:format=auto,format=yuv420p[v]", scale, subtitleInput)
	} else {
		filter = scale + ",format=yuv420p[v]"
	}

	args = append(args,
		"-filter_complex", filter,
		"-map", "[v]", "-map", fmt.Sprintf("%d:a", audioInput),
		"-t", duration,
		"-r", fps,
		"-c:v", f.settings.VideoCodec,
		"-preset", f.settings.Preset,
		"-crf", strconv.Itoa(f.settings.CRF),
		"-pix_fmt", "yuv420p",
		"-c:a", f.settings.AudioCodec,
		"-ar", strconv.Itoa(SampleRate),
		"-ac", "2",
		"-movflags", "+faststart",
		clip.Output,
	)
	return args, nil
}

// RenderScene encodes one clip.
func (f *FFmpeg) RenderScene(ctx context.Context, clip SceneClip) error {
	if _, err := os.Stat(clip.Background); err != nil {
		return fmt.Errorf("background image: %w", err)
	}
	args, err := f.SceneArgs(clip)
	if err != nil {
		return err
	}
	if err := f.run(ctx, f.settings.FFmpegPath, args...); err != nil {
		return fmt.Errorf("ffmpeg scene encode %s: %w", filepath.Base(clip.Output), err)
	}
	return nil
}

// Concatenate joins clips with the concat demuxer without re-encoding. The
// list file is written to workDir.
func (f *FFmpeg) Concatenate(ctx context.Context, clips []string, output string, workDir string) error {
	if len(clips) == 0 {
		return errors.New("no clips to concatenate")
	}
	listPath := filepath.Join(workDir, concatList)
	if err := os.WriteFile(listPath, []byte(ConcatList(clips)), 0o644); err != nil {
		return fmt.Errorf("failed to write concat list: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(output), 0o755); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}
	err := f.run(ctx, f.settings.FFmpegPath, "-y", "-hide_banner", "-loglevel", "error",
		"-f", "concat", "-safe", "0", "-i", listPath,
		"-c", "copy", "-movflags", "+faststart", output)
	if err != nil {
		return fmt.Errorf("ffmpeg concat: %w", err)
	}
	return nil
}

// ConcatList renders the concat demuxer input for clips, one absolute path
// per line.
func ConcatList(clips []string) string {
	var sb strings.Builder
	for _, p := range clips {
		abs, err := filepath.Abs(p)
		if err != nil {
			abs = p
		}
		// Single quotes close, escape and reopen the quoted path.
		fmt.Fprintf(&sb, "file '%s'\n", strings.ReplaceAll(abs, "'", `'\''`))
	}
	return sb.String()
}

// Probe returns the container duration in seconds.
func (f *FFmpeg) Probe(ctx context.Context, path string) (float64, error) {
	cmd := exec.CommandContext(ctx, f.settings.FFprobePath,
		"-v", "error", "-show_entries", "format=duration",
		"-of", "default=noprint_wrappers=1:nokey=1", path)
	out, err := cmd.Output()
	if err != nil {
		if ctx.Err() != nil {
			return 0, ctx.Err()
		}
		return 0, fmt.Errorf("ffprobe %s: %w", filepath.Base(path), err)
	}
	duration, err := strconv.ParseFloat(strings.TrimSpace(string(out)), 64)
	if err != nil {
		return 0, fmt.Errorf("ffprobe %s returned %q: %w", filepath.Base(path), strings.TrimSpace(string(out)), err)
	}
	return duration, nil
}

// Silence writes seconds of stereo silence as WAV.
func (f *FFmpeg) Silence(ctx context.Context, seconds float64, output string) error {
	err := f.run(ctx, f.settings.FFmpegPath, "-y", "-hide_banner", "-loglevel", "error",
		"-f", "lavfi", "-i", fmt.Sprintf("anullsrc=channel_layout=stereo:sample_rate=%d", SampleRate),
		"-t", formatSeconds(seconds), "-c:a", "pcm_s16le", output)
	if err != nil {
		return fmt.Errorf("ffmpeg silence: %w", err)
	}
	return nil
}

func (f *FFmpeg) run(ctx context.Context, name string, args ...string) error {
	cmd := exec.CommandContext(ctx, name, args...)
	out, err := cmd.CombinedOutput()
	if err == nil {
		return nil
	}
	if ctx.Err() != nil {
		return ctx.Err()
	}
	if len(out) > maxErrorBytes {
		out = out[len(out)-maxErrorBytes:]
	}
	return fmt.Errorf("%w: %s", err, strings.TrimSpace(string(out)))
}

func formatSeconds(s float64) string {
	return strconv.FormatFloat(s, 'f', 3, 64)
}
