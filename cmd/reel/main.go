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

// Command reel turns a story into a narrated short video.
//
//	reel [flags] "story text"
//	reel [flags] -input-file story.txt
//	echo "story text" | reel [flags] -
package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/jaycherian/gcp-go-story-reel/internal/cloud"
	"github.com/jaycherian/gcp-go-story-reel/internal/core/llm"
	"github.com/jaycherian/gcp-go-story-reel/internal/core/model"
	"github.com/jaycherian/gcp-go-story-reel/internal/core/services"
	"github.com/jaycherian/gcp-go-story-reel/internal/core/workflow"
	"github.com/jaycherian/gcp-go-story-reel/internal/telemetry"
)

const (
	exitOK    = 0
	exitError = 1
	exitUsage = 2
)

// Options are the parsed command line.
type Options struct {
	Output     string
	UseOpenAI  bool
	UseGemini  bool
	MockLLM    bool
	Width      int
	Height     int
	ScriptFile string
	SaveScript string
	ConfigDir  string
	Runtime    string
	InputFile  string
	Args       []string
}

// Backend names the backend the flags select.
func (o *Options) Backend() string {
	switch {
	case o.UseOpenAI:
		return "openai"
	case o.UseGemini:
		return "gemini"
	default:
		return llm.MockBackendName
	}
}

func parseFlags(args []string, stderr io.Writer) (*Options, error) {
	o := &Options{}
	fs := flag.NewFlagSet("reel", flag.ContinueOnError)
	fs.SetOutput(stderr)
	fs.Usage = func() {
		fmt.Fprintln(stderr, `usage: reel [flags] "story text" | -input-file path | -`)
		fs.PrintDefaults()
	}
	fs.StringVar(&o.Output, "o", "output_video.mp4", "output video path (shorthand)")
	fs.StringVar(&o.Output, "output", "output_video.mp4", "output video path")
	fs.BoolVar(&o.UseOpenAI, "use-openai", false, "write the script with OpenAI (needs OPENAI_API_KEY)")
	fs.BoolVar(&o.UseGemini, "use-gemini", false, "write the script with Gemini (needs GEMINI_API_KEY or a project)")
	fs.BoolVar(&o.MockLLM, "mock-llm", false, "write the script with the offline mock (default)")
	fs.IntVar(&o.Width, "width", model.DefaultWidth, "video width")
	fs.IntVar(&o.Height, "height", model.DefaultHeight, "video height")
	fs.StringVar(&o.ScriptFile, "script", "", "render a saved YAML or JSON script instead of calling a model")
	fs.StringVar(&o.SaveScript, "save-script", "", "save the script used to this YAML or JSON file")
	fs.StringVar(&o.ConfigDir, "config", "", "directory holding .env.toml")
	fs.StringVar(&o.Runtime, "runtime", "", "configuration overlay to apply")
	fs.StringVar(&o.InputFile, "input-file", "", "read the story from this file")
	if err := fs.Parse(args); err != nil {
		return nil, err
	}
	o.Args = fs.Args()

	selected := 0
	for _, b := range []bool{o.UseOpenAI, o.UseGemini, o.MockLLM} {
		if b {
			selected++
		}
	}
	if selected > 1 {
		return nil, errors.New("choose only one of -use-openai, -use-gemini and -mock-llm")
	}
	if o.InputFile != "" && len(o.Args) > 0 {
		return nil, errors.New("give the story either as arguments or with -input-file")
	}
	if o.InputFile == "" && len(o.Args) == 0 && o.ScriptFile == "" {
		return nil, errors.New("no story text given")
	}
	return o, nil
}

// readInput returns the story text from the arguments, the input file or
// stdin when the only argument is "-".
func readInput(o *Options, stdin io.Reader) (string, error) {
	switch {
	case o.InputFile != "":
		data, err := os.ReadFile(o.InputFile)
		if err != nil {
			return "", fmt.Errorf("failed to read input file: %w", err)
		}
		return string(data), nil
	case len(o.Args) == 1 && o.Args[0] == "-":
		data, err := io.ReadAll(stdin)
		if err != nil {
			return "", fmt.Errorf("failed to read stdin: %w", err)
		}
		return string(data), nil
	default:
		return strings.Join(o.Args, " "), nil
	}
}

func loadConfig(o *Options) (*cloud.Config, error) {
	if o.ConfigDir != "" {
		if err := os.Setenv(cloud.EnvConfigFilePrefix, o.ConfigDir); err != nil {
			return nil, err
		}
	} else if os.Getenv(cloud.EnvConfigFilePrefix) == "" {
		if err := os.Setenv(cloud.EnvConfigFilePrefix, "configs"); err != nil {
			return nil, err
		}
	}
	if o.Runtime != "" {
		if err := os.Setenv(cloud.EnvConfigRuntime, o.Runtime); err != nil {
			return nil, err
		}
	}
	config := cloud.NewConfig()
	if err := cloud.LoadConfig(config); err != nil {
		return nil, err
	}
	// A single CLI run has no use for a queue listener.
	config.TopicSubscriptions = nil
	return config, nil
}

func run(args []string, stdin io.Reader, stdout, stderr io.Writer) int {
	o, err := parseFlags(args, stderr)
	if err != nil {
		if !errors.Is(err, flag.ErrHelp) {
			fmt.Fprintln(stderr, "error:", err)
		}
		return exitUsage
	}

	text, err := readInput(o, stdin)
	if err != nil {
		fmt.Fprintln(stderr, "error:", err)
		return exitError
	}

	req := &model.GenerateRequest{
		InputText:  strings.TrimSpace(text),
		Backend:    o.Backend(),
		Width:      o.Width,
		Height:     o.Height,
		OutputPath: o.Output,
	}
	if o.ScriptFile != "" {
		script, err := model.LoadScriptFile(o.ScriptFile)
		if err != nil {
			fmt.Fprintln(stderr, "error:", err)
			return exitError
		}
		raw, err := json.Marshal(script)
		if err != nil {
			fmt.Fprintln(stderr, "error:", err)
			return exitError
		}
		req.ScriptJSON = string(raw)
	}
	req.ApplyDefaults()
	if err := req.Validate(); err != nil {
		fmt.Fprintln(stderr, "error:", err)
		return exitUsage
	}

	config, err := loadConfig(o)
	if err != nil {
		fmt.Fprintln(stderr, "error:", err)
		return exitError
	}
	closeLog, err := telemetry.SetupLogging(stderr, config.Application.LogLevel, config.Application.LogFile)
	if err != nil {
		fmt.Fprintln(stderr, "error:", err)
		return exitError
	}
	defer closeLog()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	shutdown, err := telemetry.SetupOpenTelemetry(ctx, config)
	if err != nil {
		fmt.Fprintln(stderr, "error:", err)
		return exitError
	}
	defer func() {
		if err := shutdown(context.Background()); err != nil {
			slog.Warn("failed to shutdown telemetry", "error", err)
		}
	}()

	result, err := generate(ctx, config, req)
	if err != nil {
		fmt.Fprintln(stderr, "error:", err)
		return exitError
	}

	if o.SaveScript != "" {
		if err := model.SaveScriptFile(o.SaveScript, result.Script); err != nil {
			fmt.Fprintln(stderr, "error: failed to save script:", err)
			return exitError
		}
	}
	fmt.Fprintf(stdout, "Video saved to %s (%q, %d scenes, %.1fs)\n",
		result.OutputPath, result.Script.Title, len(result.Script.Scenes), result.ProbedDuration)
	return exitOK
}

func generate(ctx context.Context, config *cloud.Config, req *model.GenerateRequest) (*model.RenderResult, error) {
	cloudClients, err := cloud.NewCloudServiceClients(ctx, config)
	if err != nil {
		return nil, err
	}
	defer cloudClients.Close()

	generator, err := workflow.NewReelGeneratorWorkflowFromConfig(ctx, config, cloudClients)
	if err != nil {
		return nil, err
	}
	defer generator.Close()

	if req.ScriptJSON == "" {
		if _, err := generator.Registry().Get(req.Backend); err != nil {
			return nil, fmt.Errorf("%w; check the API key or project settings", err)
		}
	}
	return services.NewReelService(generator).Generate(ctx, req)
}

func main() {
	os.Exit(run(os.Args[1:], os.Stdin, os.Stdout, os.Stderr))
}
