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

package telemetry

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"

	mexporter "github.com/GoogleCloudPlatform/opentelemetry-operations-go/exporter/metric"
	telemetryexporter "github.com/GoogleCloudPlatform/opentelemetry-operations-go/exporter/trace"
	"github.com/jaycherian/gcp-go-story-reel/internal/cloud"
	"go.opentelemetry.io/contrib/detectors/gcp"
	"go.opentelemetry.io/contrib/propagators/autoprop"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/exporters/stdout/stdouttrace"
	"go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.4.0"
)

// Exporter names accepted in telemetry.exporter.
const (
	ExporterGCP    = "gcp"
	ExporterStdout = "stdout"
	ExporterNone   = "none"
)

// SetupOpenTelemetry installs the global tracer and meter providers. "gcp"
// exports to Cloud Trace and Cloud Monitoring, "stdout" prints spans to
// stderr, and "none" (or an empty value) leaves the no-op providers in place.
// The returned function flushes and shuts down whatever was installed.
func SetupOpenTelemetry(ctx context.Context, config *cloud.Config) (shutdown func(context.Context) error, err error) {
	var shutdownFuncs []func(context.Context) error

	shutdown = func(ctx context.Context) error {
		var err error
		for _, fn := range shutdownFuncs {
			err = errors.Join(err, fn(ctx))
		}
		shutdownFuncs = nil
		return err
	}

	otel.SetTextMapPropagator(autoprop.NewTextMapPropagator())

	exporter := config.Telemetry.Exporter
	if exporter == "" || exporter == ExporterNone {
		return shutdown, nil
	}
	if exporter != ExporterGCP && exporter != ExporterStdout {
		return nil, fmt.Errorf("unknown telemetry exporter %q", exporter)
	}

	detectors := []resource.Option{
		resource.WithTelemetrySDK(),
		resource.WithAttributes(semconv.ServiceNameKey.String(config.Application.Name)),
	}
	if exporter == ExporterGCP {
		detectors = append(detectors, resource.WithDetectors(gcp.NewDetector()))
	}
	res, err := resource.New(ctx, detectors...)
	if errors.Is(err, resource.ErrPartialResource) || errors.Is(err, resource.ErrSchemaURLConflict) {
		slog.Warn("partial resource detection", "error", err)
	} else if err != nil {
		return nil, fmt.Errorf("resource.New failed: %w", err)
	}

	var traceExporter sdktrace.SpanExporter
	if exporter == ExporterGCP {
		traceExporter, err = telemetryexporter.New(telemetryexporter.WithProjectID(config.Application.GoogleProjectId))
	} else {
		traceExporter, err = stdouttrace.New(stdouttrace.WithWriter(os.Stderr))
	}
	if err != nil {
		return nil, fmt.Errorf("unable to set up trace exporter: %w", err)
	}

	tp := sdktrace.NewTracerProvider(
		sdktrace.WithBatcher(traceExporter),
		sdktrace.WithResource(res),
	)
	shutdownFuncs = append(shutdownFuncs, tp.Shutdown)
	otel.SetTracerProvider(tp)

	meterOptions := []metric.Option{metric.WithResource(res)}
	if exporter == ExporterGCP {
		mExporter, err := mexporter.New(mexporter.WithProjectID(config.Application.GoogleProjectId))
		if err != nil {
			return nil, errors.Join(fmt.Errorf("failed to create metric exporter: %w", err), shutdown(ctx))
		}
		meterOptions = append(meterOptions, metric.WithReader(metric.NewPeriodicReader(mExporter)))
	}
	mProvider := metric.NewMeterProvider(meterOptions...)
	shutdownFuncs = append(shutdownFuncs, mProvider.Shutdown)
	otel.SetMeterProvider(mProvider)

	return shutdown, nil
}
