// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package main

import (
	"context"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"google.golang.org/grpc/credentials/insecure"

	"github.com/UFG-Pos/pokemon-data/pkg/logging"
	"github.com/UFG-Pos/pokemon-data/services/pipeline/alerts"
	"github.com/UFG-Pos/pokemon-data/services/pipeline/catalog"
	"github.com/UFG-Pos/pokemon-data/services/pipeline/dashboard"
	"github.com/UFG-Pos/pokemon-data/services/pipeline/export"
	"github.com/UFG-Pos/pokemon-data/services/pipeline/middleware"
	"github.com/UFG-Pos/pokemon-data/services/pipeline/routes"
	"github.com/UFG-Pos/pokemon-data/services/pipeline/rules"
	"github.com/UFG-Pos/pokemon-data/services/pipeline/stream"

	// --- OpenTelemetry imports ---
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracegrpc"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.21.0"
	"google.golang.org/grpc"
)

func initTracer() (func(context.Context), error) {
	ctx := context.Background()

	otelEndpoint := os.Getenv("OTEL_EXPORTER_OTLP_ENDPOINT")
	if otelEndpoint == "" {
		otelEndpoint = "localhost:4317"
	}
	conn, err := grpc.NewClient(otelEndpoint,
		grpc.WithTransportCredentials(insecure.NewCredentials()))
	if err != nil {
		return nil, err
	}
	traceExporter, err := otlptracegrpc.New(ctx, otlptracegrpc.WithGRPCConn(conn))
	if err != nil {
		return nil, err
	}
	res, err := resource.New(ctx,
		resource.WithAttributes(semconv.ServiceNameKey.String("pokemon-pipeline")))
	if err != nil {
		return nil, err
	}
	bsp := sdktrace.NewBatchSpanProcessor(traceExporter)
	traceProvider := sdktrace.NewTracerProvider(
		sdktrace.WithSampler(sdktrace.AlwaysSample()),
		sdktrace.WithResource(res),
		sdktrace.WithSpanProcessor(bsp))
	otel.SetTracerProvider(traceProvider)
	otel.SetTextMapPropagator(propagation.NewCompositeTextMapPropagator(propagation.
		TraceContext{}, propagation.Baggage{}))

	return func(ctx context.Context) {
		ctx, cancel := context.WithTimeout(ctx, time.Second*5)
		defer cancel()
		if err := traceExporter.Shutdown(ctx); err != nil {
			slog.Error("failed to shutdown OTLP exporter", "error", err)
		}
	}, nil
}

func main() {
	port := getEnvString("PIPELINE_PORT", "8000")

	logging.SetDefault(logging.Config{
		Service: "pokemon-pipeline",
		Level:   os.Getenv("LOG_LEVEL"),
		JSON:    getEnvBool("LOG_JSON", true),
	})

	cleanup, err := initTracer()
	if err != nil {
		log.Fatalf("failed to setup the OTLP tracer: %v", err)
	}
	defer cleanup(context.Background())

	var store *catalog.Store
	if getEnvBool("PIPELINE_DB_INMEMORY", false) {
		store, err = catalog.OpenInMemoryStore(slog.Default())
		slog.Info("record store running in memory, nothing will persist")
	} else {
		cfg := catalog.DefaultStoreConfig(getEnvString("PIPELINE_DB_PATH", "./data/pokemon"))
		cfg.Logger = slog.Default()
		store, err = catalog.OpenStore(cfg)
	}
	if err != nil {
		log.Fatalf("failed to open the record store: %v", err)
	}

	engine := rules.NewEngine(nil)

	var watcher *rules.Watcher
	if rulesFile := os.Getenv("PIPELINE_RULES_FILE"); rulesFile != "" {
		watcher, err = rules.NewWatcher(engine, rulesFile, nil)
		if err == nil {
			err = watcher.Start()
		}
		if err != nil {
			log.Fatalf("failed to watch the rule override file: %v", err)
		}
	}

	sys := alerts.NewSystem(alerts.Config{
		HistorySize:       getEnvInt("PIPELINE_ALERT_HISTORY_SIZE", 0),
		SuppressionWindow: getEnvDuration("PIPELINE_ALERT_SUPPRESSION", 0),
		RatePerMinute:     getEnvInt("PIPELINE_ALERT_RATE_PER_MINUTE", 0),
	})

	proc := stream.NewProcessor(engine, sys, stream.Config{
		EventLogSize: getEnvInt("PIPELINE_EVENT_LOG_SIZE", 0),
	})
	sys.SetFindingCallback(proc.NoteAlertSent)

	clientCfg := catalog.DefaultClientConfig()
	if base := os.Getenv("POKEAPI_BASE_URL"); base != "" {
		clientCfg.BaseURL = base
	}
	client := catalog.NewClient(clientCfg)

	feeder := catalog.NewFeeder(client, store, func(ctx context.Context, rec *catalog.Record) error {
		_, err := proc.Ingest(ctx, rec)
		return err
	}, catalog.FeederConfig{
		Interval: getEnvDuration("PIPELINE_FEEDER_INTERVAL", 5*time.Second),
	})

	exporter, err := export.NewExporter(getEnvString("PIPELINE_EXPORT_DIR", "./exports"), nil)
	if err != nil {
		log.Fatalf("failed to prepare the export directory: %v", err)
	}

	agg := dashboard.NewAggregator(store, proc, sys, engine, nil)

	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(middleware.RequestLogger(slog.Default()))
	router.Use(middleware.Metrics())
	router.Use(otelgin.Middleware("pokemon-pipeline"))

	routes.SetupRoutes(router, routes.Deps{
		Store:      store,
		Client:     client,
		Feeder:     feeder,
		Engine:     engine,
		Processor:  proc,
		Alerts:     sys,
		Aggregator: agg,
		Exporter:   exporter,
	})

	// The feeder is useless against a stopped processor, so enabling it
	// at boot starts the stream too.
	if getEnvBool("PIPELINE_FEEDER_ENABLED", false) {
		proc.Start()
		feeder.Start()
		slog.Info("feeder enabled at boot")
	}

	// Handle graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		<-quit
		slog.Info("shutting down the pipeline server")
		feeder.Stop()
		proc.Stop()
		if watcher != nil {
			watcher.Stop()
		}
		if err := store.Close(); err != nil {
			slog.Error("record store close failed", "error", err)
		}
		cleanup(context.Background())
		os.Exit(0)
	}()

	slog.Info("starting the pipeline server", slog.String("port", port))
	if err := router.Run(":" + port); err != nil {
		log.Fatalf("Failed to start server: %v", err)
	}
}

// getEnvString returns the environment variable value or a default.
func getEnvString(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvInt returns the environment variable as int or a default.
func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultValue
}

// getEnvBool returns the environment variable as bool or a default.
func getEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolVal, err := strconv.ParseBool(value); err == nil {
			return boolVal
		}
	}
	return defaultValue
}

// getEnvDuration returns the environment variable as a duration or a default.
func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultValue
}
