package main

import (
	"context"
	"flag"
	"io"
	"log/slog"
	"os"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"go.opentelemetry.io/contrib/instrumentation/github.com/labstack/echo/otelecho"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracehttp"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"gopkg.in/natefinch/lumberjack.v2"

	"github.com/toripushy/milkyway-calendar/internal/config"
	"github.com/toripushy/milkyway-calendar/internal/domain"
	"github.com/toripushy/milkyway-calendar/internal/infra/database"
	"github.com/toripushy/milkyway-calendar/internal/infra/repository"
	"github.com/toripushy/milkyway-calendar/internal/present/rest"
	"github.com/toripushy/milkyway-calendar/internal/service"
	"github.com/toripushy/milkyway-calendar/internal/usecase"
)

func main() {
	configPath := flag.String("c", "config.yaml", "path to config file")
	flag.Parse()

	conf, err := config.Load(*configPath)
	if err != nil {
		slog.Error("failed to load config", slog.String("error", err.Error()))
		os.Exit(1)
	}

	setupLogger(conf)

	repo, err := newRepository(conf)
	if err != nil {
		slog.Error("failed to open record store", slog.String("error", err.Error()))
		os.Exit(1)
	}

	if conf.MemcachedAddr != "" {
		mc := database.NewMemcached(conf.MemcachedAddr)
		repo = repository.NewCachedRecordRepository(repo, mc)
	}

	var signal *service.SignalService
	var publisher usecase.ChangePublisher
	if conf.RedisAddr != "" {
		rdb := database.NewRedis(conf.RedisAddr, "", conf.RedisDB)
		signal = service.NewSignalService(rdb)
		publisher = signal
	}

	recordUC := usecase.NewRecordUsecase(repo, publisher)
	handler := rest.NewHandler(recordUC, signal)

	e := echo.New()
	e.Use(middleware.Logger())
	e.Use(middleware.Recover())
	e.Use(middleware.CORS())

	if conf.EnableTrace {
		shutdown, err := setupTracer(conf.TraceEndpoint)
		if err != nil {
			slog.Error("failed to set up tracing", slog.String("error", err.Error()))
			os.Exit(1)
		}
		defer shutdown(context.Background())
		e.Use(otelecho.Middleware("milkyway-calendar"))
	}

	handler.RegisterRoutes(e)

	e.Logger.Fatal(e.Start(conf.Listen))
}

func newRepository(conf domain.Config) (usecase.RecordRepository, error) {
	if conf.PostgresDsn != "" {
		db, err := database.NewPostgres(conf.PostgresDsn)
		if err != nil {
			return nil, err
		}
		if err := database.MigratePostgres(db); err != nil {
			return nil, err
		}
		return repository.NewPostgresRecordRepository(db), nil
	}

	db, err := database.NewSQLite(conf.SQLitePath)
	if err != nil {
		return nil, err
	}
	return repository.NewSQLiteRecordRepository(db), nil
}

func setupLogger(conf domain.Config) {
	var out io.Writer = os.Stdout
	if conf.LogFile != "" {
		out = io.MultiWriter(os.Stdout, &lumberjack.Logger{
			Filename:   conf.LogFile,
			MaxSize:    10, // megabytes
			MaxBackups: 3,
			MaxAge:     28, // days
		})
	}
	slog.SetDefault(slog.New(slog.NewJSONHandler(out, nil)))
}

func setupTracer(endpoint string) (func(context.Context) error, error) {
	exporter, err := otlptracehttp.New(
		context.Background(),
		otlptracehttp.WithEndpoint(endpoint),
		otlptracehttp.WithInsecure(),
	)
	if err != nil {
		return nil, err
	}

	tp := sdktrace.NewTracerProvider(
		sdktrace.WithBatcher(exporter),
	)
	otel.SetTracerProvider(tp)
	return tp.Shutdown, nil
}
