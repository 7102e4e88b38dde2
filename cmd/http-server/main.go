package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"inventory-crud/internal/config"
	"inventory-crud/internal/database"
	handler "inventory-crud/internal/handler/http"
	"inventory-crud/internal/logger"
	middleware_http "inventory-crud/internal/middleware/http"
	"inventory-crud/internal/repository"
	"inventory-crud/internal/service"
	"inventory-crud/internal/tracer"
	"inventory-crud/internal/version"
)

func main() {
	globalCtx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	cfg := config.Instance()

	logger.Info(globalCtx, cfg.AppName,
		slog.String("version", version.Version),
		slog.String("commit", version.Commit),
		slog.String("buildTime", version.BuildTime),
	)

	shutdownTracer, err := tracer.Instance(globalCtx, cfg)
	if err != nil {
		logger.Warn(globalCtx, "Tracing disabled", slog.String("error", err.Error()))
	}
	defer shutdownTracer()

	db, err := database.Connect(globalCtx, cfg.MongoURI, cfg.MongoDBName)
	if err != nil {
		logger.Error(globalCtx, "Failed to connect to MongoDB", slog.String("error", err.Error()))
		os.Exit(1)
	}

	productRepo := repository.NewProductRepository(db.Database)
	if err := productRepo.EnsureIndexes(globalCtx); err != nil {
		logger.Warn(globalCtx, "Continuing without product indexes", slog.String("error", err.Error()))
	}

	productService := service.NewProductService(productRepo, service.WithPageSize(cfg.PageSize))
	healthService := service.NewHealthService(db)

	router := handler.NewRouter(
		handler.NewProductHandler(productService),
		handler.NewHealthHandler(healthService),
	)

	server := &http.Server{
		Addr:         ":" + cfg.AppPort,
		Handler:      middleware_http.TraceMiddleware(router),
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
	}

	go func() {
		logger.Info(globalCtx, "HTTP server running", slog.String("addr", server.Addr))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error(globalCtx, "Server failed", slog.String("error", err.Error()))
			cancel()
		}
	}()

	<-globalCtx.Done()
	logger.Info(globalCtx, "Shutting down HTTP server")

	ctx, done := context.WithTimeout(context.Background(), cfg.ShutdownTimeout())
	defer done()

	if err := server.Shutdown(ctx); err != nil {
		logger.Error(ctx, "Graceful shutdown failed", slog.String("error", err.Error()))
	}
	if err := db.Close(ctx); err != nil {
		logger.Error(ctx, "Failed to disconnect MongoDB", slog.String("error", err.Error()))
	}
	logger.Info(ctx, "HTTP server exited cleanly")
}
