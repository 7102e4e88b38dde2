package main

import (
	"context"
	"log/slog"
	"net"
	"os"
	"os/signal"
	"syscall"
	"time"

	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/reflection"

	"inventory-crud/internal/config"
	"inventory-crud/internal/database"
	"inventory-crud/internal/logger"
	middleware_grpc "inventory-crud/internal/middleware/grpc"
	"inventory-crud/internal/service"
	"inventory-crud/internal/tracer"
	"inventory-crud/internal/version"
)

// inventoryService is the service name health checkers pass to grpc.health.v1.Health/Check.
const inventoryService = "inventory.v1.ProductService"

func servingStatus(s service.HealthStatus) healthpb.HealthCheckResponse_ServingStatus {
	if s.Overall() == service.StatusUp {
		return healthpb.HealthCheckResponse_SERVING
	}
	return healthpb.HealthCheckResponse_NOT_SERVING
}

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

	healthServer := health.NewServer()
	grpcServer := grpc.NewServer(
		grpc.UnaryInterceptor(middleware_grpc.UnaryTracingInterceptor()),
	)
	healthpb.RegisterHealthServer(grpcServer, healthServer)
	reflection.Register(grpcServer)

	healthService := service.NewHealthService(db)
	go healthService.Watch(globalCtx, cfg.HealthInterval(), func(s service.HealthStatus) {
		status := servingStatus(s)
		healthServer.SetServingStatus("", status)
		healthServer.SetServingStatus(inventoryService, status)
		if status != healthpb.HealthCheckResponse_SERVING {
			logger.Warn(globalCtx, "MongoDB unreachable", slog.String("mongodb", s.Mongo))
		}
	})

	lis, err := net.Listen("tcp", ":"+cfg.AppPort)
	if err != nil {
		logger.Error(globalCtx, "failed to listen", slog.String("error", err.Error()))
		os.Exit(1)
	}

	go func() {
		logger.Info(globalCtx, "gRPC server running", slog.String("port", cfg.AppPort))
		if err := grpcServer.Serve(lis); err != nil {
			logger.Error(globalCtx, "failed to serve", slog.String("error", err.Error()))
			cancel()
		}
	}()

	<-globalCtx.Done()
	logger.Info(globalCtx, "Shutting down gRPC server")
	healthServer.Shutdown()

	stopped := make(chan struct{})
	go func() {
		grpcServer.GracefulStop()
		close(stopped)
	}()
	select {
	case <-stopped:
	case <-time.After(cfg.ShutdownTimeout()):
		logger.Warn(context.Background(), "Graceful stop timed out, forcing")
		grpcServer.Stop()
	}

	ctx, done := context.WithTimeout(context.Background(), cfg.ShutdownTimeout())
	defer done()
	if err := db.Close(ctx); err != nil {
		logger.Error(ctx, "Failed to disconnect MongoDB", slog.String("error", err.Error()))
	}
	logger.Info(ctx, "gRPC server exited cleanly")
}
