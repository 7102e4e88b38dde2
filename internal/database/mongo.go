package database

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"inventory-crud/internal/logger"

	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.opentelemetry.io/contrib/instrumentation/go.mongodb.org/mongo-driver/mongo/otelmongo"
)

const pingTimeout = 5 * time.Second

// Mongo owns the process-wide client. It is created by the binary and
// passed to whatever needs storage.
type Mongo struct {
	Client   *mongo.Client
	Database *mongo.Database

	closeOnce sync.Once
	closeErr  error
}

// Connect dials uri, verifies the deployment answers a ping and selects
// dbName. The returned handle must be closed by the caller.
func Connect(ctx context.Context, uri, dbName string) (*Mongo, error) {
	opts := options.Client().
		ApplyURI(uri).
		SetMonitor(otelmongo.NewMonitor())

	client, err := mongo.Connect(ctx, opts)
	if err != nil {
		logger.Error(ctx, "Failed to connect to MongoDB", slog.String("error", err.Error()))
		return nil, fmt.Errorf("connect mongo: %w", err)
	}

	pingCtx, cancel := context.WithTimeout(ctx, pingTimeout)
	defer cancel()
	if err := client.Ping(pingCtx, nil); err != nil {
		logger.Error(ctx, "MongoDB ping failed", slog.String("error", err.Error()))
		_ = client.Disconnect(ctx)
		return nil, fmt.Errorf("ping mongo: %w", err)
	}

	logger.Info(ctx, "Connected to MongoDB successfully", slog.String("database", dbName))

	return &Mongo{
		Client:   client,
		Database: client.Database(dbName),
	}, nil
}

func (m *Mongo) Ping(ctx context.Context) error {
	return m.Client.Ping(ctx, nil)
}

// Close disconnects the client. Only the first call does any work.
func (m *Mongo) Close(ctx context.Context) error {
	m.closeOnce.Do(func() {
		m.closeErr = m.Client.Disconnect(ctx)
		if m.closeErr != nil {
			logger.Error(ctx, "MongoDB disconnect failed", slog.String("error", m.closeErr.Error()))
			return
		}
		logger.Info(ctx, "Disconnected from MongoDB")
	})
	return m.closeErr
}
