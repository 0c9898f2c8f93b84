//go:build !protogen

package main

import (
	"context"
	"log/slog"

	"github.com/agendasim/agendasim/libs/db"
	"github.com/agendasim/agendasim/services/agenda-service/internal/storage"
)

func startGrpcServer(_ context.Context, _ *slog.Logger, _ *db.Pool, _ *storage.Repository) error {
	return nil
}
