//go:build !protogen

package main

import (
	"context"
	"log/slog"

	"github.com/agendasim/agendasim/libs/db"
)

func startGrpcServer(_ context.Context, _ *slog.Logger, _ *db.Pool) error {
	return nil
}
