package application

import (
	"context"
	"errors"
	"log/slog"

	"github.com/example/courtboard/internal/logging"
)

func (o *Orchestrator) opLogger(ctx context.Context, operation string) *slog.Logger {
	logger := logging.FromContext(ctx)
	if logger == nil {
		logger = o.logger
	}
	if logger == nil {
		logger = slog.Default()
	}
	return logger.With("service", "orchestrator", "operation", operation)
}

// ErrorKind maps sentinel and validation errors to a stable logging label.
func ErrorKind(err error) string {
	if err == nil {
		return ""
	}
	switch {
	case errors.Is(err, ErrNotFound):
		return "not_found"
	case errors.Is(err, ErrConflict):
		return "conflict"
	case errors.Is(err, ErrAlreadyExists):
		return "already_exists"
	}
	var vErr *ValidationError
	if errors.As(err, &vErr) {
		return "validation"
	}
	return "internal"
}
