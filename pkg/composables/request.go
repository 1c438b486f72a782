package composables

import (
	"context"

	"github.com/sirupsen/logrus"

	"github.com/accessinsight/accessinsight/pkg/constants"
)

// UseLogger returns the request-scoped logger injected by the logging
// middleware. Panics when called outside a request context.
func UseLogger(ctx context.Context) *logrus.Entry {
	logger := ctx.Value(constants.LoggerKey)
	if logger == nil {
		panic("logger not found")
	}
	return logger.(*logrus.Entry)
}

// WithLogger is used by tests and CLI paths that bypass the middleware.
func WithLogger(ctx context.Context, entry *logrus.Entry) context.Context {
	return context.WithValue(ctx, constants.LoggerKey, entry)
}
