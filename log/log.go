package log

import (
	"context"
	"sync"

	"github.com/sirupsen/logrus"
)

type contextKey int

const loggerKey contextKey = iota

var (
	logger *logrus.Logger
	mtx    sync.Mutex
)

func Default() logrus.FieldLogger {
	mtx.Lock()
	defer mtx.Unlock()
	return get()
}

func NewContext(ctx context.Context, l logrus.FieldLogger) context.Context {
	return context.WithValue(ctx, loggerKey, l)
}

func FromContext(ctx context.Context) logrus.FieldLogger {
	if l, ok := ctx.Value(loggerKey).(logrus.FieldLogger); ok {
		return l
	}
	return Default()
}

func get() *logrus.Logger {
	if logger == nil {
		logger = logrus.New()
		logger.SetLevel(logrus.InfoLevel)
	}
	return logger
}
