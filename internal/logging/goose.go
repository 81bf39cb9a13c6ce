package logging

import (
	"fmt"
	"strings"

	"github.com/pressly/goose/v3"
	"go.uber.org/zap"
)

type gooseLogger struct {
	logger *zap.Logger
}

// NewGooseLogger routes goose migration output into logger.
func NewGooseLogger(logger *zap.Logger) goose.Logger {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &gooseLogger{logger: logger.Named("migrate").WithOptions(zap.AddCallerSkip(1))}
}

func (l *gooseLogger) Printf(format string, v ...interface{}) {
	l.logger.Info(gooseMessage(format, v...))
}

// Fatalf keeps goose's contract: the process exits after the entry is written.
func (l *gooseLogger) Fatalf(format string, v ...interface{}) {
	l.logger.Fatal(gooseMessage(format, v...))
}

func gooseMessage(format string, v ...interface{}) string {
	return strings.TrimSpace(fmt.Sprintf(format, v...))
}
