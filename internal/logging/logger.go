package logging

import (
	"os"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// New builds the service logger. Production mode writes JSON at info level,
// development mode writes colored console output at debug level. When
// logstashAddr is set, JSON entries are also queued for Logstash; opts tune
// that sink.
func New(appEnv, logstashAddr string, opts ...Option) (*zap.Logger, func(), error) {
	production := appEnv == "production"

	level := zap.NewAtomicLevelAt(zap.DebugLevel)
	encCfg := zap.NewDevelopmentEncoderConfig()
	encCfg.EncodeLevel = zapcore.CapitalColorLevelEncoder
	if production {
		level = zap.NewAtomicLevelAt(zap.InfoLevel)
		encCfg = zap.NewProductionEncoderConfig()
		encCfg.EncodeTime = zapcore.ISO8601TimeEncoder
	}

	var stdoutEncoder zapcore.Encoder
	if production {
		stdoutEncoder = zapcore.NewJSONEncoder(encCfg)
	} else {
		stdoutEncoder = zapcore.NewConsoleEncoder(encCfg)
	}
	cores := []zapcore.Core{zapcore.NewCore(stdoutEncoder, zapcore.Lock(os.Stdout), level)}

	cleanup := func() {}
	if logstashAddr != "" {
		sink, err := NewLogstashSink(logstashAddr, opts...)
		if err != nil {
			return nil, nil, err
		}
		jsonCfg := zap.NewProductionEncoderConfig()
		jsonCfg.EncodeTime = zapcore.ISO8601TimeEncoder
		cores = append(cores, zapcore.NewCore(zapcore.NewJSONEncoder(jsonCfg), sink, level))
		cleanup = func() { _ = sink.Close() }
	}

	logger := zap.New(zapcore.NewTee(cores...), zap.AddCaller()).With(zap.String("service", "auth-qr-otp"))
	return logger, func() {
		_ = logger.Sync()
		cleanup()
	}, nil
}
