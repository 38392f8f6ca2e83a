package logger

import (
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	lumberjack "gopkg.in/natefinch/lumberjack.v2"
)

// WithFile duplica a saída do logger num arquivo JSON rotacionado.
// path vazio devolve o próprio logger.
func WithFile(l *zap.Logger, path string) *zap.Logger {
	if path == "" {
		return l
	}
	enc := zap.NewProductionEncoderConfig()
	enc.EncodeTime = zapcore.ISO8601TimeEncoder

	lw := &lumberjack.Logger{
		Filename:   path,
		MaxSize:    100, // MB
		MaxBackups: 7,
		MaxAge:     14, // dias
		Compress:   true,
	}
	return l.WithOptions(zap.WrapCore(func(c zapcore.Core) zapcore.Core {
		// mesmo nível do core original
		return zapcore.NewTee(c, zapcore.NewCore(zapcore.NewJSONEncoder(enc), zapcore.AddSync(lw), c))
	}))
}
