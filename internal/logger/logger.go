// Package logger builds the zap logger shared by the server and the CLI.
package logger

import (
	"errors"
	"fmt"
	"reflect"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// ErrConfigNotPointer is returned by LogConfig for non-pointer arguments.
var ErrConfigNotPointer = errors.New("config must be passed by pointer")

// New returns a JSON logger on stdout, or a colored console logger when dev is set.
func New(level string, dev bool) (*zap.Logger, error) {
	lvl, err := zapcore.ParseLevel(level)
	if err != nil {
		return nil, fmt.Errorf("parse log level %q: %w", level, err)
	}
	if dev {
		cfg := zap.NewDevelopmentConfig()
		cfg.Level = zap.NewAtomicLevelAt(lvl)
		cfg.EncoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
		return cfg.Build()
	}

	cfg := zap.NewProductionConfig()
	cfg.Level = zap.NewAtomicLevelAt(lvl)
	cfg.Encoding = "json"
	cfg.OutputPaths = []string{"stdout"}
	cfg.EncoderConfig = zapcore.EncoderConfig{
		TimeKey:        "timestamp",
		LevelKey:       "level",
		NameKey:        "logger",
		CallerKey:      "caller",
		MessageKey:     "msg",
		StacktraceKey:  "stacktrace",
		LineEnding:     zapcore.DefaultLineEnding,
		EncodeLevel:    zapcore.LowercaseLevelEncoder,
		EncodeTime:     zapcore.ISO8601TimeEncoder,
		EncodeDuration: zapcore.StringDurationEncoder,
		EncodeCaller:   zapcore.ShortCallerEncoder,
	}
	return cfg.Build()
}

// LogConfig logs each struct on one line. String fields tagged masked:"true" are masked.
func LogConfig(log *zap.Logger, configs ...any) error {
	for _, c := range configs {
		v := reflect.ValueOf(c)
		if v.Kind() != reflect.Ptr || v.IsNil() {
			return ErrConfigNotPointer
		}
		v = v.Elem()
		if v.Kind() != reflect.Struct {
			return ErrConfigNotPointer
		}
		log.Info("config", zap.Any(v.Type().Name(), maskFields(v)))
	}
	return nil
}

func maskFields(v reflect.Value) map[string]any {
	t := v.Type()
	out := make(map[string]any, v.NumField())
	for i := 0; i < v.NumField(); i++ {
		f := v.Field(i)
		sf := t.Field(i)
		if !sf.IsExported() {
			continue
		}
		switch f.Kind() {
		case reflect.Struct:
			out[sf.Name] = maskFields(f)
		case reflect.String:
			if sf.Tag.Get("masked") == "true" {
				out[sf.Name] = Mask(f.String())
			} else {
				out[sf.Name] = f.String()
			}
		default:
			out[sf.Name] = f.Interface()
		}
	}
	return out
}

// Mask keeps the first and last character of s.
func Mask(s string) string {
	if len(s) <= 2 {
		return "****"
	}
	return s[:1] + "****" + s[len(s)-1:]
}
