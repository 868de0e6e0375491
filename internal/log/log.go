// Copyright 2025 The Fluxa Authors, Inc.
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package log

import (
	"fmt"
	"os"
	"strings"
	"sync"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Log levels, lowest to highest. Silent turns every logger off.
const (
	LogLevelSilent  = iota // No logging
	LogLevelVerbose        // Debug logging
	LogLevelInfo           // Info logging
	LogLevelWarning        // Warning logging
	LogLevelError          // Error logging
)

var (
	level = zap.NewAtomicLevelAt(zapcore.InfoLevel)

	baseOnce sync.Once
	base     *zap.Logger
)

// Logger is a module scoped logger. All methods are safe for concurrent use
// and honour the process wide level set by SetLogLevel.
type Logger struct {
	moduleName string
	sugar      *zap.SugaredLogger
}

func root() *zap.Logger {
	baseOnce.Do(func() {
		encoderCfg := zap.NewDevelopmentEncoderConfig()
		encoderCfg.EncodeTime = zapcore.ISO8601TimeEncoder
		encoderCfg.EncodeLevel = zapcore.CapitalLevelEncoder
		core := zapcore.NewCore(zapcore.NewConsoleEncoder(encoderCfg), zapcore.Lock(os.Stdout), level)
		base = zap.New(core, zap.AddCaller(), zap.AddCallerSkip(1))
	})
	return base
}

// GetLogger returns a logger whose lines are prefixed with the module name.
func GetLogger(module string) *Logger {
	return &Logger{
		moduleName: module,
		sugar:      root().Named(module).Sugar(),
	}
}

func logLevel(name string) int {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "silent", "off":
		return LogLevelSilent
	case "verbose", "debug":
		return LogLevelVerbose
	case "warning", "warn":
		return LogLevelWarning
	case "error":
		return LogLevelError
	default:
		return LogLevelInfo
	}
}

func zapLevel(l int) zapcore.Level {
	switch l {
	case LogLevelSilent:
		// above fatal, nothing passes
		return zapcore.FatalLevel + 1
	case LogLevelVerbose:
		return zapcore.DebugLevel
	case LogLevelWarning:
		return zapcore.WarnLevel
	case LogLevelError:
		return zapcore.ErrorLevel
	default:
		return zapcore.InfoLevel
	}
}

// SetLogLevel changes the level of every logger, including the ones already handed out.
// Unknown names fall back to info.
func SetLogLevel(name string) {
	level.SetLevel(zapLevel(logLevel(name)))
}

// Enabled reports whether lines at the given level are currently written.
func Enabled(l int) bool {
	if l == LogLevelSilent {
		return false
	}
	return level.Enabled(zapLevel(l))
}

func (l *Logger) Verbosef(format string, args ...any) { l.sugar.Debugf(format, args...) }

func (l *Logger) Infof(format string, args ...any) { l.sugar.Infof(format, args...) }

func (l *Logger) Warningf(format string, args ...any) { l.sugar.Warnf(format, args...) }

func (l *Logger) Errorf(format string, args ...any) { l.sugar.Errorf(format, args...) }

// Info logs msg with structured key/value pairs.
func (l *Logger) Info(msg string, keysAndValues ...any) {
	l.sugar.Infow(msg, keysAndValues...)
}

// Warn logs msg with structured key/value pairs.
func (l *Logger) Warn(msg string, keysAndValues ...any) {
	l.sugar.Warnw(msg, keysAndValues...)
}

// Error logs msg with the failing error attached.
func (l *Logger) Error(msg string, err error, keysAndValues ...any) {
	l.sugar.Errorw(msg, append([]any{"err", err}, keysAndValues...)...)
}

// Printf lets the logger serve as a gorm logger writer.
func (l *Logger) Printf(format string, args ...any) {
	l.sugar.Warn(strings.TrimSpace(fmt.Sprintf(format, args...)))
}

// With returns a child logger carrying the given fields on every line.
func (l *Logger) With(keysAndValues ...any) *Logger {
	return &Logger{moduleName: l.moduleName, sugar: l.sugar.With(keysAndValues...)}
}

func (l *Logger) Module() string { return l.moduleName }

// Sync flushes buffered lines; called once on shutdown.
func Sync() {
	_ = root().Sync()
}
