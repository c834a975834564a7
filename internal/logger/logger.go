// Package logger configures the global zap logger used across the harness.
//
// Console output goes to stderr. When a log directory is configured every
// entry is also appended to <dir>/api_test_YYYYMMDD.log; the file is
// switched when the day changes.
package logger

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/qaharness/api-test-framework/internal/config"
)

const filePrefix = "api_test_"

// Setup builds a logger from cfg and installs it with zap.ReplaceGlobals.
// The returned func flushes and closes the log file.
func Setup(cfg config.Log) (func(), error) {
	level, err := zapcore.ParseLevel(strings.ToLower(cfg.Level))
	if err != nil {
		return nil, fmt.Errorf("invalid log level %q: %w", cfg.Level, err)
	}

	cores := []zapcore.Core{
		zapcore.NewCore(consoleEncoder(cfg.Format), zapcore.Lock(os.Stderr), level),
	}

	var file *DailyFile
	if cfg.Dir != "" {
		file, err = NewDailyFile(cfg.Dir)
		if err != nil {
			return nil, err
		}
		cores = append(cores, zapcore.NewCore(fileEncoder(cfg.Format), file, level))
	}

	logger := zap.New(zapcore.NewTee(cores...), zap.AddCaller())
	undo := zap.ReplaceGlobals(logger)

	return func() {
		_ = logger.Sync()
		if file != nil {
			_ = file.Close()
		}
		undo()
	}, nil
}

func consoleEncoder(format string) zapcore.Encoder {
	if format == "json" {
		return zapcore.NewJSONEncoder(zap.NewProductionEncoderConfig())
	}
	ec := zap.NewDevelopmentEncoderConfig()
	ec.EncodeLevel = zapcore.CapitalColorLevelEncoder
	ec.EncodeTime = zapcore.TimeEncoderOfLayout(time.DateTime)
	return zapcore.NewConsoleEncoder(ec)
}

func fileEncoder(format string) zapcore.Encoder {
	if format == "json" {
		return zapcore.NewJSONEncoder(zap.NewProductionEncoderConfig())
	}
	ec := zap.NewProductionEncoderConfig()
	ec.EncodeLevel = zapcore.CapitalLevelEncoder
	ec.EncodeTime = zapcore.TimeEncoderOfLayout(time.DateTime)
	return zapcore.NewConsoleEncoder(ec)
}

// DailyFile is a zapcore.WriteSyncer writing to one file per calendar day.
type DailyFile struct {
	mu  sync.Mutex
	dir string
	day string
	f   *os.File
	now func() time.Time
}

func NewDailyFile(dir string) (*DailyFile, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create log dir %s: %w", dir, err)
	}
	return &DailyFile{dir: dir, now: time.Now}, nil
}

func (d *DailyFile) Write(p []byte) (int, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if err := d.rotate(); err != nil {
		return 0, err
	}
	return d.f.Write(p)
}

func (d *DailyFile) Sync() error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.f == nil {
		return nil
	}
	return d.f.Sync()
}

func (d *DailyFile) Close() error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.f == nil {
		return nil
	}
	err := d.f.Close()
	d.f = nil
	return err
}

// Path returns the file the next write goes to.
func (d *DailyFile) Path() string {
	return filepath.Join(d.dir, filePrefix+d.now().Format("20060102")+".log")
}

func (d *DailyFile) rotate() error {
	day := d.now().Format("20060102")
	if d.f != nil && day == d.day {
		return nil
	}

	if d.f != nil {
		_ = d.f.Close()
	}

	f, err := os.OpenFile(d.Path(), os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return err
	}

	d.f = f
	d.day = day
	return nil
}
