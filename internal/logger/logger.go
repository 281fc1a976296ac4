package logger

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"

	"github.com/sirupsen/logrus"
	"gopkg.in/natefinch/lumberjack.v2"
)

var (
	loggers   = make(map[string]*logrus.Logger)
	loggersMu sync.RWMutex
	config    *LogConfig
	initOnce  sync.Once
)

// Init khởi tạo hệ thống logging với cấu hình cho trước.
// Gọi nhiều lần chỉ có tác dụng lần đầu.
func Init(cfg *LogConfig) error {
	var initErr error
	initOnce.Do(func() {
		if cfg == nil {
			cfg = DefaultConfig()
		}
		config = cfg

		if cfg.Output == "file" || cfg.Output == "both" {
			if err := os.MkdirAll(cfg.LogPath, 0755); err != nil {
				initErr = fmt.Errorf("không thể tạo thư mục log %s: %w", cfg.LogPath, err)
				return
			}
		}

		// Tạo sẵn các logger định danh
		loggers["app"] = createLogger(cfg, cfg.AppFile, nil)
		loggers["audit"] = createLogger(cfg, cfg.AuditFile, nil)
		loggers["error"] = createLogger(cfg, cfg.ErrorFile, []logrus.Level{
			logrus.ErrorLevel, logrus.FatalLevel, logrus.PanicLevel,
		})
	})
	return initErr
}

// createLogger tạo một logrus.Logger với rotation qua lumberjack
func createLogger(cfg *LogConfig, filename string, levels []logrus.Level) *logrus.Logger {
	log := logrus.New()

	level, err := logrus.ParseLevel(cfg.Level)
	if err != nil {
		level = logrus.InfoLevel
	}
	log.SetLevel(level)

	if cfg.Format == "json" {
		log.SetFormatter(&logrus.JSONFormatter{
			TimestampFormat: "2006-01-02 15:04:05",
		})
	} else {
		log.SetFormatter(&logrus.TextFormatter{
			FullTimestamp:   true,
			TimestampFormat: "2006-01-02 15:04:05",
		})
	}

	var writers []io.Writer
	if cfg.Output == "stdout" || cfg.Output == "both" {
		writers = append(writers, os.Stdout)
	}
	if cfg.Output == "file" || cfg.Output == "both" {
		writers = append(writers, &lumberjack.Logger{
			Filename:   filepath.Join(cfg.LogPath, filename),
			MaxSize:    cfg.MaxSize,
			MaxBackups: cfg.MaxBackups,
			MaxAge:     cfg.MaxAge,
			Compress:   cfg.Compress,
		})
	}
	if len(writers) == 0 {
		writers = append(writers, os.Stdout)
	}
	log.SetOutput(io.MultiWriter(writers...))

	if levels != nil {
		// Logger chỉ nhận các level chỉ định (vd: error.log)
		minLevel := levels[0]
		for _, l := range levels {
			if l < minLevel {
				minLevel = l
			}
		}
		log.SetLevel(minLevel)
	}

	return log
}

// GetLogger trả về logger theo tên; tên không tồn tại thì trả về app logger
func GetLogger(name string) *logrus.Logger {
	loggersMu.RLock()
	defer loggersMu.RUnlock()
	if log, ok := loggers[name]; ok {
		return log
	}
	if log, ok := loggers["app"]; ok {
		return log
	}
	// Chưa Init: trả về logger mặc định để không panic
	return logrus.StandardLogger()
}

// GetAppLogger trả về logger chính của ứng dụng
func GetAppLogger() *logrus.Logger {
	return GetLogger("app")
}

// GetAuditLogger trả về logger cho audit trail
func GetAuditLogger() *logrus.Logger {
	return GetLogger("audit")
}

// GetErrorLogger trả về logger riêng cho error
func GetErrorLogger() *logrus.Logger {
	return GetLogger("error")
}
