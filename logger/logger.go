package logger

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	nested "github.com/antonfisher/nested-logrus-formatter"
	rotatelogs "github.com/lestrrat-go/file-rotatelogs"
	"github.com/sirupsen/logrus"
	"github.com/spf13/viper"
)

var logger = logrus.New()

// Init 根据全局配置初始化日志系统
// 配置项: log.level, log.path, log.file, log.max_age_days, log.stdout
func Init() error {
	level, err := logrus.ParseLevel(viper.GetString("log.level"))
	if err != nil {
		level = logrus.InfoLevel
	}
	logger.SetLevel(level)

	logger.SetFormatter(&nested.Formatter{
		TimestampFormat: "2006-01-02 15:04:05.000",
		HideKeys:        false,
		NoColors:        true,
	})

	writers := []io.Writer{}
	if viper.GetBool("log.stdout") {
		writers = append(writers, os.Stdout)
	}

	logPath := viper.GetString("log.path")
	logFile := viper.GetString("log.file")
	if logPath != "" && logFile != "" {
		maxAge := viper.GetInt("log.max_age_days")
		if maxAge <= 0 {
			maxAge = 7
		}
		writer, err := rotatelogs.New(
			filepath.Join(logPath, logFile+".%Y%m%d"),
			rotatelogs.WithLinkName(filepath.Join(logPath, logFile)),
			rotatelogs.WithMaxAge(time.Duration(maxAge)*24*time.Hour),
			rotatelogs.WithRotationTime(24*time.Hour),
		)
		if err != nil {
			return fmt.Errorf("初始化日志文件失败: %w", err)
		}
		writers = append(writers, writer)
	}

	if len(writers) == 0 {
		writers = append(writers, os.Stdout)
	}
	logger.SetOutput(io.MultiWriter(writers...))
	return nil
}

func Debugf(format string, args ...interface{}) {
	logger.Debugf(format, args...)
}

func Infof(format string, args ...interface{}) {
	logger.Infof(format, args...)
}

func Warnf(format string, args ...interface{}) {
	logger.Warnf(format, args...)
}

func Errorf(format string, args ...interface{}) {
	logger.Errorf(format, args...)
}

func Debug(args ...interface{}) {
	logger.Debug(args...)
}

func Info(args ...interface{}) {
	logger.Info(args...)
}

func Warn(args ...interface{}) {
	logger.Warn(args...)
}

func Error(args ...interface{}) {
	logger.Error(args...)
}
