// Package logger 基于logrus的结构化日志。包级函数写入全局entry，
// 字段以key-value交替的变长参数传入。
package logger

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/sirupsen/logrus"
	"gopkg.in/natefinch/lumberjack.v2"
)

// Config 日志配置，output取stdout/stderr/file三者之一
type Config struct {
	Level      string `yaml:"level" json:"level"`
	Format     string `yaml:"format" json:"format"` // json 或 text
	Output     string `yaml:"output" json:"output"`
	Filename   string `yaml:"filename" json:"filename"`
	MaxSize    int    `yaml:"max_size" json:"max_size"` // 单文件上限(MB)
	MaxAge     int    `yaml:"max_age" json:"max_age"`   // 保留天数
	MaxBackups int    `yaml:"max_backups" json:"max_backups"`
	Compress   bool   `yaml:"compress" json:"compress"`
}

// DefaultConfig info级别的JSON日志写stdout
func DefaultConfig() Config {
	return Config{
		Level:      "info",
		Format:     "json",
		Output:     "stdout",
		MaxSize:    100,
		MaxAge:     30,
		MaxBackups: 10,
		Compress:   true,
	}
}

var global = newEntry(DefaultConfig())

// Init 按配置重建全局日志器，在进程启动时调用一次
func Init(cfg Config) {
	global = newEntry(cfg)
}

func newEntry(cfg Config) *logrus.Entry {
	log := logrus.New()
	if level, err := logrus.ParseLevel(cfg.Level); err == nil {
		log.SetLevel(level)
	}
	if cfg.Format == "text" {
		log.SetFormatter(&logrus.TextFormatter{
			FullTimestamp:   true,
			TimestampFormat: time.RFC3339,
		})
	} else {
		log.SetFormatter(&logrus.JSONFormatter{TimestampFormat: time.RFC3339})
	}
	log.SetOutput(openOutput(cfg))
	return logrus.NewEntry(log)
}

// openOutput 打开日志输出，file模式建目录失败时回退到stdout
func openOutput(cfg Config) io.Writer {
	switch cfg.Output {
	case "stderr":
		return os.Stderr
	case "file":
		name := cfg.Filename
		if name == "" {
			name = "logs/factor-mining.log"
		}
		if err := os.MkdirAll(filepath.Dir(name), 0o755); err != nil {
			fmt.Fprintf(os.Stderr, "logger: create log dir: %v\n", err)
			return os.Stdout
		}
		return &lumberjack.Logger{
			Filename:   name,
			MaxSize:    cfg.MaxSize,
			MaxAge:     cfg.MaxAge,
			MaxBackups: cfg.MaxBackups,
			Compress:   cfg.Compress,
		}
	}
	return os.Stdout
}

// kv 把key-value交替参数折叠为logrus.Fields，非字符串key与落单的尾参数被丢弃
func kv(pairs []interface{}) logrus.Fields {
	fields := make(logrus.Fields, len(pairs)/2)
	for i := 0; i+1 < len(pairs); i += 2 {
		if key, ok := pairs[i].(string); ok {
			fields[key] = pairs[i+1]
		}
	}
	return fields
}

func Debug(msg string, pairs ...interface{}) {
	global.WithFields(kv(pairs)).Debug(msg)
}

func Info(msg string, pairs ...interface{}) {
	global.WithFields(kv(pairs)).Info(msg)
}

func Warn(msg string, pairs ...interface{}) {
	global.WithFields(kv(pairs)).Warn(msg)
}

func Error(msg string, pairs ...interface{}) {
	global.WithFields(kv(pairs)).Error(msg)
}

// Fatal 记录后以退出码1终止进程
func Fatal(msg string, pairs ...interface{}) {
	global.WithFields(kv(pairs)).Fatal(msg)
}
