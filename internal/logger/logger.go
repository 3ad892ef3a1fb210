package logger

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"sync"
	"time"

	"github.com/PhiFever/pantryscan/pkg/utils"
)

// Level 表示日志级别
type Level int

const (
	DEBUG Level = iota
	INFO
	WARNING
	ERROR
	CRITICAL
)

var levelNames = map[Level]string{
	DEBUG:    "DEBUG",
	INFO:     "INFO",
	WARNING:  "WARNING",
	ERROR:    "ERROR",
	CRITICAL: "CRITICAL",
}

// ParseLevel 将配置中的级别名称转换为 Level，未知名称返回 INFO
func ParseLevel(name string) Level {
	switch strings.ToUpper(strings.TrimSpace(name)) {
	case "DEBUG":
		return DEBUG
	case "WARN", "WARNING":
		return WARNING
	case "ERROR":
		return ERROR
	case "CRITICAL":
		return CRITICAL
	default:
		return INFO
	}
}

// String 返回级别名称
func (l Level) String() string {
	if name, ok := levelNames[l]; ok {
		return name
	}
	return fmt.Sprintf("LEVEL(%d)", int(l))
}

// Logger 是主日志记录器结构
type Logger struct {
	level   Level
	writers []io.Writer
	mu      sync.Mutex
}

var (
	globalLogger *Logger
	loggerMu     sync.Mutex
)

// Setup 使用指定的级别初始化全局日志记录器
// 日志同时写入标准输出和应用数据目录下按日期命名的文件
func Setup(level Level) (*Logger, error) {
	loggerMu.Lock()
	defer loggerMu.Unlock()

	if globalLogger != nil {
		return globalLogger, nil
	}

	logger, err := newLogger(level)
	if err != nil {
		return nil, err
	}
	globalLogger = logger

	return logger, nil
}

func newLogger(level Level) (*Logger, error) {
	logger := &Logger{
		level:   level,
		writers: []io.Writer{os.Stdout},
	}

	// 创建日志目录
	logDir, err := utils.GetAppDataPath("logs")
	if err != nil {
		return nil, err
	}

	if err := os.MkdirAll(logDir, 0755); err != nil {
		return nil, err
	}

	// 创建日志文件
	date := time.Now().Format("2006-01-02")
	logFile := filepath.Join(logDir, date+".log")

	file, err := os.OpenFile(logFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		return nil, err
	}

	logger.writers = append(logger.writers, file)
	return logger, nil
}

// SetLevel 设置日志记录级别
func SetLevel(level Level) {
	l := GetLogger()
	l.mu.Lock()
	defer l.mu.Unlock()
	l.level = level
}

// SetOutput 用给定的 writer 替换全局日志记录器的输出（主要用于测试）
func SetOutput(writers ...io.Writer) {
	l := GetLogger()
	l.mu.Lock()
	defer l.mu.Unlock()
	l.writers = writers
}

// GetLogger 返回全局日志记录器
// 如果无法创建日志文件，则退化为只写标准输出
func GetLogger() *Logger {
	loggerMu.Lock()
	defer loggerMu.Unlock()

	if globalLogger == nil {
		logger, err := newLogger(INFO)
		if err != nil {
			logger = &Logger{level: INFO, writers: []io.Writer{os.Stdout}}
		}
		globalLogger = logger
	}

	return globalLogger
}

// log 使用指定的级别写入日志消息
func (l *Logger) log(level Level, msg string, includeTrace bool) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if level < l.level {
		return
	}

	timestamp := time.Now().Format("2006-01-02 15:04:05")
	levelName := levelNames[level]

	logMsg := fmt.Sprintf("%s [%s] %s\n", timestamp, levelName, msg)

	for _, w := range l.writers {
		w.Write([]byte(logMsg))
	}

	if includeTrace && level >= ERROR {
		trace := getStackTrace()
		traceMsg := fmt.Sprintf("%s [%s] %s\n", timestamp, levelName, trace)
		for _, w := range l.writers {
			w.Write([]byte(traceMsg))
		}
	}
}

// Debug 记录调试消息
func Debug(msg string) {
	GetLogger().log(DEBUG, msg, false)
}

// Debugf 记录格式化的调试消息
func Debugf(format string, args ...interface{}) {
	GetLogger().log(DEBUG, fmt.Sprintf(format, args...), false)
}

// Info 记录信息消息
func Info(msg string) {
	GetLogger().log(INFO, msg, false)
}

// Infof 记录格式化的信息消息
func Infof(format string, args ...interface{}) {
	GetLogger().log(INFO, fmt.Sprintf(format, args...), false)
}

// Warning 记录警告消息
func Warning(msg string) {
	GetLogger().log(WARNING, msg, false)
}

// Warningf 记录格式化的警告消息
func Warningf(format string, args ...interface{}) {
	GetLogger().log(WARNING, fmt.Sprintf(format, args...), false)
}

// Error 记录带有堆栈跟踪的错误消息
func Error(msg string) {
	GetLogger().log(ERROR, msg, true)
}

// Errorf 记录格式化的带有堆栈跟踪的错误消息
func Errorf(format string, args ...interface{}) {
	GetLogger().log(ERROR, fmt.Sprintf(format, args...), true)
}

// ErrorNoTrace 记录不带堆栈跟踪的错误消息
func ErrorNoTrace(msg string) {
	GetLogger().log(ERROR, msg, false)
}

// Critical 记录带有堆栈跟踪的严重消息
func Critical(msg string) {
	GetLogger().log(CRITICAL, msg, true)
}

// Criticalf 记录格式化的带有堆栈跟踪的严重消息
func Criticalf(format string, args ...interface{}) {
	GetLogger().log(CRITICAL, fmt.Sprintf(format, args...), true)
}

// getStackTrace 返回当前的堆栈跟踪
func getStackTrace() string {
	buf := make([]byte, 4096)
	n := runtime.Stack(buf, false)
	return string(buf[:n])
}
