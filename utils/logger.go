package utils

import (
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	"gopkg.in/natefinch/lumberjack.v2"
)

// Level is a logging severity threshold.
type Level int

const (
	LevelDebug Level = iota
	LevelInfo
	LevelWarn
	LevelError
)

var ansiRegexp = regexp.MustCompile(`\x1b\[[0-9;]*m`)

// ParseLevel maps a LOG_LEVEL value to a Level, defaulting to info.
func ParseLevel(s string) Level {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return LevelDebug
	case "warn", "warning":
		return LevelWarn
	case "error":
		return LevelError
	default:
		return LevelInfo
	}
}

// LoggerOptions configures NewLoggerWithOptions.
type LoggerOptions struct {
	Level Level
	// File enables a rotating log file next to the console output.
	File string
	// Stdout and Stderr override the console writers (tests).
	Stdout io.Writer
	Stderr io.Writer
}

// Logger provides leveled, timestamped logging throughout the application.
type Logger struct {
	level Level
	info  *log.Logger
	warn  *log.Logger
	err   *log.Logger
	debug *log.Logger
	file  *log.Logger
	rot   *lumberjack.Logger
}

// NewLogger creates a Logger writing info and above to stdout/stderr.
func NewLogger() *Logger {
	return NewLoggerWithOptions(LoggerOptions{Level: LevelInfo})
}

// NewLoggerWithOptions creates a Logger with a level threshold and an optional
// rotating file sink.
func NewLoggerWithOptions(opts LoggerOptions) *Logger {
	stdout, stderr := opts.Stdout, opts.Stderr
	if stdout == nil {
		stdout = os.Stdout
	}
	if stderr == nil {
		stderr = os.Stderr
	}

	flags := 0
	l := &Logger{
		level: opts.Level,
		info:  log.New(stdout, "", flags),
		warn:  log.New(stdout, "", flags),
		err:   log.New(stderr, "", flags),
		debug: log.New(stdout, "", flags),
	}

	if opts.File != "" {
		if err := os.MkdirAll(filepath.Dir(opts.File), 0750); err != nil {
			l.err.Printf("[%s] failed to create log directory %q: %v\n", l.timestamp(), filepath.Dir(opts.File), err)
		} else {
			l.rot = &lumberjack.Logger{
				Filename:   opts.File,
				MaxSize:    5,
				MaxBackups: 3,
				MaxAge:     30,
				Compress:   true,
			}
			l.file = log.New(l.rot, "", flags)
		}
	}
	return l
}

// Close releases the rotating file sink, if any.
func (l *Logger) Close() error {
	if l.rot == nil {
		return nil
	}
	return l.rot.Close()
}

func (l *Logger) timestamp() string {
	return time.Now().Format("2006-01-02 15:04:05")
}

func (l *Logger) write(lvl Level, out *log.Logger, tag, format string, args ...any) {
	if lvl < l.level {
		return
	}
	line := fmt.Sprintf("[%s] %s %s", l.timestamp(), tag, fmt.Sprintf(format, args...))
	out.Println(line)
	if l.file != nil {
		l.file.Println(ansiRegexp.ReplaceAllString(line, ""))
	}
}

func (l *Logger) Info(format string, args ...any) {
	l.write(LevelInfo, l.info, "\033[32mINFO\033[0m ", format, args...)
}

func (l *Logger) Warn(format string, args ...any) {
	l.write(LevelWarn, l.warn, "\033[33mWARN\033[0m ", format, args...)
}

func (l *Logger) Error(format string, args ...any) {
	l.write(LevelError, l.err, "\033[31mERROR\033[0m", format, args...)
}

func (l *Logger) Debug(format string, args ...any) {
	l.write(LevelDebug, l.debug, "\033[36mDEBUG\033[0m", format, args...)
}
