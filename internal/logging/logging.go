// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package logging configures the process-wide logrus logger for a session.
// Every entry goes to a per-session application log; entries at error level
// and above are also written to a separate error log so failures can be
// found without reading the whole session.
package logging

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
)

// Options configures Setup.
type Options struct {
	// Dir receives the log files. It is created when missing.
	Dir string
	// Level is a logrus level name; empty means info.
	Level string
	// Console, when set, also receives warnings and errors.
	Console io.Writer
}

// Session holds the open log files of one run.
type Session struct {
	AppLog   string
	ErrorLog string

	logger   *logrus.Logger
	appFile  *os.File
	errFile  *os.File
	previous io.Writer
}

// Setup points logger at fresh session files named
// thoughtprint_app_<timestamp>.log and thoughtprint_error_<timestamp>.log.
// A nil logger means logrus.StandardLogger().
func Setup(logger *logrus.Logger, opts Options) (*Session, error) {
	if logger == nil {
		logger = logrus.StandardLogger()
	}

	level := logrus.InfoLevel
	if opts.Level != "" {
		l, err := logrus.ParseLevel(strings.ToLower(opts.Level))
		if err != nil {
			return nil, fmt.Errorf("log level: %w", err)
		}
		level = l
	}

	if err := os.MkdirAll(opts.Dir, 0o755); err != nil {
		return nil, fmt.Errorf("creating log directory: %w", err)
	}

	stamp := time.Now().Format("20060102_150405")
	s := &Session{
		AppLog:   filepath.Join(opts.Dir, "thoughtprint_app_"+stamp+".log"),
		ErrorLog: filepath.Join(opts.Dir, "thoughtprint_error_"+stamp+".log"),
		logger:   logger,
		previous: logger.Out,
	}

	var err error
	if s.appFile, err = openAppend(s.AppLog); err != nil {
		return nil, err
	}
	if s.errFile, err = openAppend(s.ErrorLog); err != nil {
		s.appFile.Close()
		return nil, err
	}

	logger.SetOutput(s.appFile)
	logger.SetLevel(level)
	logger.SetFormatter(&logrus.TextFormatter{
		DisableColors:   true,
		FullTimestamp:   true,
		TimestampFormat: "2006-01-02 15:04:05",
	})
	logger.ReplaceHooks(make(logrus.LevelHooks))
	logger.AddHook(&writerHook{w: s.errFile, levels: levelsFrom(logrus.ErrorLevel)})
	if opts.Console != nil {
		logger.AddHook(&writerHook{w: opts.Console, levels: levelsFrom(logrus.WarnLevel)})
	}

	logger.WithFields(logrus.Fields{"app_log": s.AppLog, "error_log": s.ErrorLog}).Debug("logging initialised")
	return s, nil
}

// Close detaches the files from the logger and closes them.
func (s *Session) Close() error {
	s.logger.ReplaceHooks(make(logrus.LevelHooks))
	if s.previous != nil {
		s.logger.SetOutput(s.previous)
	} else {
		s.logger.SetOutput(os.Stderr)
	}
	errApp := s.appFile.Close()
	errErr := s.errFile.Close()
	if errApp != nil {
		return errApp
	}
	return errErr
}

// Discard silences logger; used when no session is wanted (tests, --no-log).
func Discard(logger *logrus.Logger) {
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	logger.SetOutput(io.Discard)
}

func openAppend(path string) (*os.File, error) {
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return nil, fmt.Errorf("opening log file: %w", err)
	}
	return f, nil
}

// levelsFrom returns min and every more severe level.
func levelsFrom(min logrus.Level) []logrus.Level {
	var out []logrus.Level
	for _, l := range logrus.AllLevels {
		if l <= min {
			out = append(out, l)
		}
	}
	return out
}

// writerHook copies formatted entries of the given levels to w.
type writerHook struct {
	w      io.Writer
	levels []logrus.Level
}

func (h *writerHook) Levels() []logrus.Level { return h.levels }

func (h *writerHook) Fire(e *logrus.Entry) error {
	line, err := e.Logger.Formatter.Format(e)
	if err != nil {
		return err
	}
	_, err = h.w.Write(line)
	return err
}
