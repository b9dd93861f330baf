// Package logging sets up the dual stdout+file logrus output the
// reference simulator's utils/logger.py configures on the stdlib logging
// root logger (a FileHandler under a timestamped logs/ file plus a
// StreamHandler to stdout, both sharing one formatter). logrus.Entry
// replaces the Python logger-name field with per-node/per-role
// structured fields instead, so every record is still traceable to its
// origin without string-formatting it into the message.
package logging

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/sirupsen/logrus"
)

// Options configures New.
type Options struct {
	// Level is the minimum logged severity. No default is applied: the zero
	// value is logrus.PanicLevel.
	Level logrus.Level
	// Dir is the directory log files are written under. Defaults to "logs".
	Dir string
}

// New builds a logger for one node, writing to both stdout and a
// timestamped file under Dir, and tags every record with that node's id
// and role so a merged log from many nodes can still be filtered per-node.
func New(nodeID, role string, opts Options) (*logrus.Entry, error) {
	if opts.Dir == "" {
		opts.Dir = "logs"
	}
	if err := os.MkdirAll(opts.Dir, 0o755); err != nil {
		return nil, fmt.Errorf("logging: create log dir %s: %w", opts.Dir, err)
	}

	logFile := filepath.Join(opts.Dir, fmt.Sprintf("paxos_%s_%s.log", nodeID, time.Now().Format("20060102_150405")))
	f, err := os.OpenFile(logFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return nil, fmt.Errorf("logging: open log file %s: %w", logFile, err)
	}

	logger := logrus.New()
	logger.SetLevel(opts.Level)
	logger.SetFormatter(&logrus.TextFormatter{
		FullTimestamp:   true,
		TimestampFormat: "2006-01-02 15:04:05",
	})
	logger.SetOutput(io.MultiWriter(os.Stdout, f))

	entry := logger.WithFields(logrus.Fields{"node": nodeID, "role": role})
	entry.Info("logging initialized, log file: " + logFile)
	return entry, nil
}
