package logging

// Leveled logging for the relay

import (
	"encoding/json"
	"fmt"
	"log"
	"os"
	"strings"
	"sync"
	"time"
)

// LogLevel represents the logging level
type LogLevel int

const (
	LogLevelSilent LogLevel = iota
	LogLevelError
	LogLevelInfo
	LogLevelVerbose
	LogLevelDebug
)

var levelNames = map[LogLevel]string{
	LogLevelSilent:  "silent",
	LogLevelError:   "error",
	LogLevelInfo:    "info",
	LogLevelVerbose: "verbose",
	LogLevelDebug:   "debug",
}

func (l LogLevel) String() string {
	if name, ok := levelNames[l]; ok {
		return name
	}
	return fmt.Sprintf("level(%d)", int(l))
}

// ParseLevel maps a configuration string to a LogLevel.
func ParseLevel(s string) (LogLevel, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "silent", "quiet":
		return LogLevelSilent, nil
	case "error":
		return LogLevelError, nil
	case "", "info":
		return LogLevelInfo, nil
	case "verbose":
		return LogLevelVerbose, nil
	case "debug":
		return LogLevelDebug, nil
	}
	return LogLevelInfo, fmt.Errorf("unknown log level %q (use silent, error, info, verbose or debug)", s)
}

// Logger writes leveled messages to the console and an optional file.
// Errors always reach stderr; other messages reach stdout only at verbose
// and above, sampled one in logEvery.
type Logger struct {
	mu       sync.Mutex
	level    LogLevel
	format   string
	logEvery int
	counter  int
	runID    string
	file     *os.File
	fileLog  *log.Logger
	stdout   *log.Logger
	stderr   *log.Logger
}

// NewLogger creates a text logger that writes every message.
func NewLogger(level LogLevel, logFile string) (*Logger, error) {
	return NewLoggerWithOptions(level, logFile, "text", 1)
}

// NewLoggerWithOptions creates a logger with an explicit line format
// ("text" or "json") and console sampling rate.
func NewLoggerWithOptions(level LogLevel, logFile, format string, logEvery int) (*Logger, error) {
	if format == "" {
		format = "text"
	}
	if format != "text" && format != "json" {
		return nil, fmt.Errorf("unknown log format %q (use text or json)", format)
	}
	if logEvery <= 0 {
		logEvery = 1
	}
	l := &Logger{
		level:    level,
		format:   format,
		logEvery: logEvery,
		stdout:   log.New(os.Stdout, "", 0),
		stderr:   log.New(os.Stderr, "", 0),
	}

	if logFile != "" {
		file, err := os.Create(logFile)
		if err != nil {
			return nil, fmt.Errorf("create log file: %w", err)
		}
		l.file = file
		flags := log.LstdFlags
		if format == "json" {
			flags = 0
		}
		l.fileLog = log.New(file, "", flags)
	}

	return l, nil
}

// Discard returns a logger that writes nothing. Tests use it.
func Discard() *Logger {
	l, _ := NewLogger(LogLevelSilent, "")
	return l
}

// Close closes the log file
func (l *Logger) Close() error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.file != nil {
		err := l.file.Close()
		l.file = nil
		l.fileLog = nil
		return err
	}
	return nil
}

// SetRunID tags every subsequent line with id.
func (l *Logger) SetRunID(id string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.runID = id
}

func (l *Logger) Error(format string, v ...interface{}) {
	l.log(LogLevelError, format, v...)
}

func (l *Logger) Info(format string, v ...interface{}) {
	l.log(LogLevelInfo, format, v...)
}

func (l *Logger) Verbose(format string, v ...interface{}) {
	l.log(LogLevelVerbose, format, v...)
}

func (l *Logger) Debug(format string, v ...interface{}) {
	l.log(LogLevelDebug, format, v...)
}

func (l *Logger) log(level LogLevel, format string, v ...interface{}) {
	if l == nil || l.GetLevel() < level {
		return
	}
	l.write(level, fmt.Sprintf(format, v...))
}

type jsonLine struct {
	Time    string `json:"time"`
	Level   string `json:"level"`
	RunID   string `json:"run_id,omitempty"`
	Message string `json:"message"`
}

func (l *Logger) render(level LogLevel, msg string) string {
	if l.format == "json" {
		b, err := json.Marshal(jsonLine{
			Time:    time.Now().UTC().Format(time.RFC3339Nano),
			Level:   level.String(),
			RunID:   l.runID,
			Message: msg,
		})
		if err == nil {
			return string(b)
		}
	}
	line := strings.ToUpper(level.String()) + ": " + msg
	if l.runID != "" {
		line = "[" + l.runID + "] " + line
	}
	return line
}

// write sends one message to the file and, subject to sampling, the
// console.
func (l *Logger) write(level LogLevel, msg string) {
	l.mu.Lock()
	defer l.mu.Unlock()

	line := l.render(level, msg)
	if l.fileLog != nil {
		l.fileLog.Println(line)
	}

	if level == LogLevelError {
		l.stderr.Println(line)
		return
	}
	l.counter++
	if l.counter%l.logEvery != 0 {
		return
	}
	if l.level >= LogLevelVerbose {
		l.stdout.Println(line)
	}
}

// SetLevel sets the logging level
func (l *Logger) SetLevel(level LogLevel) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.level = level
}

// GetLevel returns the current logging level
func (l *Logger) GetLevel() LogLevel {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.level
}

// LogLink logs a site link transition.
func (l *Logger) LogLink(site, provider string, up bool, reason error) {
	state := "DOWN"
	if up {
		state = "UP"
	}
	if reason != nil {
		l.Error("site %s (%s) link %s: %v", site, provider, state, reason)
		return
	}
	l.Info("site %s (%s) link %s", site, provider, state)
}

// LogDrop logs a PDU the relay did not forward.
func (l *Logger) LogDrop(site, stage string, err error) {
	l.Verbose("drop %s at %s: %v", stage, site, err)
}

// LogStartup logs relay startup information
func (l *Logger) LogStartup(name string, sites []string, configPath string) {
	l.Info("Starting relay %s", name)
	l.Verbose("  Sites: %s", strings.Join(sites, ", "))
	l.Verbose("  Config: %s", configPath)
}

// LogHex logs hex data (for debug level)
func (l *Logger) LogHex(label string, data []byte) {
	if l == nil || l.GetLevel() < LogLevelDebug {
		return
	}
	var b strings.Builder
	for i, c := range data {
		if i > 0 {
			b.WriteByte(' ')
		}
		fmt.Fprintf(&b, "%02x", c)
	}
	l.Debug("%s: %s", label, b.String())
}
