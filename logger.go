package ember

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"strings"
	"sync"
	"sync/atomic"
	"text/template"
	"time"
)

// defaultLogFormat is the text/template source used to render a log line
// when no other format is configured.
const defaultLogFormat = `{"time":"{{.Time}}","level":"{{.Level}}","message":"{{.Message}}"}`

// logLevelRank orders the syslog-style level names the config collaborator
// recognizes from most to least severe. A message logs when its rank is
// less than or equal to the logger's configured threshold rank; "error"
// and "warn" are accepted as aliases for "err" and "warning".
var logLevelRank = map[string]int{
	"panic":   -1,
	"emerg":   0,
	"alert":   1,
	"crit":    2,
	"err":     3,
	"error":   3,
	"warning": 4,
	"warn":    4,
	"notice":  5,
	"info":    6,
	"debug":   7,
}

// parseLogLevel resolves name to its severity rank. An unrecognized name
// falls back to "info".
func parseLogLevel(name string) int {
	if rank, ok := logLevelRank[strings.ToLower(name)]; ok {
		return rank
	}
	return logLevelRank["info"]
}

// Logger is a leveled logger formatting each line from a text/template
// source. Buffers are pooled to keep per-line allocation low under
// concurrent workers.
type Logger struct {
	Output io.Writer

	threshold atomic.Int32
	tmpl      *template.Template
	bufPool   sync.Pool
	mu        sync.Mutex
}

// newLogger returns a Logger writing to output, emitting lines formatted
// by format (a text/template source) at or above the severity named by
// level. An empty format falls back to defaultLogFormat; an unrecognized
// level falls back to "info".
func newLogger(output io.Writer, format, level string) *Logger {
	if output == nil {
		output = os.Stderr
	}
	if format == "" {
		format = defaultLogFormat
	}

	l := &Logger{
		Output: output,
		tmpl:   template.Must(template.New("logger").Parse(format)),
		bufPool: sync.Pool{
			New: func() interface{} { return new(bytes.Buffer) },
		},
	}
	l.threshold.Store(int32(parseLogLevel(level)))
	return l
}

// SetLevel changes l's severity threshold to level at runtime. An
// unrecognized level falls back to "info", same as newLogger.
func (l *Logger) SetLevel(level string) {
	l.threshold.Store(int32(parseLogLevel(level)))
}

// Debug logs at debug severity.
func (l *Logger) Debug(args ...interface{}) { l.log("debug", "", args...) }

// Debugf logs at debug severity with a format string.
func (l *Logger) Debugf(format string, args ...interface{}) { l.log("debug", format, args...) }

// Info logs at info severity.
func (l *Logger) Info(args ...interface{}) { l.log("info", "", args...) }

// Infof logs at info severity with a format string.
func (l *Logger) Infof(format string, args ...interface{}) { l.log("info", format, args...) }

// Warn logs at warning severity.
func (l *Logger) Warn(args ...interface{}) { l.log("warning", "", args...) }

// Warnf logs at warning severity with a format string.
func (l *Logger) Warnf(format string, args ...interface{}) { l.log("warning", format, args...) }

// Error logs at err severity.
func (l *Logger) Error(args ...interface{}) { l.log("err", "", args...) }

// Errorf logs at err severity with a format string.
func (l *Logger) Errorf(format string, args ...interface{}) { l.log("err", format, args...) }

// Fatal logs at emerg severity, then terminates the process. Reserved
// for startup failures (socket/bind/listen/TLS) per the exit-code
// contract; never called from inside request handling.
func (l *Logger) Fatal(args ...interface{}) {
	l.log("emerg", "", args...)
	os.Exit(1)
}

type logLine struct {
	Time    string
	Level   string
	Message string
}

func (l *Logger) log(level, format string, args ...interface{}) {
	if logLevelRank[level] > int(l.threshold.Load()) {
		return
	}

	message := fmt.Sprint(args...)
	if format != "" {
		message = fmt.Sprintf(format, args...)
	}

	data := logLine{
		Time:    time.Now().UTC().Format(time.RFC3339),
		Level:   strings.ToUpper(level),
		Message: message,
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	buf := l.bufPool.Get().(*bytes.Buffer)
	defer func() {
		buf.Reset()
		l.bufPool.Put(buf)
	}()

	if err := l.tmpl.Execute(buf, data); err != nil {
		fmt.Fprintf(l.Output, "%s %s %s\n", data.Time, data.Level, message)
		return
	}

	buf.WriteByte('\n')
	l.Output.Write(buf.Bytes())
}
