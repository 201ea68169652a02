// Package logging wires logrus up with a rotating file sink and a compact
// caller-aware formatter, the same shape the teacher corpus's server
// entrypoints use. It also redirects gin's own writers into logrus so
// request-framework noise and proxy events land in one place.
package logging

import (
	"fmt"
	"io"
	"path/filepath"

	"github.com/gin-gonic/gin"
	log "github.com/sirupsen/logrus"
	"gopkg.in/natefinch/lumberjack.v2"
)

// Formatter renders a single log entry as
// "[timestamp] [level] [file:line] message".
type Formatter struct{}

// Format implements logrus.Formatter.
func (f *Formatter) Format(entry *log.Entry) ([]byte, error) {
	timestamp := entry.Time.Format("2006-01-02 15:04:05")
	var caller string
	if entry.Caller != nil {
		caller = fmt.Sprintf("%s:%d", filepath.Base(entry.Caller.File), entry.Caller.Line)
	}
	line := fmt.Sprintf("[%s] [%s] [%s] %s\n", timestamp, entry.Level, caller, entry.Message)
	return []byte(line), nil
}

// Handles bundles the writers Setup opens so the caller can close them on
// shutdown.
type Handles struct {
	file       *lumberjack.Logger
	ginInfo    *io.PipeWriter
	ginError   *io.PipeWriter
}

// Close releases the underlying writers.
func (h *Handles) Close() {
	if h == nil {
		return
	}
	if h.file != nil {
		_ = h.file.Close()
	}
	if h.ginInfo != nil {
		_ = h.ginInfo.Close()
	}
	if h.ginError != nil {
		_ = h.ginError.Close()
	}
}

// Setup configures the global logrus logger to write rotated files under
// logDir/proxy.log, and points gin's default writers at it too.
func Setup(logDir string, debug bool) *Handles {
	fileWriter := &lumberjack.Logger{
		Filename:   filepath.Join(logDir, "proxy.log"),
		MaxSize:    10,
		MaxBackups: 5,
		MaxAge:     0,
		Compress:   false,
	}

	log.SetOutput(fileWriter)
	log.SetReportCaller(true)
	log.SetFormatter(&Formatter{})
	if debug {
		log.SetLevel(log.DebugLevel)
	} else {
		log.SetLevel(log.InfoLevel)
	}

	ginInfo := log.StandardLogger().Writer()
	ginErr := log.StandardLogger().WriterLevel(log.ErrorLevel)
	gin.DefaultWriter = ginInfo
	gin.DefaultErrorWriter = ginErr
	gin.DebugPrintFunc = func(format string, values ...interface{}) {
		log.StandardLogger().Infof(format, values...)
	}

	return &Handles{file: fileWriter, ginInfo: ginInfo, ginError: ginErr}
}
