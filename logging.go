package portfoliolive

import (
	"io"
	"log"
	"os"
	"path/filepath"

	"github.com/gin-gonic/gin"
	"gopkg.in/natefinch/lumberjack.v2"
)

type nopCloser struct{}

func (nopCloser) Close() error { return nil }

// SetupLogging tees the standard logger and gin's request log into a
// rotating file. Without a file name logging stays on the console.
func SetupLogging(filename string) (io.Closer, error) {
	if filename == "" {
		return nopCloser{}, nil
	}
	if err := os.MkdirAll(filepath.Dir(filename), 0o755); err != nil {
		return nil, err
	}

	logWriter := &lumberjack.Logger{
		Filename:   filename,
		MaxSize:    25,
		MaxBackups: 10,
		MaxAge:     14,
		Compress:   true,
	}
	log.SetOutput(io.MultiWriter(os.Stderr, logWriter))
	gin.DefaultWriter = io.MultiWriter(os.Stdout, logWriter)
	gin.DefaultErrorWriter = io.MultiWriter(os.Stderr, logWriter)
	return logWriter, nil
}
