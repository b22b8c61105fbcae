package config

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	rotatelogs "github.com/lestrrat-go/file-rotatelogs"
	"github.com/sat20-labs/sendmany/common"
)

// InitLog sends common.Log to stderr and a daily rotated file under the
// configured log path. Stdout is left for command output.
func InitLog(conf *YamlConf) error {
	logPath := "./log/unknown"
	level := "info"
	if conf != nil {
		logPath = conf.Log.Path
		level = conf.Log.Level
	}
	common.SetLogLevel(level)

	exePath, _ := os.Executable()
	executableName := filepath.Base(exePath)
	fileHook, err := rotatelogs.New(
		filepath.Join(logPath, executableName+".%Y%m%d%H%M.log"),
		rotatelogs.WithLinkName(filepath.Join(logPath, executableName+".log")),
		rotatelogs.WithMaxAge(30*24*time.Hour),
		rotatelogs.WithRotationTime(24*time.Hour),
	)
	if err != nil {
		return fmt.Errorf("failed to create RotateFile hook, error: %s", err)
	}

	common.Log.SetOutput(io.MultiWriter(fileHook, os.Stderr))
	return nil
}
