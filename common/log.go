package common

import (
	"bytes"
	"fmt"
	"sort"

	"github.com/sirupsen/logrus"
)

var Log = NewLogger()

func init() {
	Log.SetLevel(logrus.InfoLevel)
}

func NewLogger() *logrus.Logger {
	log := logrus.New()
	log.SetLevel(logrus.TraceLevel)
	log.SetFormatter(&CustomTextFormatter{})
	return log
}

// GetLoggerEntry returns an entry tagged with the module name that
// CustomTextFormatter prints in front of every message.
func GetLoggerEntry(module string) *logrus.Entry {
	return Log.WithField("module", module)
}

// SetLogLevel parses level and applies it to Log, falling back to info.
func SetLogLevel(level string) logrus.Level {
	lvl, err := logrus.ParseLevel(level)
	if err != nil {
		lvl = logrus.InfoLevel
	}
	Log.SetLevel(lvl)
	return lvl
}

type CustomTextFormatter struct{}

func (f *CustomTextFormatter) Format(entry *logrus.Entry) ([]byte, error) {
	var b bytes.Buffer

	b.WriteString(entry.Time.Format("2006-01-02 15:04:05"))
	b.WriteString(fmt.Sprintf(" [%s] ", entry.Level.String()))
	moduleName, ok := entry.Data["module"].(string)
	if !ok {
		moduleName = "sendmany"
	}
	b.WriteString(moduleName)
	b.WriteString(": ")
	b.WriteString(entry.Message)
	keys := make([]string, 0, len(entry.Data))
	for k := range entry.Data {
		if k != "module" {
			keys = append(keys, k)
		}
	}
	sort.Strings(keys)
	for _, k := range keys {
		b.WriteString(fmt.Sprintf(" %s=%v", k, entry.Data[k]))
	}
	b.WriteByte('\n')

	return b.Bytes(), nil
}
