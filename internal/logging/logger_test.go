package logging_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/2beens/fitcoach/internal/logging"
	"github.com/2beens/fitcoach/pkg"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"gopkg.in/natefinch/lumberjack.v2"
)

func TestGetLevel(t *testing.T) {
	assert.Equal(t, logrus.DebugLevel, logging.GetLevel("debug"))
	assert.Equal(t, logrus.WarnLevel, logging.GetLevel("WARN"))
	assert.Equal(t, logrus.WarnLevel, logging.GetLevel("warning"))
	assert.Equal(t, logrus.TraceLevel, logging.GetLevel("trace"))
	assert.Equal(t, logrus.InfoLevel, logging.GetLevel(""))
	assert.Equal(t, logrus.InfoLevel, logging.GetLevel("nonsense"))
}

func TestOutput(t *testing.T) {
	assert.Equal(t, os.Stdout, logging.Output(logging.LoggerSetupParams{}))

	dir := t.TempDir()
	out := logging.Output(logging.LoggerSetupParams{
		LogsPath:    dir,
		LogFileName: "service",
	})
	rotating, ok := out.(*lumberjack.Logger)
	if assert.True(t, ok) {
		assert.Equal(t, filepath.Join(dir, "service.log"), rotating.Filename)
	}

	out = logging.Output(logging.LoggerSetupParams{
		LogsPath:    dir,
		LogFileName: "service.log",
		LogToStdout: true,
	})
	combined, ok := out.(*pkg.CombinedWriter)
	if assert.True(t, ok) {
		assert.Len(t, combined.Writers, 2)
	}
}

func TestSentryHook_FireWithoutClient(t *testing.T) {
	hook := logging.NewSentryHook([]logrus.Level{logrus.ErrorLevel})
	assert.Equal(t, []logrus.Level{logrus.ErrorLevel}, hook.Levels())
	assert.Error(t, hook.Fire(&logrus.Entry{Level: logrus.ErrorLevel, Message: "boom"}))
}
