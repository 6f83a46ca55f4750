package log

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func capture(t *testing.T) *bytes.Buffer {
	t.Helper()
	var buf bytes.Buffer
	formatter, level := Logger.Formatter, Logger.GetLevel()
	SetOutput(&buf)
	t.Cleanup(func() {
		SetOutput(logrus.StandardLogger().Out)
		Logger.Formatter = formatter
		Logger.SetLevel(level)
	})
	return &buf
}

func TestLevels(t *testing.T) {
	buf := capture(t)
	SetLevel(InfoLevel)

	Debugf("hidden %d", 1)
	Infof("shown %d", 2)
	assert.NotContains(t, buf.String(), "hidden")
	assert.Contains(t, buf.String(), "shown 2")

	SetLevel(DebugLevel)
	Log(DebugLevel, "now", "visible")
	assert.Contains(t, buf.String(), "now visible")
}

func TestJSONFields(t *testing.T) {
	buf := capture(t)
	UseJSON()

	WithFields(Fields{"code": "db.get_surveys", "path": "/api/surveys"}).Error("boom")

	var entry map[string]any
	require.NoError(t, json.Unmarshal([]byte(strings.TrimSpace(buf.String())), &entry))
	assert.Equal(t, "error", entry["level"])
	assert.Equal(t, "boom", entry["msg"])
	assert.Equal(t, "db.get_surveys", entry["code"])
	assert.Equal(t, "/api/surveys", entry["path"])
}
