package logger

import (
	"bytes"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
)

func capture(t *testing.T, v bool) *bytes.Buffer {
	t.Helper()
	var buf bytes.Buffer
	SetOutput(&buf)
	SetVerbose(v)
	t.Cleanup(func() {
		SetVerbose(false)
		SetOutput(os.Stderr)
	})
	return &buf
}

func TestSetVerbose(t *testing.T) {
	capture(t, false)
	assert.False(t, IsVerbose())

	SetVerbose(true)
	assert.True(t, IsVerbose())

	SetVerbose(false)
	assert.False(t, IsVerbose())
}

func TestDebug_WhenVerbose(t *testing.T) {
	buf := capture(t, true)

	Debug("Created %d splits", 3)

	assert.Contains(t, buf.String(), "Created 3 splits")
	assert.Contains(t, buf.String(), "pagewise")
}

func TestDebug_WhenNotVerbose(t *testing.T) {
	buf := capture(t, false)

	Debug("hidden")
	Info("hidden too")

	assert.Empty(t, buf.String())
}

func TestWarn_AlwaysPrints(t *testing.T) {
	buf := capture(t, false)

	Warn("index %s not ready", "pages")
	Error("boom")

	assert.Contains(t, buf.String(), "index pages not ready")
	assert.Contains(t, buf.String(), "boom")
}

func TestSection(t *testing.T) {
	buf := capture(t, true)
	Section("Ingest")
	assert.Equal(t, "\n=== Ingest ===\n", buf.String())

	buf.Reset()
	SetVerbose(false)
	Section("Ingest")
	assert.Empty(t, buf.String())
}
