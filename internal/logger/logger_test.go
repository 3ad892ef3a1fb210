package logger

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParseLevel(t *testing.T) {
	assert.Equal(t, DEBUG, ParseLevel("debug"))
	assert.Equal(t, WARNING, ParseLevel("warn"))
	assert.Equal(t, WARNING, ParseLevel(" WARNING "))
	assert.Equal(t, ERROR, ParseLevel("error"))
	assert.Equal(t, CRITICAL, ParseLevel("critical"))
	assert.Equal(t, INFO, ParseLevel("info"))
	assert.Equal(t, INFO, ParseLevel("verbose"))
	assert.Equal(t, "WARNING", WARNING.String())
	assert.Equal(t, "LEVEL(42)", Level(42).String())
}

func TestLevelFiltering(t *testing.T) {
	var buf bytes.Buffer
	SetOutput(&buf)
	SetLevel(WARNING)
	defer SetLevel(INFO)

	Infof("hidden %d", 1)
	Warningf("shown %d", 2)
	ErrorNoTrace("failure")

	out := buf.String()
	assert.NotContains(t, out, "hidden 1")
	assert.Contains(t, out, "[WARNING] shown 2")
	assert.Contains(t, out, "[ERROR] failure")
}

func TestErrorIncludesStackTrace(t *testing.T) {
	var buf bytes.Buffer
	SetOutput(&buf)
	SetLevel(DEBUG)
	defer SetLevel(INFO)

	Errorf("boom: %s", "bad")

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	assert.Greater(t, len(lines), 1)
	assert.Contains(t, lines[0], "[ERROR] boom: bad")
	assert.Contains(t, buf.String(), "goroutine")
}
