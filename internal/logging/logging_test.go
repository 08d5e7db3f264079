// Copyright (C) 2026 Ben Grimm. Licensed under AGPL-3.0 (https://www.gnu.org/licenses/agpl-3.0.txt)

package logging

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoggerJSONOutput(t *testing.T) {
	var buf bytes.Buffer
	l := New(Config{Level: "debug", JSON: true, Output: &buf, Component: "ane"})

	l.Info("evaluate complete", "slot", 0, "session", "default")

	var rec map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &rec))
	assert.Equal(t, "evaluate complete", rec["msg"])
	assert.Equal(t, "ane", rec["component"])
	assert.EqualValues(t, 0, rec["slot"])
}

func TestLoggerWithComponent(t *testing.T) {
	var buf bytes.Buffer
	l := New(Config{Level: "info", JSON: true, Output: &buf})
	derived := l.WithComponent("restriction")

	derived.Warn("restriction added")

	var rec map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &rec))
	assert.Equal(t, "restriction", rec["component"])
}

func TestLoggerLevelFiltering(t *testing.T) {
	var buf bytes.Buffer
	l := New(Config{Level: "warn", JSON: true, Output: &buf})

	l.Debug("should not appear")
	assert.Equal(t, 0, buf.Len())

	l.Warn("should appear")
	assert.Greater(t, buf.Len(), 0)
}

func TestDefaultLogger(t *testing.T) {
	assert.NotNil(t, Default())
}
