package utils

import (
	"bytes"
	"os"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestSanitizeName(t *testing.T) {
	require.Equal(t, "ai_model", SanitizeName(" AI Model "))
	require.Equal(t, "a_b_c", SanitizeName("a/b\\c"))
}

func TestRunLogger_WritesFile(t *testing.T) {
	dir := t.TempDir()
	l, err := NewRunLogger(dir, "gen", "Management API")
	require.NoError(t, err)

	l.LogInfo("generated %d files", 3)
	l.LogError("failed: %s", "boom")
	require.NoError(t, l.Close())

	data, err := os.ReadFile(l.Path())
	require.NoError(t, err)
	require.Contains(t, l.Path(), "management_api")
	require.Contains(t, string(data), "[INFO] generated 3 files")
	require.Contains(t, string(data), "[ERROR] failed: boom")
}

func TestWriterLogger(t *testing.T) {
	var buf bytes.Buffer
	l := NewWriterLogger(&buf)
	l.LogDebug("x=%d", 1)
	require.NoError(t, l.Close())
	require.True(t, strings.HasPrefix(buf.String(), "[DEBUG] x=1"))
}
