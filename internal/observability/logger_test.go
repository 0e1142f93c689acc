package observability

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func TestLogger_EventsCarryRunID(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	l := NewWithZap(zap.New(core))
	ctx := WithRunID(context.Background(), "run-1")

	l.LogStep(ctx, "analyze", "requirements analyzed")
	l.LogFallback(ctx, "generate", errors.New("boom"))

	entries := logs.All()
	require.Len(t, entries, 2)

	first := entries[0].ContextMap()
	assert.Equal(t, "step", first["type"])
	assert.Equal(t, "run-1", first["run_id"])
	assert.Equal(t, "analyze", first["step"])

	assert.Equal(t, zapcore.WarnLevel, entries[1].Level)
	assert.Equal(t, "fallback", entries[1].ContextMap()["type"])
}

func TestRunID_Missing(t *testing.T) {
	assert.Equal(t, "", RunID(context.Background()))
}

func TestLogger_LLMTranscriptFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "logs", "llm.jsonl")
	l, err := NewLogger(Options{LLMLogPath: path})
	require.NoError(t, err)

	l.LogLLM(context.Background(), "complete", "sys", "prompt", "response")
	l.Sync()

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"op":"complete"`)
	assert.Equal(t, 1, strings.Count(string(data), "\n"))
}

func TestRotatingFile_KeepsOneOldGeneration(t *testing.T) {
	path := filepath.Join(t.TempDir(), "llm.jsonl")
	r := &rotatingFile{path: path, maxSize: 10}

	_, err := r.Write([]byte("first line that is long\n"))
	require.NoError(t, err)
	_, err = r.Write([]byte("second\n"))
	require.NoError(t, err)

	current, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "second\n", string(current))

	old, err := os.ReadFile(path + ".old")
	require.NoError(t, err)
	assert.Equal(t, "first line that is long\n", string(old))
}
