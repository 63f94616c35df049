package logger_test

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"testing"

	"github.com/sebdah/goldie/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.trai.ch/rig/internal/adapters/logger"
	"go.trai.ch/rig/internal/core/domain"
	"go.trai.ch/zerr"
)

func newTestLogger(t *testing.T) (*logger.Logger, *bytes.Buffer) {
	t.Helper()
	t.Setenv("NO_COLOR", "1")

	var buf bytes.Buffer
	l := logger.New()
	l.SetOutput(&buf)
	return l, &buf
}

func TestLogger_Pretty(t *testing.T) {
	l, buf := newTestLogger(t)

	l.Info("loading rigfile.yaml")
	l.Warn(`rigfile.yaml declares version "2", only "1" is supported`)
	l.Error(domain.Annotate(
		fmt.Errorf("%w: %w", domain.ErrConfigReadFailed, errors.New("open rigfile.yaml: permission denied")),
		"path", "rigfile.yaml",
	))

	goldie.New(t).Assert(t, "pretty", buf.Bytes())
}

func TestLogger_PrettyCauseChain(t *testing.T) {
	l, buf := newTestLogger(t)

	err := zerr.With(
		zerr.Wrap(&domain.CycleError{Path: []string{"a", "b", "a"}}, "failed to resolve target"),
		"target", "a",
	)
	l.Error(err)

	goldie.New(t).Assert(t, "cause_chain", buf.Bytes())
}

func TestLogger_ErrorNil(t *testing.T) {
	l, buf := newTestLogger(t)
	l.Error(nil)
	assert.Empty(t, buf.String())
}

func TestLogger_JSON(t *testing.T) {
	l, buf := newTestLogger(t)
	l.SetJSON(true)

	l.Info("hello")
	l.Error(zerr.With(zerr.New("boom"), "target", "lint"))

	lines := bytes.Split(bytes.TrimSpace(buf.Bytes()), []byte("\n"))
	require.Len(t, lines, 2)

	var info map[string]any
	require.NoError(t, json.Unmarshal(lines[0], &info))
	assert.Equal(t, "INFO", info["level"])
	assert.Equal(t, "hello", info["msg"])

	var failure map[string]any
	require.NoError(t, json.Unmarshal(lines[1], &failure))
	assert.Equal(t, "ERROR", failure["level"])
	assert.Equal(t, "operation failed", failure["msg"])
	assert.Contains(t, string(lines[1]), `"target":"lint"`)
}

func TestLogger_SetOutputKeepsJSON(t *testing.T) {
	l, _ := newTestLogger(t)
	l.SetJSON(true)

	var other bytes.Buffer
	l.SetOutput(&other)
	l.Info("moved")

	assert.Contains(t, other.String(), `"msg":"moved"`)
}

func TestPrettyHandler_Attrs(t *testing.T) {
	t.Setenv("NO_COLOR", "1")

	var buf bytes.Buffer
	log := slog.New(logger.NewPrettyHandler(&buf, nil)).With("target", "lint").WithGroup("run")

	log.Info("starting", "jobs", 2)
	log.Debug("hidden")
	log.Warn("slow")

	assert.Equal(t, "starting target=lint run.jobs=2\n! slow target=lint\n", buf.String())
}
