package graphviz

import (
	"context"
	"os"
	"path/filepath"
	"runtime"
	"testing"
	"time"

	"mlmdview/application/ports"

	"github.com/sony/gobreaker"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

const sampleDOT = "digraph lineage {\n  \"A1\" [label=\"A1\", shape=ellipse, URL=\"/artifacts/1\"];\n}\n"

// writeScript creates an executable shell script standing in for dot
func writeScript(t *testing.T, body string) string {
	t.Helper()
	if runtime.GOOS == "windows" {
		t.Skip("shell scripts are not executable on windows")
	}
	path := filepath.Join(t.TempDir(), "fake-dot")
	require.NoError(t, os.WriteFile(path, []byte("#!/bin/sh\n"+body+"\n"), 0o755))
	return path
}

func TestNewExporter_MissingBinaryFallsBack(t *testing.T) {
	// Arrange
	opts := Options{DotPath: filepath.Join(t.TempDir(), "no-such-dot")}

	// Act
	exporter := NewExporter(opts, zap.NewNop())
	out := exporter.Export(context.Background(), sampleDOT)

	// Assert
	assert.IsType(t, &PassthroughExporter{}, exporter)
	assert.False(t, out.IsImage())
	assert.Equal(t, []byte(sampleDOT), out.Data)
	assert.Equal(t, "text/plain; charset=utf-8", out.ContentType)
}

func TestNewExporter_AvailableBinaryUsesBreaker(t *testing.T) {
	// Arrange
	opts := Options{DotPath: writeScript(t, "cat")}

	// Act
	exporter := NewExporter(opts, zap.NewNop())

	// Assert
	assert.IsType(t, &BreakerExporter{}, exporter)
}

func TestCommandExporter_Export(t *testing.T) {
	tests := []struct {
		name      string
		script    string
		format    string
		wantImage bool
		wantType  string
	}{
		{"echoes stdin as image", "cat", "png", true, "image/png"},
		{"svg content type", "cat", "svg", true, "image/svg+xml"},
		{"non-zero exit", "echo 'syntax error' >&2; exit 1", "png", false, "text/plain; charset=utf-8"},
		{"empty output", "cat >/dev/null", "png", false, "text/plain; charset=utf-8"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			// Arrange
			exporter := NewCommandExporter(Options{DotPath: writeScript(t, tt.script), Format: tt.format}, zap.NewNop())

			// Act
			out := exporter.Export(context.Background(), sampleDOT)

			// Assert
			assert.Equal(t, tt.wantImage, out.IsImage())
			assert.Equal(t, tt.wantType, out.ContentType)
			assert.Equal(t, []byte(sampleDOT), out.Data)
		})
	}
}

func TestCommandExporter_Render_PassesFormatFlag(t *testing.T) {
	// Arrange
	exporter := NewCommandExporter(Options{DotPath: writeScript(t, `printf '%s' "$1"`), Format: "svg"}, zap.NewNop())

	// Act
	data, err := exporter.Render(context.Background(), sampleDOT)

	// Assert
	require.NoError(t, err)
	assert.Equal(t, "-Tsvg", string(data))
}

func TestCommandExporter_Export_Timeout(t *testing.T) {
	// Arrange
	exporter := NewCommandExporter(Options{
		DotPath: writeScript(t, "exec sleep 5"),
		Timeout: 50 * time.Millisecond,
	}, zap.NewNop())

	// Act
	start := time.Now()
	out := exporter.Export(context.Background(), sampleDOT)

	// Assert
	assert.False(t, out.IsImage())
	assert.Equal(t, []byte(sampleDOT), out.Data)
	assert.Less(t, time.Since(start), 4*time.Second)
}

func TestCommandExporter_Render_CanceledContext(t *testing.T) {
	// Arrange
	exporter := NewCommandExporter(Options{DotPath: writeScript(t, "exec sleep 5")}, zap.NewNop())
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	// Act
	_, err := exporter.Render(ctx, sampleDOT)

	// Assert
	assert.ErrorIs(t, err, context.Canceled)
}

func TestBreakerExporter_OpensAfterRepeatedFailures(t *testing.T) {
	// Arrange
	inner := NewCommandExporter(Options{DotPath: writeScript(t, "exit 2")}, zap.NewNop())
	exporter := NewBreakerExporter(inner, BreakerSettings{MinRequests: 2, FailureThreshold: 1, Timeout: time.Hour}, zap.NewNop())

	// Act
	var outputs []ports.RenderedOutput
	for i := 0; i < 3; i++ {
		outputs = append(outputs, exporter.Export(context.Background(), sampleDOT))
	}

	// Assert
	assert.Equal(t, gobreaker.StateOpen, exporter.State())
	for _, out := range outputs {
		assert.False(t, out.IsImage())
		assert.Equal(t, []byte(sampleDOT), out.Data)
	}
}

func TestBreakerExporter_Success(t *testing.T) {
	// Arrange
	inner := NewCommandExporter(Options{DotPath: writeScript(t, "cat")}, zap.NewNop())
	exporter := NewBreakerExporter(inner, BreakerSettings{}, zap.NewNop())

	// Act
	out := exporter.Export(context.Background(), sampleDOT)

	// Assert
	assert.True(t, out.IsImage())
	assert.Equal(t, gobreaker.StateClosed, exporter.State())
}
