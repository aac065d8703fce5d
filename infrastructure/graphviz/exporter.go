package graphviz

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os/exec"
	"strings"
	"time"

	"mlmdview/application/ports"

	"go.uber.org/zap"
)

// DefaultTimeout bounds a single Graphviz invocation
const DefaultTimeout = 10 * time.Second

// ErrEmptyOutput is returned when the renderer exits cleanly without writing anything
var ErrEmptyOutput = errors.New("renderer produced no output")

var contentTypes = map[string]string{
	"png": "image/png",
	"svg": "image/svg+xml",
}

// Options configures the Graphviz exporter
type Options struct {
	DotPath string
	Format  string
	Timeout time.Duration
	Breaker BreakerSettings
}

func (o Options) withDefaults() Options {
	if o.DotPath == "" {
		o.DotPath = "dot"
	}
	if o.Format == "" {
		o.Format = "png"
	}
	if o.Timeout <= 0 {
		o.Timeout = DefaultTimeout
	}
	return o
}

// NewExporter probes for the Graphviz binary and returns a command exporter
// guarded by a circuit breaker, or a passthrough exporter when it is missing.
func NewExporter(opts Options, logger *zap.Logger) ports.GraphExporter {
	opts = opts.withDefaults()

	path, err := exec.LookPath(opts.DotPath)
	if err != nil {
		logger.Warn("Graphviz not available, graphs will be served as DOT text",
			zap.String("dotPath", opts.DotPath),
			zap.Error(err),
		)
		return NewPassthroughExporter()
	}

	logger.Info("Graphviz renderer enabled",
		zap.String("dotPath", path),
		zap.String("format", opts.Format),
		zap.Duration("timeout", opts.Timeout),
	)
	opts.DotPath = path
	return NewBreakerExporter(NewCommandExporter(opts, logger), opts.Breaker, logger)
}

// CommandExporter renders DOT by running the Graphviz dot command
type CommandExporter struct {
	dotPath     string
	format      string
	contentType string
	timeout     time.Duration
	logger      *zap.Logger
}

// NewCommandExporter creates a new command exporter
func NewCommandExporter(opts Options, logger *zap.Logger) *CommandExporter {
	opts = opts.withDefaults()
	contentType, ok := contentTypes[opts.Format]
	if !ok {
		contentType = "application/octet-stream"
	}
	return &CommandExporter{
		dotPath:     opts.DotPath,
		format:      opts.Format,
		contentType: contentType,
		timeout:     opts.Timeout,
		logger:      logger,
	}
}

// Render runs dot -T<format> with dot on stdin and returns stdout
func (e *CommandExporter) Render(ctx context.Context, dot string) ([]byte, error) {
	ctx, cancel := context.WithTimeout(ctx, e.timeout)
	defer cancel()

	var stdout, stderr bytes.Buffer
	cmd := exec.CommandContext(ctx, e.dotPath, "-T"+e.format)
	cmd.Stdin = strings.NewReader(dot)
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	// Don't wait forever on pipes held open by orphaned children after a kill.
	cmd.WaitDelay = time.Second

	if err := cmd.Run(); err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, fmt.Errorf("run %s: %w", e.dotPath, ctxErr)
		}
		return nil, fmt.Errorf("run %s: %w: %s", e.dotPath, err, strings.TrimSpace(stderr.String()))
	}
	if stdout.Len() == 0 {
		return nil, ErrEmptyOutput
	}
	return stdout.Bytes(), nil
}

// Export implements ports.GraphExporter
func (e *CommandExporter) Export(ctx context.Context, dot string) ports.RenderedOutput {
	data, err := e.Render(ctx, dot)
	if err != nil {
		e.logger.Warn("Graph rendering failed, falling back to DOT text", zap.Error(err))
		return ports.TextOutput(dot)
	}
	return ports.ImageOutput(data, e.contentType)
}

// ContentType returns the MIME type of rendered images
func (e *CommandExporter) ContentType() string {
	return e.contentType
}

// PassthroughExporter never renders; it is used when Graphviz is not installed
type PassthroughExporter struct{}

// NewPassthroughExporter creates a new passthrough exporter
func NewPassthroughExporter() *PassthroughExporter {
	return &PassthroughExporter{}
}

// Export implements ports.GraphExporter
func (PassthroughExporter) Export(_ context.Context, dot string) ports.RenderedOutput {
	return ports.TextOutput(dot)
}
