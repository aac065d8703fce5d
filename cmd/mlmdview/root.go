package main

import (
	"context"
	"fmt"
	"os"

	"mlmdview/infrastructure/config"
	"mlmdview/infrastructure/di"

	"github.com/spf13/cobra"
)

// version is set at build time via -ldflags.
var version = "dev"

// globalFlags override the environment configuration when set
type globalFlags struct {
	store    string
	db       string
	fixture  string
	table    string
	dotPath  string
	format   string
	logLevel string
}

func newRootCmd() *cobra.Command {
	flags := &globalFlags{}

	root := &cobra.Command{
		Use:   "mlmdview",
		Short: "Browse ML Metadata provenance as lineage graphs",
		Long: "mlmdview reads artifacts, executions and events from an ML Metadata store\n" +
			"and renders the lineage around any of them as a Graphviz graph.",
		SilenceUsage: true,
		CompletionOptions: cobra.CompletionOptions{
			HiddenDefaultCmd: true,
		},
		Version: version,
	}

	f := root.PersistentFlags()
	f.StringVar(&flags.store, "store", "", "Metadata store backend: sqlite, dynamodb or memory (STORE_BACKEND)")
	f.StringVar(&flags.db, "db", "", "Path of the ML Metadata SQLite database (MLMD_DB)")
	f.StringVar(&flags.fixture, "fixture", "", "YAML fixture loaded by the memory backend (FIXTURE_PATH)")
	f.StringVar(&flags.table, "table", "", "DynamoDB table name (TABLE_NAME)")
	f.StringVar(&flags.dotPath, "dot-path", "", "Graphviz dot executable (GRAPHVIZ_DOT_PATH)")
	f.StringVar(&flags.format, "format", "", "Image format: png or svg (RENDER_FORMAT)")
	f.StringVar(&flags.logLevel, "log-level", "", "Log level: debug, info, warn or error (LOG_LEVEL)")

	root.AddCommand(newServeCmd(flags))
	root.AddCommand(newGraphCmd(flags))
	root.AddCommand(newShowCmd(flags))
	root.AddCommand(newTypeCmd(flags))
	root.AddCommand(newEventsCmd(flags))
	root.AddCommand(newSeedDynamoDBCmd(flags))

	return root
}

// loadConfig reads the environment and applies the flags given on the command line
func (g *globalFlags) loadConfig() (*config.Config, error) {
	cfg, err := config.LoadConfig()
	if err != nil {
		return nil, err
	}

	overrides := []struct {
		value  string
		target *string
	}{
		{g.store, &cfg.StoreBackend},
		{g.db, &cfg.MLMDDatabase},
		{g.fixture, &cfg.FixturePath},
		{g.table, &cfg.DynamoDBTable},
		{g.dotPath, &cfg.GraphvizDotPath},
		{g.format, &cfg.RenderFormat},
		{g.logLevel, &cfg.LogLevel},
	}
	for _, o := range overrides {
		if o.value != "" {
			*o.target = o.value
		}
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// container builds the application for a one-shot command
func (g *globalFlags) container(ctx context.Context) (*di.Container, func(), error) {
	cfg, err := g.loadConfig()
	if err != nil {
		return nil, nil, err
	}
	container, cleanup, err := di.InitializeContainer(ctx, cfg)
	if err != nil {
		return nil, nil, fmt.Errorf("initialize: %w", err)
	}
	return container, func() {
		cleanup()
		_ = container.Logger.Sync()
	}, nil
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
