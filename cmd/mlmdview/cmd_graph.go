package main

import (
	"fmt"
	"os"
	"strconv"

	"mlmdview/application/queries"
	"mlmdview/domain/core/valueobjects"

	"github.com/spf13/cobra"
)

func newGraphCmd(flags *globalFlags) *cobra.Command {
	var (
		out     string
		dotOnly bool
	)

	cmd := &cobra.Command{
		Use:   "graph <artifact|execution> <id>",
		Short: "Render the lineage graph around an artifact or execution",
		Long: "Render the lineage graph around an artifact or execution.\n" +
			"The image is written when Graphviz is available, the DOT text otherwise.",
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			query, err := parseTarget(args)
			if err != nil {
				return err
			}

			container, cleanup, err := flags.container(cmd.Context())
			if err != nil {
				return err
			}
			defer cleanup()

			result, err := container.QueryBus.Ask(cmd.Context(), queries.GetLineageGraphQuery{Role: query.Role, ID: query.ID})
			if err != nil {
				return err
			}
			graph := result.(*queries.GetLineageGraphResult)

			data := graph.Output.Data
			if dotOnly {
				data = []byte(graph.DOT)
			}

			if out == "" || out == "-" {
				_, err = cmd.OutOrStdout().Write(data)
				return err
			}
			if err := os.WriteFile(out, data, 0o644); err != nil {
				return fmt.Errorf("write graph: %w", err)
			}
			fmt.Fprintf(cmd.ErrOrStderr(), "%s: %d nodes, %d edges, %s written to %s\n",
				graph.Seed, graph.Graph.NodeCount(), graph.Graph.EdgeCount(), graph.Output.ContentType, out)
			return nil
		},
	}

	cmd.Flags().StringVarP(&out, "out", "o", "", "Output file (default stdout)")
	cmd.Flags().BoolVar(&dotOnly, "dot", false, "Write the DOT text even when Graphviz is available")
	return cmd
}

// parseTarget turns "<role> <id>" arguments into an entity query
func parseTarget(args []string) (queries.GetEntityQuery, error) {
	role, err := valueobjects.ParseRole(args[0])
	if err != nil {
		return queries.GetEntityQuery{}, err
	}
	id, err := strconv.ParseInt(args[1], 10, 64)
	if err != nil {
		return queries.GetEntityQuery{}, fmt.Errorf("invalid %s id %q", role, args[1])
	}
	return queries.GetEntityQuery{Role: string(role), ID: id}, nil
}
