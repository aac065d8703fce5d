package main

import (
	"encoding/json"
	"fmt"
	"strconv"

	"mlmdview/application/queries"
	querybus "mlmdview/application/queries/bus"
	"mlmdview/domain/core/valueobjects"

	"github.com/spf13/cobra"
)

func newShowCmd(flags *globalFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "show <artifact|execution|context> <id>",
		Short: "Print an artifact, execution or context as JSON",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			role, id, err := parseKindID(args)
			if err != nil {
				return err
			}
			var query querybus.Query = queries.GetEntityQuery{Role: string(role), ID: id}
			if role == valueobjects.RoleContext {
				query = queries.GetContextQuery{ID: id}
			}

			container, cleanup, err := flags.container(cmd.Context())
			if err != nil {
				return err
			}
			defer cleanup()

			result, err := container.QueryBus.Ask(cmd.Context(), query)
			if err != nil {
				return err
			}
			return printJSON(cmd, result)
		},
	}
}

func newTypeCmd(flags *globalFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "type <artifact|execution|context> <id>",
		Short: "Print an artifact, execution or context type as JSON",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			role, id, err := parseKindID(args)
			if err != nil {
				return err
			}

			container, cleanup, err := flags.container(cmd.Context())
			if err != nil {
				return err
			}
			defer cleanup()

			result, err := container.QueryBus.Ask(cmd.Context(), queries.GetTypeQuery{Kind: string(role), ID: id})
			if err != nil {
				return err
			}
			return printJSON(cmd, result)
		},
	}
}

// parseKindID turns "<kind> <id>" arguments into a role and id; contexts are accepted
func parseKindID(args []string) (valueobjects.Role, int64, error) {
	role, err := valueobjects.ParseKind(args[0])
	if err != nil {
		return "", 0, err
	}
	id, err := strconv.ParseInt(args[1], 10, 64)
	if err != nil {
		return "", 0, fmt.Errorf("invalid %s id %q", role, args[1])
	}
	return role, id, nil
}

func newEventsCmd(flags *globalFlags) *cobra.Command {
	var (
		artifact, execution int64
		limit, offset       int
		asc                 bool
	)

	cmd := &cobra.Command{
		Use:   "events",
		Short: "List events as JSON, newest first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			container, cleanup, err := flags.container(cmd.Context())
			if err != nil {
				return err
			}
			defer cleanup()

			query := queries.ListEventsQuery{Limit: limit, Offset: offset, Asc: asc}
			if cmd.Flags().Changed("artifact") {
				query.ArtifactID = &artifact
			}
			if cmd.Flags().Changed("execution") {
				query.ExecutionID = &execution
			}

			result, err := container.QueryBus.Ask(cmd.Context(), query)
			if err != nil {
				return err
			}
			return printJSON(cmd, result)
		},
	}

	f := cmd.Flags()
	f.Int64Var(&artifact, "artifact", 0, "Only events of this artifact")
	f.Int64Var(&execution, "execution", 0, "Only events of this execution")
	f.IntVar(&limit, "limit", 0, "Page size (default 100)")
	f.IntVar(&offset, "offset", 0, "Events to skip")
	f.BoolVar(&asc, "asc", false, "Oldest first")
	return cmd
}

func printJSON(cmd *cobra.Command, v interface{}) error {
	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
