package main

import (
	"context"
	"fmt"

	"mlmdview/domain/core/entities"
	"mlmdview/domain/core/valueobjects"
	"mlmdview/infrastructure/di"
	"mlmdview/infrastructure/persistence/dynamodb"
	"mlmdview/infrastructure/persistence/memory"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

func newSeedDynamoDBCmd(flags *globalFlags) *cobra.Command {
	var fixture string

	cmd := &cobra.Command{
		Use:   "seed-dynamodb",
		Short: "Copy a YAML fixture into the DynamoDB metadata table",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()

			src, err := memory.LoadFixtureFile(fixture)
			if err != nil {
				return err
			}

			flags.store = "dynamodb"
			cfg, err := flags.loadConfig()
			if err != nil {
				return err
			}
			logger, err := di.ProvideLogger(cfg)
			if err != nil {
				return err
			}
			defer logger.Sync()

			awsCfg, err := di.ProvideAWSConfig(ctx, cfg)
			if err != nil {
				return fmt.Errorf("load aws config: %w", err)
			}
			dst := dynamodb.NewMetadataStore(di.ProvideDynamoDBClient(awsCfg), cfg.DynamoDBTable, "", logger)

			counts, err := seed(ctx, src.Snapshot(), dst)
			if err != nil {
				return err
			}
			logger.Info("Fixture copied",
				zap.String("table", cfg.DynamoDBTable),
				zap.Int("types", counts[0]),
				zap.Int("entities", counts[1]),
				zap.Int("events", counts[2]),
			)
			fmt.Fprintf(cmd.OutOrStdout(), "seeded %d types, %d entities, %d events into %s\n",
				counts[0], counts[1], counts[2], cfg.DynamoDBTable)
			return nil
		},
	}

	cmd.Flags().StringVar(&fixture, "from", "", "YAML fixture to copy (required)")
	_ = cmd.MarkFlagRequired("from")
	return cmd
}

// seedTarget is the write side of the DynamoDB store
type seedTarget interface {
	PutType(ctx context.Context, typ entities.EntityType) error
	PutEntity(ctx context.Context, role valueobjects.Role, record entities.EntityRecord) error
	PutEvent(ctx context.Context, event entities.Event) error
	PutContextMembers(ctx context.Context, contextID int64, members entities.ContextMembers) error
}

func seed(ctx context.Context, snap memory.Snapshot, dst seedTarget) ([3]int, error) {
	var counts [3]int
	for _, t := range snap.Types {
		if err := dst.PutType(ctx, t); err != nil {
			return counts, fmt.Errorf("type %d: %w", t.ID, err)
		}
		counts[0]++
	}
	for _, a := range snap.Artifacts {
		if err := dst.PutEntity(ctx, valueobjects.RoleArtifact, a); err != nil {
			return counts, fmt.Errorf("artifact %d: %w", a.ID, err)
		}
		counts[1]++
	}
	for _, e := range snap.Executions {
		if err := dst.PutEntity(ctx, valueobjects.RoleExecution, e); err != nil {
			return counts, fmt.Errorf("execution %d: %w", e.ID, err)
		}
		counts[1]++
	}
	for _, c := range snap.Contexts {
		if err := dst.PutEntity(ctx, valueobjects.RoleContext, c); err != nil {
			return counts, fmt.Errorf("context %d: %w", c.ID, err)
		}
		if err := dst.PutContextMembers(ctx, c.ID, snap.Members[c.ID]); err != nil {
			return counts, fmt.Errorf("members of context %d: %w", c.ID, err)
		}
		counts[1]++
	}
	for _, ev := range snap.Events {
		if err := dst.PutEvent(ctx, ev); err != nil {
			return counts, fmt.Errorf("event A%d/E%d: %w", ev.ArtifactID, ev.ExecutionID, err)
		}
		counts[2]++
	}
	return counts, nil
}
