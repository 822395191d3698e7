// Package admincli implements the graph-admin command line tool.
package admincli

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"

	"cypher-catalog/internal/common/config"
	"cypher-catalog/internal/common/database"
	"cypher-catalog/internal/common/logger"
	"cypher-catalog/internal/executor"
	"cypher-catalog/internal/maintenance"

	"github.com/spf13/cobra"
)

// Maintainer is the administrative surface of the graph. *maintenance.Service satisfies it.
type Maintainer interface {
	Verify(ctx context.Context) (maintenance.Counts, error)
	Clear(ctx context.Context) error
	EnsureIndex(ctx context.Context, label, property string) error
	LinkLineage(ctx context.Context, source, target, lineageType string) error
	LinkForeignKeys(ctx context.Context, mappings []maintenance.ForeignKey) ([]maintenance.LinkResult, error)
}

// Connector opens a Maintainer and returns a func releasing it.
type Connector func(ctx context.Context) (Maintainer, func(), error)

// Execute runs the CLI against the configured Neo4j instance.
func Execute() int {
	root := NewRootCmd(connectNeo4j, os.Stdout)
	if err := root.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return 1
	}
	return 0
}

func connectNeo4j(ctx context.Context) (Maintainer, func(), error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, nil, fmt.Errorf("load config: %w", err)
	}
	log := logger.NewStructured(cfg.Logging.Level, "console")

	neo, err := database.NewNeo4j(ctx, cfg.Neo4j)
	if err != nil {
		return nil, nil, err
	}
	svc := maintenance.NewService(executor.New(neo, log, nil), log)
	return svc, func() { _ = neo.Close(context.Background()) }, nil
}

// NewRootCmd builds the command tree. Subcommands print to out.
func NewRootCmd(connect Connector, out io.Writer) *cobra.Command {
	var output string

	root := &cobra.Command{
		Use:           "graph-admin",
		Short:         "Maintain the catalog graph",
		Long:          "Administrative operations on the Neo4j catalog graph: verification, indexes, lineage and key links.",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVarP(&output, "output", "o", "table", "Output format: table or json")

	run := func(cmd *cobra.Command, fn func(ctx context.Context, m Maintainer) (interface{}, error)) error {
		ctx := cmd.Context()
		if ctx == nil {
			ctx = context.Background()
		}
		m, release, err := connect(ctx)
		if err != nil {
			return err
		}
		defer release()

		result, err := fn(ctx, m)
		if result != nil {
			if perr := render(out, output, result); perr != nil {
				return perr
			}
		}
		return err
	}

	root.AddCommand(
		newVerifyCmd(run),
		newClearCmd(run),
		newIndexCmd(run),
		newLinkLineageCmd(run),
		newLinkKeysCmd(run),
	)
	return root
}

type runner func(cmd *cobra.Command, fn func(ctx context.Context, m Maintainer) (interface{}, error)) error

// printable renders itself for table output.
type printable interface {
	Lines() []string
}

func render(out io.Writer, format string, v interface{}) error {
	if format == "json" {
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		return enc.Encode(v)
	}
	if p, ok := v.(printable); ok {
		for _, line := range p.Lines() {
			if _, err := fmt.Fprintln(out, line); err != nil {
				return err
			}
		}
		return nil
	}
	_, err := fmt.Fprintln(out, v)
	return err
}
