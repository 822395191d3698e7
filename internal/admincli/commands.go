package admincli

import (
	"context"
	"errors"
	"fmt"

	"cypher-catalog/internal/maintenance"

	"github.com/spf13/cobra"
)

type countsView maintenance.Counts

func (c countsView) Lines() []string {
	return []string{
		fmt.Sprintf("nodes:          %d", c.Nodes),
		fmt.Sprintf("relationships:  %d", c.Relationships),
	}
}

type messageView struct {
	Message string `json:"message"`
}

func (m messageView) Lines() []string { return []string{m.Message} }

type linkView struct {
	Mapping string `json:"mapping"`
	Linked  int64  `json:"linked"`
	Error   string `json:"error,omitempty"`
}

type linksView []linkView

func (l linksView) Lines() []string {
	lines := make([]string, 0, len(l))
	for _, row := range l {
		if row.Error != "" {
			lines = append(lines, fmt.Sprintf("FAIL  %s: %s", row.Mapping, row.Error))
			continue
		}
		lines = append(lines, fmt.Sprintf("OK    %s: %d linked", row.Mapping, row.Linked))
	}
	return lines
}

func newVerifyCmd(run runner) *cobra.Command {
	return &cobra.Command{
		Use:   "verify",
		Short: "Count nodes and relationships",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return run(cmd, func(ctx context.Context, m Maintainer) (interface{}, error) {
				counts, err := m.Verify(ctx)
				if err != nil {
					return nil, err
				}
				return countsView(counts), nil
			})
		},
	}
}

func newClearCmd(run runner) *cobra.Command {
	var yes bool
	cmd := &cobra.Command{
		Use:   "clear",
		Short: "Delete every node and relationship",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if !yes {
				return errors.New("refusing to clear the graph without --yes")
			}
			return run(cmd, func(ctx context.Context, m Maintainer) (interface{}, error) {
				if err := m.Clear(ctx); err != nil {
					return nil, err
				}
				return messageView{Message: "graph cleared"}, nil
			})
		},
	}
	cmd.Flags().BoolVar(&yes, "yes", false, "Confirm deletion of all graph data")
	return cmd
}

func newIndexCmd(run runner) *cobra.Command {
	var label, dataset, property string
	cmd := &cobra.Command{
		Use:   "index",
		Short: "Create a property index if it does not exist",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if (label == "") == (dataset == "") {
				return errors.New("exactly one of --label or --dataset is required")
			}
			if dataset != "" {
				derived, err := maintenance.LabelFromFileName(dataset)
				if err != nil {
					return err
				}
				label = derived
			}
			return run(cmd, func(ctx context.Context, m Maintainer) (interface{}, error) {
				if err := m.EnsureIndex(ctx, label, property); err != nil {
					return nil, err
				}
				return messageView{Message: fmt.Sprintf("index ensured on %s.%s", label, property)}, nil
			})
		},
	}
	cmd.Flags().StringVar(&label, "label", "", "Node label")
	cmd.Flags().StringVar(&dataset, "dataset", "", "Dataset file whose name gives the label, e.g. clients.json")
	cmd.Flags().StringVar(&property, "property", "", "Property to index")
	_ = cmd.MarkFlagRequired("property")
	return cmd
}

func newLinkLineageCmd(run runner) *cobra.Command {
	var from, to, lineageType string
	cmd := &cobra.Command{
		Use:   "link-lineage",
		Short: "Record that one table loads into another",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return run(cmd, func(ctx context.Context, m Maintainer) (interface{}, error) {
				if err := m.LinkLineage(ctx, from, to, lineageType); err != nil {
					return nil, err
				}
				return messageView{Message: fmt.Sprintf("%s -[LOADS_INTO]-> %s", from, to)}, nil
			})
		},
	}
	cmd.Flags().StringVar(&from, "from", "", "Source table")
	cmd.Flags().StringVar(&to, "to", "", "Target table")
	cmd.Flags().StringVar(&lineageType, "type", "ETL", "Lineage type stored on the edge")
	_ = cmd.MarkFlagRequired("from")
	_ = cmd.MarkFlagRequired("to")
	return cmd
}

func newLinkKeysCmd(run runner) *cobra.Command {
	return &cobra.Command{
		Use:   "link-keys",
		Short: "Relate dataset nodes along their foreign keys",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return run(cmd, func(ctx context.Context, m Maintainer) (interface{}, error) {
				results, err := m.LinkForeignKeys(ctx, maintenance.DefaultForeignKeys)
				if len(results) == 0 {
					return nil, err
				}
				view := make(linksView, 0, len(results))
				for _, res := range results {
					row := linkView{Mapping: res.Mapping.String(), Linked: res.Linked}
					if res.Err != nil {
						row.Error = res.Err.Error()
					}
					view = append(view, row)
				}
				return view, err
			})
		},
	}
}
