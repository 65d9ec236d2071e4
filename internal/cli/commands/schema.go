package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/conduit-lang/manifold/internal/cli/ui"
	"github.com/conduit-lang/manifold/internal/orm/codegen"
	"github.com/conduit-lang/manifold/internal/orm/connect"
	"github.com/conduit-lang/manifold/pkg/apps"
)

func newSchemaCommand(a *app) *cobra.Command {
	var (
		dialect string
		apply   bool
		drop    bool
	)

	cmd := &cobra.Command{
		Use:   "schema",
		Short: "Print or apply the DDL of every entity",
		Long: `Generate CREATE TABLE statements for every registered entity, in
dependency order: referenced tables first, join tables last.

The dialect defaults to the engine of the "default" database. With --apply
the statements run on that database in a single transaction. --drop emits
DROP TABLE statements instead, dependent tables first.`,
		Example: `  manifold schema
  manifold schema --dialect postgres
  manifold schema --apply
  manifold schema --drop --apply`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			reg, err := a.populate(cmd.Context(), cmd)
			if err != nil {
				return err
			}
			conns, err := a.cfg.Connections()
			if err != nil {
				return err
			}

			if apply {
				return applySchema(cmd, a, conns, reg, drop)
			}

			if dialect == "" {
				def, ok := conns[connect.DefaultConnection]
				if !ok {
					return fmt.Errorf("no %q database configured; pass --dialect", connect.DefaultConnection)
				}
				dialect = def.Engine
			}
			d, err := codegen.ParseDialect(dialect)
			if err != nil {
				return err
			}

			models, err := reg.Schema().DependencyOrder()
			if err != nil {
				return err
			}
			gen := codegen.NewDDLGenerator(d)
			var statements []string
			if drop {
				statements = gen.GenerateDropSchema(models)
			} else if statements, err = gen.GenerateSchema(models); err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			for i, stmt := range statements {
				if i > 0 {
					fmt.Fprintln(out)
				}
				fmt.Fprintln(out, stmt)
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&dialect, "dialect", "", "SQL dialect: postgres or sqlite")
	cmd.Flags().BoolVar(&apply, "apply", false, "Run the statements on the default database")
	cmd.Flags().BoolVar(&drop, "drop", false, "Drop the tables instead of creating them")
	return cmd
}

func applySchema(cmd *cobra.Command, a *app, conns map[string]*connect.Connection, reg *apps.Registry, drop bool) error {
	ctx := cmd.Context()
	connector := connect.NewConnector(conns, connect.WithLogger(a.logger))
	if err := connector.Open(ctx); err != nil {
		return err
	}
	defer connector.Close()

	if drop {
		if err := connector.DropSchemas(ctx, reg); err != nil {
			return err
		}
		ui.WriteSuccess(cmd.OutOrStdout(), "tables dropped", a.noColor)
		return nil
	}

	if err := connector.GenerateSchemas(ctx, reg); err != nil {
		return err
	}
	ui.WriteSuccess(cmd.OutOrStdout(), "tables created", a.noColor)
	return nil
}
