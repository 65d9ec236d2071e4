package commands

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/conduit-lang/manifold/internal/cli/ui"
	"github.com/conduit-lang/manifold/runtime/metadata"
)

func newRoutesCommand(a *app) *cobra.Command {
	var (
		format string
		method string
	)

	cmd := &cobra.Command{
		Use:   "routes",
		Short: "List the routes components export",
		Long: `Mount the "routes" export of every installed component below
server.root_path and list the result.`,
		Example: `  manifold routes
  manifold routes --method GET
  manifold routes --format json`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			reg, err := a.populate(cmd.Context(), cmd)
			if err != nil {
				return err
			}
			r, err := a.mountRoutes(reg)
			if err != nil {
				return err
			}
			manifest, err := metadata.Build(reg, r.Routes())
			if err != nil {
				return err
			}

			routes := make([]metadata.RouteMetadata, 0, len(manifest.Routes))
			for _, route := range manifest.Routes {
				if method == "" || strings.EqualFold(route.Method, method) {
					routes = append(routes, route)
				}
			}

			out := cmd.OutOrStdout()
			switch format {
			case "json", "yaml":
				return metadata.EncodeValue(out, routes, format)
			case "table":
			default:
				return fmt.Errorf("unsupported format %q (supported: table, json, yaml)", format)
			}

			if len(routes) == 0 {
				fmt.Fprintln(out, "No routes found")
				return nil
			}
			table := ui.NewTable(out, a.noColor, "METHOD", "PATH", "NAME", "COMPONENT")
			for _, route := range routes {
				table.AddRow(route.Method, route.Path, route.Name, route.Component)
			}
			table.Render()
			return nil
		},
	}

	cmd.Flags().StringVarP(&format, "format", "f", "table", "Output format: table, json or yaml")
	cmd.Flags().StringVarP(&method, "method", "m", "", "Only show routes for this HTTP method")
	return cmd
}
