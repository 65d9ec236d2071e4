package commands

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/conduit-lang/manifold/internal/cli/ui"
	"github.com/conduit-lang/manifold/pkg/apps"
	"github.com/conduit-lang/manifold/runtime/metadata"
)

func newInspectCommand(a *app) *cobra.Command {
	var format string

	cmd := &cobra.Command{
		Use:   "inspect [label | label.Entity]",
		Short: "Show components and entities",
		Long: `Show the populated registry.

Without arguments, inspect lists every component and entity. A component
label narrows the output to that component; a "label.Entity" reference
shows the entity's fields.`,
		Example: `  manifold inspect
  manifold inspect billing
  manifold inspect invoices.Invoice
  manifold inspect --format yaml`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if format != "table" && format != "json" && format != "yaml" {
				return fmt.Errorf("unsupported format %q (supported: table, json, yaml)", format)
			}

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

			out := cmd.OutOrStdout()
			if len(args) == 0 {
				if format != "table" {
					return metadata.Encode(out, manifest, format)
				}
				renderManifest(out, manifest, a.noColor)
				return nil
			}

			ref := args[0]
			if !strings.Contains(ref, ".") {
				component, err := findComponent(reg, manifest, ref)
				if err != nil {
					return err
				}
				if format != "table" {
					return metadata.EncodeValue(out, component, format)
				}
				renderComponent(out, component, manifest, a.noColor)
				return nil
			}

			entity, err := findEntity(reg, manifest, ref)
			if err != nil {
				return err
			}
			if format != "table" {
				return metadata.EncodeValue(out, entity, format)
			}
			renderEntity(out, entity, a.noColor)
			return nil
		},
	}

	cmd.Flags().StringVarP(&format, "format", "f", "table", "Output format: table, json or yaml")
	return cmd
}

func findComponent(reg *apps.Registry, m *metadata.Manifest, label string) (*metadata.ComponentMetadata, error) {
	if _, err := reg.Descriptor(label); err != nil {
		labels := make([]string, 0, len(m.Components))
		for _, c := range m.Components {
			labels = append(labels, c.Label)
		}
		return nil, lookupError{err, ui.Suggest(label, labels)}
	}
	for i := range m.Components {
		if m.Components[i].Label == label {
			return &m.Components[i], nil
		}
	}
	return nil, fmt.Errorf("component %s is not in the manifest", label)
}

func findEntity(reg *apps.Registry, m *metadata.Manifest, ref string) (*metadata.EntityMetadata, error) {
	model, err := reg.Model(ref)
	if err != nil {
		keys := make([]string, 0, len(m.Entities))
		for _, e := range m.Entities {
			keys = append(keys, e.Key)
		}
		return nil, lookupError{err, ui.Suggest(strings.ToLower(ref), keys)}
	}
	for i := range m.Entities {
		if m.Entities[i].Key == model.Key() {
			return &m.Entities[i], nil
		}
	}
	return nil, fmt.Errorf("entity %s is not in the manifest", model.Key())
}

// lookupError carries "did you mean" suggestions to the error printer
type lookupError struct {
	err         error
	suggestions []string
}

func (e lookupError) Error() string { return e.err.Error() }
func (e lookupError) Unwrap() error { return e.err }

func renderManifest(w io.Writer, m *metadata.Manifest, noColor bool) {
	ui.Header(w, "Components", noColor)
	components := ui.NewTable(w, noColor, "LABEL", "NAME", "PATH", "ENTITIES")
	for _, c := range m.Components {
		components.AddRow(c.Label, c.Name, c.Path, strconv.Itoa(len(c.Entities)))
	}
	components.Render()
	fmt.Fprintln(w)

	ui.Header(w, "Entities", noColor)
	entities := ui.NewTable(w, noColor, "ENTITY", "TYPE", "TABLE", "FIELDS", "DEPENDS ON")
	deps := make(map[string][]string)
	for _, e := range m.Dependencies.Edges {
		if e.From != e.To && e.Relationship != "many_to_many" {
			deps[e.From] = append(deps[e.From], e.To)
		}
	}
	for _, e := range m.Entities {
		entities.AddRow(e.Key, e.Type, e.Table, strconv.Itoa(len(e.Fields)), strings.Join(deps[e.Key], ", "))
	}
	entities.Render()
}

func renderComponent(w io.Writer, c *metadata.ComponentMetadata, m *metadata.Manifest, noColor bool) {
	ui.Header(w, c.Label, noColor)
	fmt.Fprintf(w, "  name:    %s\n", c.Name)
	fmt.Fprintf(w, "  path:    %s\n", c.Path)
	fmt.Fprintf(w, "  config:  %s\n", c.Config)
	fmt.Fprintf(w, "  exports: %s\n", strings.Join(c.Exports, ", "))
	fmt.Fprintln(w)

	entities := ui.NewTable(w, noColor, "ENTITY", "TABLE", "FIELDS")
	for _, e := range m.Entities {
		if e.Component == c.Label {
			entities.AddRow(e.Key, e.Table, strconv.Itoa(len(e.Fields)))
		}
	}
	entities.Render()
}

func renderEntity(w io.Writer, e *metadata.EntityMetadata, noColor bool) {
	ui.Header(w, e.Key, noColor)
	fmt.Fprintf(w, "  type:  %s\n", e.Type)
	fmt.Fprintf(w, "  table: %s\n", e.Table)
	fmt.Fprintln(w)

	fields := ui.NewTable(w, noColor, "FIELD", "KIND", "TYPE", "COLUMN", "NULL", "TARGET", "TAGS")
	for _, f := range e.Fields {
		target := f.Target
		if f.Unresolved {
			target += " (unresolved)"
		}
		null := ""
		if f.Nullable {
			null = "yes"
		}
		fields.AddRow(f.Name, f.Kind, f.Type, f.Column, null, target, strings.Join(f.Tags, ","))
	}
	fields.Render()
}
