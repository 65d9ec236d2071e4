package commands

import (
	"errors"
	"fmt"
	"runtime"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/conduit-lang/manifold/internal/cli/ui"
	"github.com/conduit-lang/manifold/pkg/apps"
)

var (
	// Version information - set at build time
	Version   = "dev"
	GitCommit = "unknown"
	BuildDate = "unknown"
	GoVersion = "unknown"
)

// NewRootCommand creates the root command. importer supplies the component
// namespaces; the binary passes apps.Default after importing its components.
func NewRootCommand(importer apps.Importer) *cobra.Command {
	a := &app{importer: importer}

	rootCmd := &cobra.Command{
		Use:   "manifold",
		Short: "Component registry and entity metadata tooling",
		Long: color.CyanString(`manifold - component registry and entity metadata

manifold assembles a project from installed components. Each component
declares its entities, routes and ready hooks; manifold resolves them,
builds entity metadata with cross-component references and exposes the
result to tooling.`),
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			if a.noColor {
				color.NoColor = true
			}
		},
	}

	rootCmd.PersistentFlags().StringVarP(&a.configFile, "config", "c", "", "Config file (default ./manifold.yaml)")
	rootCmd.PersistentFlags().BoolVar(&a.noColor, "no-color", false, "Disable colored output")

	rootCmd.AddCommand(NewVersionCommand())
	rootCmd.AddCommand(newCheckCommand(a))
	rootCmd.AddCommand(newInspectCommand(a))
	rootCmd.AddCommand(newSchemaCommand(a))
	rootCmd.AddCommand(newRoutesCommand(a))
	rootCmd.AddCommand(newRunCommand(a))
	rootCmd.AddCommand(NewCompletionCommand())

	return rootCmd
}

// NewVersionCommand creates the version command
func NewVersionCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Show version information",
		Long:  "Display the manifold version, framework version, Git commit, build date, and Go version",
		Run: func(cmd *cobra.Command, args []string) {
			// Set GoVersion to actual runtime if not set at build time
			goVer := GoVersion
			if goVer == "unknown" {
				goVer = runtime.Version()
			}

			out := cmd.OutOrStdout()
			titleColor := color.New(color.FgCyan, color.Bold)

			for _, row := range [][2]string{
				{"manifold version: ", Version},
				{"Framework version: ", apps.Version},
				{"Git commit: ", GitCommit},
				{"Build date: ", BuildDate},
				{"Go version: ", goVer},
			} {
				titleColor.Fprint(out, row[0])
				fmt.Fprintln(out, row[1])
			}
		},
	}
}

// Execute runs the root command
func Execute(importer apps.Importer) error {
	rootCmd := NewRootCommand(importer)
	if err := rootCmd.Execute(); err != nil {
		var suggestions []string
		var le lookupError
		if errors.As(err, &le) {
			suggestions = le.suggestions
		}
		ui.WriteError(rootCmd.ErrOrStderr(), err, suggestions, color.NoColor)
		return err
	}
	return nil
}
