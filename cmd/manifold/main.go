package main

import (
	"os"

	"github.com/conduit-lang/manifold/internal/cli/commands"
	"github.com/conduit-lang/manifold/pkg/apps"

	// Installs the shop components into apps.Default
	_ "github.com/conduit-lang/manifold/examples/shop"
)

func main() {
	if err := commands.Execute(apps.Default); err != nil {
		os.Exit(1)
	}
}
