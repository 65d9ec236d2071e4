package commands

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/conduit-lang/manifold/internal/cli/config"
	"github.com/conduit-lang/manifold/internal/logging"
	"github.com/conduit-lang/manifold/pkg/apps"
	"github.com/conduit-lang/manifold/pkg/web/router"
)

// app carries what every command needs: flags, config, logger
type app struct {
	importer   apps.Importer
	configFile string
	noColor    bool

	cfg    *config.Config
	logger *zap.Logger
}

// setup loads the config and builds the logger, once
func (a *app) setup(cmd *cobra.Command) error {
	if a.cfg != nil {
		return nil
	}

	cfg, err := config.LoadFile(a.configFile)
	if err != nil {
		return err
	}

	level := cfg.Log.Level
	if cfg.Debug {
		level = "debug"
	}
	logger, err := logging.New(logging.Options{
		Level:  level,
		Format: cfg.Log.Format,
		Color:  !a.noColor,
		Output: cmd.ErrOrStderr(),
	})
	if err != nil {
		return err
	}

	a.cfg = cfg
	a.logger = logger.With(zap.String("project", cfg.ProjectName))
	return nil
}

// populate builds the registry from installed_components
func (a *app) populate(ctx context.Context, cmd *cobra.Command) (*apps.Registry, error) {
	if err := a.setup(cmd); err != nil {
		return nil, err
	}
	if a.importer == nil {
		return nil, fmt.Errorf("no component importer configured")
	}

	reg := apps.New(a.importer,
		apps.WithLogger(a.logger),
		apps.WithRelationCheck(a.cfg.Registry.StrictRelations))

	if err := reg.Populate(ctx, apps.Modules(a.cfg.InstalledComponents...)); err != nil {
		return nil, err
	}
	return reg, nil
}

// mountRoutes mounts every component's "routes" export below server.root_path
func (a *app) mountRoutes(reg *apps.Registry) (*router.Router, error) {
	r := router.New(router.WithLogger(a.logger), router.WithRootPath(a.cfg.Server.RootPath))
	if err := r.IncludeAll(reg, router.DefaultExport); err != nil {
		return nil, err
	}
	return r, nil
}
