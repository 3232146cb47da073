package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/matzehuels/pacstage/pkg/api"
	"github.com/matzehuels/pacstage/pkg/config"
	pserrors "github.com/matzehuels/pacstage/pkg/errors"
	"github.com/matzehuels/pacstage/pkg/progress"
)

// downloadCommand creates the download command.
func (c *CLI) downloadCommand() *cobra.Command {
	var (
		mirrors []string
		branch  string
	)

	cmd := &cobra.Command{
		Use:   "download <package>...",
		Short: "Download package files into the pacman cache",
		Long: `Locate each package on the configured mirrors, trying them in order, and
download it with its signature into the pacman cache directory. Files
already in the cache are skipped. pacman then installs from the cache
without fetching again.

Mirrors and branch default to what pacman-mirrors reports. If neither is
available nothing is downloaded and pacman fetches packages itself.`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := pserrors.ValidatePackageNames(args); err != nil {
				return err
			}
			if !c.cfg.Download.Enabled {
				printWarning("Downloads are disabled in %s", c.configFile())
				return nil
			}
			if len(mirrors) > 0 {
				c.cfg.Download.Mirrors = mirrors
			}
			if branch != "" {
				c.cfg.Download.Branch = branch
			}
			if err := c.cfg.Validate(); err != nil {
				return err
			}

			ctx := cmd.Context()
			if t := c.cfg.Download.Timeout; t > 0 {
				var cancel context.CancelFunc
				ctx, cancel = context.WithTimeout(ctx, t)
				defer cancel()
			}

			s, err := c.newServices(ctx, nil)
			if err != nil {
				return err
			}
			defer s.Close()

			spinner := newSpinner(ctx, "Preparing download...")
			spinner.Start()
			timer := newStopwatch(loggerFromContext(ctx))
			n, err := c.newCoordinator(s, newTermWatcher(spinner, true)).DownloadPackages(ctx, args)
			spinner.Stop()
			if err != nil {
				return err
			}
			timer.done(fmt.Sprintf("Downloaded %d of %d packages", n, len(args)))
			printSuccess("%d of %d packages in cache", n, len(args))
			return nil
		},
	}

	cmd.Flags().StringArrayVar(&mirrors, "mirror", nil, "mirror base URL, repeatable, tried in order")
	cmd.Flags().StringVar(&branch, "branch", "", "repository branch, e.g. stable")
	return cmd
}

// serveCommand creates the serve command.
func (c *CLI) serveCommand() *cobra.Command {
	var addr string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the HTTP API",
		Long: `Serve dependency resolution, ordering and downloads over HTTP.

Routes:
  GET  /healthz
  GET  /v1/version
  POST /v1/missing    {"names": [...]}
  POST /v1/known      {"packages": ["repo/name", ...], "expand": bool}
  POST /v1/order      {"packages": [{"name": ..., "repository": ...}]}
  POST /v1/download   {"names": [...]}`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if addr == "" {
				addr = c.cfg.Server.Addr
			}
			ctx := cmd.Context()
			s, err := c.newServices(ctx, nil)
			if err != nil {
				return err
			}
			defer s.Close()

			svc := api.Services{
				Resolver: s.resolver,
				Sorter:   s.sorter,
				Logger:   c.Logger,
			}
			if c.cfg.Download.Enabled {
				svc.Downloader = c.newCoordinator(s, progress.NewLogWatcher(c.Logger, true))
			}

			c.Logger.Info("serving API", "addr", addr, "aur", c.cfg.AUR, "downloads", c.cfg.Download.Enabled)
			return api.Serve(ctx, addr, svc)
		},
	}

	cmd.Flags().StringVar(&addr, "addr", "", "listen address (default from config)")
	return cmd
}

func (c *CLI) configFile() string {
	if c.configPath != "" {
		return c.configPath
	}
	return config.Path()
}
