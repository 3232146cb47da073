package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/matzehuels/pacstage/pkg/arch"
	"github.com/matzehuels/pacstage/pkg/deps"
	pserrors "github.com/matzehuels/pacstage/pkg/errors"
	"github.com/matzehuels/pacstage/pkg/progress"
	"github.com/matzehuels/pacstage/pkg/render"
)

// Output formats for missing, known and order.
const (
	formatText = "text"
	formatJSON = "json"
	formatDOT  = "dot"
	formatSVG  = "svg"
)

// missingCommand creates the missing command.
func (c *CLI) missingCommand() *cobra.Command {
	var (
		jsonOut bool
		confirm bool
	)

	cmd := &cobra.Command{
		Use:   "missing <package>...",
		Short: "List the dependencies that still need to be installed",
		Long: `List every dependency of the given packages that is not installed,
transitively, with the repository or AUR that provides it. Dependencies are
printed before the packages that need them.

Arguments may carry version constraints, e.g. "python>=3.12".`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			names := make([]string, len(args))
			for i, a := range args {
				names[i] = arch.DepName(a)
			}
			if err := pserrors.ValidatePackageNames(names); err != nil {
				return err
			}

			ctx := cmd.Context()
			spinner := newSpinner(ctx, "Resolving dependencies...")
			var chooser progress.Chooser
			if confirm {
				chooser = newTermWatcher(spinner, false)
			}
			s, err := c.newServices(ctx, chooser)
			if err != nil {
				return err
			}
			defer s.Close()

			spinner.Start()
			timer := newStopwatch(loggerFromContext(ctx))
			res, err := s.resolver.ResolveMissing(ctx, args, deps.NewInAnalysis())
			spinner.Stop()
			if err != nil {
				return err
			}
			timer.done(fmt.Sprintf("Resolved %d missing packages", len(res.Missing)))

			if confirm {
				if err := deps.ConfirmMissing(newTermWatcher(nil, false), "", res.Missing); err != nil {
					return err
				}
			}

			out := cmd.OutOrStdout()
			if jsonOut {
				return writeJSON(out, res)
			}
			if !res.Checked || len(res.Missing) == 0 {
				printSuccess("Nothing missing")
				return nil
			}
			for _, ref := range res.Missing {
				fmt.Fprintln(out, formatRef(ref))
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&jsonOut, "json", false, "print the result as JSON")
	cmd.Flags().BoolVar(&confirm, "confirm", false, "ask which provider to use and before accepting the missing packages")
	return cmd
}

// knownCommand creates the known command.
func (c *CLI) knownCommand() *cobra.Command {
	var (
		expand  bool
		jsonOut bool
	)

	cmd := &cobra.Command{
		Use:   "known <repo/package>...",
		Short: "Order a batch whose repositories are already known",
		Long: `Order packages given as repo/name so that repository packages come
before AUR packages. With --expand, their missing dependencies are resolved
and listed first.`,
		Example: `  pacstage known extra/go aur/yay --expand`,
		Args:    cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			refs, err := parseRefs(args)
			if err != nil {
				return err
			}

			ctx := cmd.Context()
			s, err := c.newServices(ctx, nil)
			if err != nil {
				return err
			}
			defer s.Close()

			out, err := s.resolver.ResolveKnown(ctx, refs, expand)
			if err != nil {
				return err
			}
			if jsonOut {
				return writeJSON(cmd.OutOrStdout(), out)
			}
			for _, ref := range out {
				fmt.Fprintln(cmd.OutOrStdout(), formatRef(ref))
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&expand, "expand", false, "resolve missing dependencies first")
	cmd.Flags().BoolVar(&jsonOut, "json", false, "print the result as JSON")
	return cmd
}

// orderCommand creates the order command.
func (c *CLI) orderCommand() *cobra.Command {
	var (
		format   string
		output   string
		detailed bool
	)

	cmd := &cobra.Command{
		Use:   "order <repo/package[=version]>...",
		Short: "Rank an upgrade batch so dependencies are applied first",
		Long: `Rank the given packages by their dependencies within the batch: rank 0
packages depend on nothing else in the batch and are applied first.

Packages whose dependency data cannot be read keep rank 0 and are flagged.`,
		Example: `  pacstage order core/glibc extra/python aur/yay
  pacstage order core/glibc extra/python -f svg -o order.svg`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			switch format {
			case formatText, formatJSON, formatDOT, formatSVG:
			default:
				return pserrors.New(pserrors.ErrCodeInvalidFormat, "unsupported format %q", format)
			}
			pkgs, err := parsePackages(args)
			if err != nil {
				return err
			}

			ctx := cmd.Context()
			s, err := c.newServices(ctx, nil)
			if err != nil {
				return err
			}
			defer s.Close()

			timer := newStopwatch(loggerFromContext(ctx))
			order, err := s.sorter.Sort(ctx, pkgs)
			if err != nil {
				return err
			}
			timer.done(fmt.Sprintf("Ordered %d packages", len(order.Ranked)))

			var data []byte
			switch format {
			case formatText:
				return writeOrder(cmd.OutOrStdout(), order)
			case formatJSON:
				if output == "" {
					return writeJSON(cmd.OutOrStdout(), order)
				}
				if data, err = json.MarshalIndent(order, "", "  "); err != nil {
					return err
				}
			case formatDOT:
				data = []byte(render.ToDOT(order.DAG(), render.Options{Detailed: detailed}))
			case formatSVG:
				if data, err = render.RenderSVG(ctx, render.ToDOT(order.DAG(), render.Options{Detailed: detailed})); err != nil {
					return err
				}
			}

			if output == "" {
				_, err := cmd.OutOrStdout().Write(data)
				return err
			}
			if err := os.WriteFile(output, data, 0o644); err != nil {
				return fmt.Errorf("write %s: %w", output, err)
			}
			printSuccess("Wrote upgrade order")
			printFile(output)
			return nil
		},
	}

	cmd.Flags().StringVarP(&format, "format", "f", formatText, "output format: text, json, dot, svg")
	cmd.Flags().StringVarP(&output, "output", "o", "", "write to file instead of stdout")
	cmd.Flags().BoolVar(&detailed, "detailed", false, "include rank and metadata in diagram labels")
	return cmd
}

// parseRefs parses repo/name arguments.
func parseRefs(args []string) ([]arch.Ref, error) {
	refs := make([]arch.Ref, 0, len(args))
	for _, a := range args {
		ref, err := arch.ParseRef(a)
		if err != nil {
			return nil, pserrors.Wrap(pserrors.ErrCodeInvalidPackage, err, "%v", err)
		}
		if err := pserrors.ValidatePackageName(ref.Name); err != nil {
			return nil, err
		}
		refs = append(refs, ref)
	}
	return refs, nil
}

// parsePackages parses repo/name[=version] arguments.
func parsePackages(args []string) ([]arch.Package, error) {
	pkgs := make([]arch.Package, 0, len(args))
	for _, a := range args {
		spec, version, _ := strings.Cut(a, "=")
		refs, err := parseRefs([]string{spec})
		if err != nil {
			return nil, err
		}
		pkgs = append(pkgs, arch.Package{Name: refs[0].Name, Version: version, Repo: refs[0].Repo})
	}
	return pkgs, nil
}

func writeOrder(w io.Writer, order *deps.Order) error {
	for _, r := range order.Ranked {
		if _, err := fmt.Fprintln(w, formatRanked(r.Rank, r.Ref(), r.Version, r.Degraded)); err != nil {
			return err
		}
	}
	return nil
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
