package cli

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/log"
	"github.com/mattn/go-isatty"
	"github.com/spf13/cobra"

	pserrors "github.com/matzehuels/pacstage/pkg/errors"
	"github.com/matzehuels/pacstage/pkg/progress"
)

// watchCommand creates the watch command.
func (c *CLI) watchCommand() *cobra.Command {
	var (
		plain  bool
		prefix string
	)

	cmd := &cobra.Command{
		Use:   "watch <package>...",
		Short: "Show transaction progress from pacman output on stdin",
		Long: `Read pacman transaction output on stdin and show how far the
transaction has come. The arguments are the packages of the transaction;
each is counted once when downloaded, upgraded or installed.

On a terminal a progress bar is drawn; otherwise, or with --plain, one
status line is printed per step.`,
		Example: `  sudo pacman -Syu --noconfirm 2>&1 | pacstage watch $(pacman -Qqu)`,
		Args:    cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := pserrors.ValidatePackageNames(args); err != nil {
				return err
			}
			opts := progress.Options{TerminalPrefix: prefix, Logger: c.Logger}
			if plain || !isTerminal(os.Stdout) {
				return watchPlain(cmd.Context(), cmd.InOrStdin(), cmd.OutOrStdout(), args, opts)
			}
			return watchTUI(cmd.Context(), cmd.InOrStdin(), args, opts)
		},
	}

	cmd.Flags().BoolVar(&plain, "plain", false, "print status lines instead of a progress bar")
	cmd.Flags().StringVar(&prefix, "terminal-prefix", progress.DefaultTerminalPrefix, "output line that ends the transaction")
	return cmd
}

func isTerminal(f *os.File) bool {
	return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
}

// lineWatcher prints every substatus on its own line.
type lineWatcher struct {
	progress.NopWatcher
	w io.Writer
}

func (l lineWatcher) ChangeSubstatus(text string) { fmt.Fprintln(l.w, text) }

func watchPlain(ctx context.Context, in io.Reader, out io.Writer, names []string, opts progress.Options) error {
	opts = opts.WithDefaults()
	rep := progress.NewReporter(names, lineWatcher{w: out}, opts)
	rep.Start(ctx)
	go feed(in, rep, opts.Logger)

	select {
	case <-rep.Done():
	case <-ctx.Done():
		return ctx.Err()
	}
	c := rep.Counters()
	if c.Performed() < c.Total {
		printWarning("Input ended at %.0f%%", c.Percent())
	}
	return nil
}

func watchTUI(ctx context.Context, in io.Reader, names []string, opts progress.Options) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	opts = opts.WithDefaults()
	w := &teaWatcher{}
	rep := progress.NewReporter(names, w, opts)
	// stdin carries pacman output, so keys are read from the terminal.
	p := tea.NewProgram(newWatchModel(rep.ID()), tea.WithContext(ctx), tea.WithInputTTY())
	w.program = p
	w.percent = rep.Percent

	rep.Start(ctx)
	go feed(in, rep, opts.Logger)
	go func() {
		select {
		case <-rep.Done():
			p.Send(doneMsg{})
		case <-ctx.Done():
		}
	}()

	final, err := p.Run()
	if err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		return err
	}
	if m, ok := final.(watchModel); ok && m.quitting {
		return context.Canceled
	}
	return nil
}

// maxLineSize bounds one line of transaction output; hook scripts can
// print long lines without newlines.
const maxLineSize = 1 << 20

// feed hands each input line to rep and stops it at end of input. A read
// error ends the input early and is logged.
func feed(in io.Reader, rep *progress.Reporter, logger *log.Logger) {
	sc := bufio.NewScanner(in)
	sc.Buffer(make([]byte, 0, 64*1024), maxLineSize)
	for sc.Scan() {
		rep.Handle(sc.Text())
	}
	if err := sc.Err(); err != nil {
		logger.Warn("stopped reading transaction output", "err", err)
	}
	rep.Stop()
}
