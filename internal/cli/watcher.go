package cli

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/matzehuels/pacstage/pkg/progress"
)

// termWatcher shows core progress in the terminal. Substatus goes to the
// spinner when there is one; confirmations are read from in unless yes is
// set.
type termWatcher struct {
	spinner *Spinner
	in      io.Reader
	out     io.Writer
	yes     bool
}

func newTermWatcher(spinner *Spinner, yes bool) *termWatcher {
	return &termWatcher{spinner: spinner, in: os.Stdin, out: os.Stderr, yes: yes}
}

func (w *termWatcher) Print(line string) {
	if w.spinner != nil {
		w.spinner.Println(StyleDim.Render(line))
		return
	}
	fmt.Fprintln(w.out, StyleDim.Render(line))
}

func (w *termWatcher) ChangeSubstatus(text string) {
	if w.spinner != nil {
		w.spinner.SetMessage(text)
	}
}

// RequestConfirmation prompts on the terminal. Anything but an explicit
// "n" or "no" approves, matching pacman's [Y/n] default.
func (w *termWatcher) RequestConfirmation(title, body string) bool {
	if w.yes {
		return true
	}
	if w.spinner != nil {
		w.spinner.Stop()
	}
	fmt.Fprintln(w.out, StyleTitle.Render(title))
	fmt.Fprint(w.out, body)
	fmt.Fprint(w.out, ":: Proceed? [Y/n] ")

	answer, err := bufio.NewReader(w.in).ReadString('\n')
	if err != nil && answer == "" {
		return false
	}
	switch strings.ToLower(strings.TrimSpace(answer)) {
	case "n", "no":
		return false
	}
	return true
}

// RequestChoice lists options numbered from 1 and reads the pick. An
// empty answer takes the first option, like pacman; anything that is not
// a listed number declines.
func (w *termWatcher) RequestChoice(title, body string, options []string) int {
	if w.yes {
		return 0
	}
	if w.spinner != nil {
		w.spinner.Stop()
	}
	fmt.Fprintln(w.out, StyleTitle.Render(title))
	fmt.Fprint(w.out, body)
	for i, o := range options {
		fmt.Fprintf(w.out, "  %d) %s\n", i+1, o)
	}
	fmt.Fprint(w.out, ":: Enter a number (default=1): ")

	answer, err := bufio.NewReader(w.in).ReadString('\n')
	if err != nil && answer == "" {
		return -1
	}
	answer = strings.TrimSpace(answer)
	if answer == "" {
		return 0
	}
	n, err := strconv.Atoi(answer)
	if err != nil || n < 1 || n > len(options) {
		return -1
	}
	return n - 1
}

func (w *termWatcher) ShowMessage(title, body string, severity progress.Severity) {
	if w.spinner != nil {
		w.spinner.Stop()
	}
	switch severity {
	case progress.SeverityError:
		printError("%s: %s", title, body)
	case progress.SeverityWarning:
		printWarning("%s: %s", title, body)
	default:
		printInfo("%s: %s", title, body)
	}
}

var (
	_ progress.Watcher = (*termWatcher)(nil)
	_ progress.Chooser = (*termWatcher)(nil)
)
