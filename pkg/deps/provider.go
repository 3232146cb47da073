package deps

import (
	"fmt"
	"strings"

	"github.com/matzehuels/pacstage/pkg/arch"
	"github.com/matzehuels/pacstage/pkg/pacman"
	"github.com/matzehuels/pacstage/pkg/progress"
)

// Providers returns the candidates whose name and version, or one of whose
// provides entries, meet dep's constraint, keeping their order.
func Providers(dep arch.Dep, candidates []pacman.Info) []pacman.Info {
	var out []pacman.Info
	for _, c := range candidates {
		if dep.Satisfies(c.Name, c.Version, c.Provides) {
			out = append(out, c)
		}
	}
	return out
}

// SelectProvider picks the package that should satisfy dep from candidates
// listed in repository priority order. Among the [Providers] of dep, one
// named exactly like the dependency wins; otherwise the first does.
func SelectProvider(dep arch.Dep, candidates []pacman.Info) (pacman.Info, bool) {
	qualified := Providers(dep, candidates)
	if len(qualified) == 0 {
		return pacman.Info{}, false
	}
	for _, c := range qualified {
		if c.Name == dep.Name {
			return c, true
		}
	}
	return qualified[0], true
}

// chooseProvider is SelectProvider, except that a choice among several
// providers goes to the configured Chooser. Answers are remembered per
// dependency name, and prompts are serialized across workers.
func (r *Resolver) chooseProvider(dep arch.Dep, candidates []pacman.Info) (pacman.Info, bool, error) {
	p, ok := SelectProvider(dep, candidates)
	if !ok || r.opts.Chooser == nil || p.Name == dep.Name {
		return p, ok, nil
	}
	qualified := Providers(dep, candidates)
	if len(qualified) < 2 {
		return p, true, nil
	}

	r.chooseMu.Lock()
	defer r.chooseMu.Unlock()
	if name, ok := r.chosen[dep.Name]; ok {
		for _, c := range qualified {
			if c.Name == name {
				return c, true, nil
			}
		}
	}

	options := make([]string, len(qualified))
	for i, c := range qualified {
		options[i] = fmt.Sprintf("%s %s (%s)", c.Name, c.Version, c.Repository)
	}
	body := fmt.Sprintf("There are %d providers available for %s:\n", len(qualified), dep.Name)
	i := r.opts.Chooser.RequestChoice("Choose a provider", body, options)
	if i < 0 || i >= len(qualified) {
		return pacman.Info{}, false, ErrCancelled
	}
	r.chosen[dep.Name] = qualified[i].Name
	return qualified[i], true, nil
}

// ConfirmMissing asks the watcher to approve installing missing
// dependencies of requester. It returns [ErrCancelled] if the user
// declines; an empty list needs no confirmation.
func ConfirmMissing(w progress.Watcher, requester string, missing []arch.Ref) error {
	if len(missing) == 0 {
		return nil
	}

	var b strings.Builder
	if requester != "" {
		fmt.Fprintf(&b, "%s requires %d missing dependencies:\n", requester, len(missing))
	} else {
		fmt.Fprintf(&b, "%d missing dependencies must be installed:\n", len(missing))
	}
	for _, ref := range missing {
		fmt.Fprintf(&b, "  %s (%s)\n", ref.Name, strings.ToUpper(ref.Repo.String()))
	}

	if !w.RequestConfirmation("Missing dependencies", b.String()) {
		return ErrCancelled
	}
	return nil
}
