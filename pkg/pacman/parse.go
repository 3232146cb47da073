package pacman

import (
	"regexp"
	"strings"

	"github.com/matzehuels/pacstage/pkg/arch"
)

// Info is one record of `pacman -Si` output.
type Info struct {
	Repository string
	Name       string
	Version    string
	Arch       string
	Provides   []string
	Depends    []string
}

// Ref returns the record's package reference.
func (i Info) Ref() arch.Ref { return arch.Ref{Name: i.Name, Repo: arch.RepoOf(i.Repository)} }

// Descriptor converts the record into a download descriptor.
func (i Info) Descriptor() arch.Descriptor {
	version, _, _ := strings.Cut(i.Version, "=")
	return arch.Descriptor{
		Name:       i.Name,
		Version:    version,
		Arch:       i.Arch,
		Repository: i.Repository,
	}
}

// ProvidesName reports whether the record is name or provides it.
func (i Info) ProvidesName(name string) bool {
	if i.Name == name {
		return true
	}
	for _, p := range i.Provides {
		if arch.DepName(p) == name {
			return true
		}
	}
	return false
}

var reNotFound = regexp.MustCompile(`error: package '(.+)' was not found`)

// parseInfo splits `pacman -Si` output into records. Records are separated
// by blank lines; indented lines continue the previous field.
func parseInfo(text string) []Info {
	var (
		out    []Info
		fields map[string]string
		last   string
	)
	flush := func() {
		if fields == nil {
			return
		}
		if fields["Name"] != "" {
			out = append(out, Info{
				Repository: fields["Repository"],
				Name:       fields["Name"],
				Version:    fields["Version"],
				Arch:       fields["Architecture"],
				Provides:   splitList(fields["Provides"]),
				Depends:    splitList(fields["Depends On"]),
			})
		}
		fields, last = nil, ""
	}

	for _, line := range strings.Split(text, "\n") {
		if strings.TrimSpace(line) == "" {
			flush()
			continue
		}
		if line[0] == ' ' || line[0] == '\t' {
			if last != "" {
				fields[last] += " " + strings.TrimSpace(line)
			}
			continue
		}
		key, val, ok := strings.Cut(line, ":")
		if !ok {
			continue
		}
		if fields == nil {
			fields = make(map[string]string)
		}
		last = strings.TrimSpace(key)
		fields[last] = strings.TrimSpace(val)
	}
	flush()
	return out
}

// splitList splits a whitespace-separated field, treating "None" as empty.
func splitList(s string) []string {
	var out []string
	for _, f := range strings.Fields(s) {
		if f != "None" {
			out = append(out, f)
		}
	}
	return out
}

// parseSearch extracts repo/name references from `pacman -Ss` output.
// Description lines are indented and skipped.
func parseSearch(text string) []arch.Ref {
	var out []arch.Ref
	for _, line := range strings.Split(text, "\n") {
		if line == "" || line[0] == ' ' || line[0] == '\t' {
			continue
		}
		head, _, _ := strings.Cut(line, " ")
		if ref, err := arch.ParseRef(head); err == nil && ref.Repo.IsResolved() {
			out = append(out, ref)
		}
	}
	return out
}

// parseNotFound returns the targets pacman reported as missing on stderr.
func parseNotFound(stderr string) []string {
	var out []string
	for _, m := range reNotFound.FindAllStringSubmatch(stderr, -1) {
		out = append(out, m[1])
	}
	return out
}

// splitLines returns the non-blank trimmed lines of s.
func splitLines(s string) []string {
	var out []string
	for _, line := range strings.Split(s, "\n") {
		if line = strings.TrimSpace(line); line != "" {
			out = append(out, line)
		}
	}
	return out
}
