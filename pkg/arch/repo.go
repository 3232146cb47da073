package arch

import (
	"fmt"
	"strings"
)

const aurName = "aur"

// Repo identifies where a package is sourced from: a named sync repository
// (core, extra, ...), the AUR, or nowhere yet. The zero value is Unresolved.
type Repo struct {
	name string
}

var (
	// Unresolved marks a package no source could provide.
	Unresolved = Repo{}

	// AUR marks a package built from an AUR recipe.
	AUR = Repo{name: aurName}
)

// RepoOf returns the tag for a named repository. An empty or blank name
// yields Unresolved and "aur" yields AUR.
func RepoOf(name string) Repo {
	return Repo{name: strings.ToLower(strings.TrimSpace(name))}
}

// IsResolved reports whether the repository is known.
func (r Repo) IsResolved() bool { return r.name != "" }

// IsAUR reports whether the package comes from the AUR.
func (r Repo) IsAUR() bool { return r.name == aurName }

// Name returns the repository name, or "" when unresolved.
func (r Repo) Name() string { return r.name }

// String returns the repository name, or "unresolved".
func (r Repo) String() string {
	if !r.IsResolved() {
		return "unresolved"
	}
	return r.name
}

// MarshalText encodes the repository as its name. Unresolved encodes as "".
func (r Repo) MarshalText() ([]byte, error) { return []byte(r.name), nil }

// UnmarshalText decodes a repository name.
func (r *Repo) UnmarshalText(b []byte) error {
	*r = RepoOf(string(b))
	return nil
}

// Ref is a package name paired with the repository it resolves to.
type Ref struct {
	Name string `json:"name"`
	Repo Repo   `json:"repository"`
}

// String formats the reference as "repo/name", or just the name when the
// repository is unresolved.
func (r Ref) String() string {
	if !r.Repo.IsResolved() {
		return r.Name
	}
	return r.Repo.name + "/" + r.Name
}

// ParseRef parses "repo/name" or a bare "name". A bare name stays Unresolved.
func ParseRef(s string) (Ref, error) {
	s = strings.TrimSpace(s)
	repo, name, found := strings.Cut(s, "/")
	if !found {
		name, repo = repo, ""
	}
	if name == "" || (found && repo == "") || strings.Contains(name, "/") {
		return Ref{}, fmt.Errorf("invalid package reference %q", s)
	}
	return Ref{Name: name, Repo: RepoOf(repo)}, nil
}

// Names returns the names of refs in order.
func Names(refs []Ref) []string {
	out := make([]string, len(refs))
	for i, r := range refs {
		out[i] = r.Name
	}
	return out
}
