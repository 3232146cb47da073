package arch

import "fmt"

// DefaultArch replaces "any" when building repository paths.
const DefaultArch = "x86_64"

// Package is an entry of an upgrade batch.
type Package struct {
	Name    string `json:"name"`
	Version string `json:"version,omitempty"`
	Repo    Repo   `json:"repository"`
}

// Ref returns the package's reference.
func (p Package) Ref() Ref { return Ref{Name: p.Name, Repo: p.Repo} }

// Descriptor holds what is needed to locate a repository artifact on a mirror.
type Descriptor struct {
	Name       string `json:"name"`
	Version    string `json:"version"`
	Filename   string `json:"filename"`
	Arch       string `json:"arch"`
	Repository string `json:"repository"`
}

// FileBase returns the artifact file name without its compression
// extension: the Filename field when set, otherwise name-version-arch.pkg.
func (d Descriptor) FileBase() string {
	if d.Filename != "" {
		return d.Filename
	}
	return fmt.Sprintf("%s-%s-%s.pkg", d.Name, d.Version, d.Arch)
}

// PathArch returns the architecture directory used on mirrors. Packages
// built for "any" live under the machine architecture.
func (d Descriptor) PathArch(fallback string) string {
	if d.Arch == "" || d.Arch == "any" {
		if fallback == "" {
			return DefaultArch
		}
		return fallback
	}
	return d.Arch
}
