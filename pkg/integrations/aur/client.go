package aur

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	srcinfo "github.com/Morganamilo/go-srcinfo"

	"github.com/matzehuels/pacstage/pkg/arch"
	"github.com/matzehuels/pacstage/pkg/cache"
	"github.com/matzehuels/pacstage/pkg/integrations"
)

const (
	defaultBaseURL = "https://aur.archlinux.org"
	rpcVersion     = "5"
)

// Package is an AUR RPC record.
type Package struct {
	Name         string   `json:"Name"`
	PackageBase  string   `json:"PackageBase"`
	Version      string   `json:"Version"`
	Depends      []string `json:"Depends"`
	MakeDepends  []string `json:"MakeDepends"`
	CheckDepends []string `json:"CheckDepends"`
	Provides     []string `json:"Provides"`
}

type rpcResponse struct {
	Version     int       `json:"version"`
	Type        string    `json:"type"`
	ResultCount int       `json:"resultcount"`
	Results     []Package `json:"results"`
	Error       string    `json:"error"`
}

// Client provides access to the AUR RPC and .SRCINFO endpoints.
// It handles HTTP requests with caching and automatic retries.
//
// All methods are safe for concurrent use by multiple goroutines.
type Client struct {
	*integrations.Client
	baseURL string
	arch    string
}

// NewClient creates an AUR client with the given cache backend. Responses
// are cached for cacheTTL.
func NewClient(backend cache.Cache, cacheTTL time.Duration) *Client {
	headers := map[string]string{
		"User-Agent": "pacstage/1.0 (https://github.com/matzehuels/pacstage)",
	}
	return &Client{
		Client:  integrations.NewClient(backend, "aur:", cacheTTL, headers),
		baseURL: defaultBaseURL,
		arch:    arch.DefaultArch,
	}
}

// WithArch returns a copy of the client that selects architecture-specific
// dependencies for machine instead of x86_64.
func (c *Client) WithArch(machine string) *Client {
	cp := *c
	if machine != "" {
		cp.arch = machine
	}
	return &cp
}

// Info fetches RPC records for names. Names unknown to the AUR are simply
// absent from the result.
func (c *Client) Info(ctx context.Context, names []string, refresh bool) ([]Package, error) {
	if len(names) == 0 {
		return nil, nil
	}
	q := url.Values{}
	q.Set("v", rpcVersion)
	q.Set("type", "info")
	for _, n := range names {
		q.Add("arg[]", integrations.NormalizePkgName(n))
	}

	var resp rpcResponse
	err := c.Cached(ctx, cache.Key("info", names), refresh, &resp, func() error {
		return c.Get(ctx, c.baseURL+"/rpc/?"+q.Encode(), &resp)
	})
	if err != nil {
		return nil, err
	}
	if resp.Type == "error" {
		return nil, fmt.Errorf("aur rpc: %s", resp.Error)
	}
	return resp.Results, nil
}

// SrcInfo fetches and parses the .SRCINFO of name. When name is a split
// package without its own recipe, the package base reported by the RPC is
// tried. It returns [integrations.ErrNotFound] when neither exists.
func (c *Client) SrcInfo(ctx context.Context, name string) (*srcinfo.Srcinfo, error) {
	text, err := c.srcInfoText(ctx, name)
	if err != nil && !errors.Is(err, integrations.ErrNotFound) {
		return nil, err
	}
	if strings.TrimSpace(text) == "" {
		base, berr := c.packageBase(ctx, name)
		if berr != nil {
			return nil, berr
		}
		if base == "" || base == name {
			return nil, fmt.Errorf("%w: aur package %s", integrations.ErrNotFound, name)
		}
		if text, err = c.srcInfoText(ctx, base); err != nil {
			return nil, err
		}
		if strings.TrimSpace(text) == "" {
			return nil, fmt.Errorf("%w: aur package %s", integrations.ErrNotFound, name)
		}
	}

	si, err := srcinfo.Parse(text)
	if err != nil {
		return nil, fmt.Errorf("parse .SRCINFO of %s: %w", name, err)
	}
	return si, nil
}

func (c *Client) srcInfoText(ctx context.Context, base string) (string, error) {
	u := fmt.Sprintf("%s/cgit/aur.git/plain/.SRCINFO?h=%s", c.baseURL, integrations.URLEncode(base))
	var text string
	err := c.Cached(ctx, cache.Key("srcinfo", base), false, &text, func() error {
		var err error
		text, err = c.GetText(ctx, u)
		return err
	})
	return text, err
}

func (c *Client) packageBase(ctx context.Context, name string) (string, error) {
	pkgs, err := c.Info(ctx, []string{name}, false)
	if err != nil {
		return "", err
	}
	for _, p := range pkgs {
		if p.Name == name {
			return p.PackageBase, nil
		}
	}
	return "", nil
}

// RequiredDependencies returns the dependency specifiers needed to build
// and install name.
func (c *Client) RequiredDependencies(ctx context.Context, name string) ([]string, error) {
	si, err := c.SrcInfo(ctx, name)
	if err != nil {
		return nil, err
	}
	return ExtractRequiredDependencies(si, c.arch), nil
}

// ExtractRequiredDependencies collects makedepends, depends and
// checkdepends from a recipe, including split-package overrides and entries
// restricted to machine. Order of first appearance is kept and duplicates
// are dropped.
func ExtractRequiredDependencies(si *srcinfo.Srcinfo, machine string) []string {
	var out []string
	seen := make(map[string]bool)
	add := func(list []srcinfo.ArchString) {
		for _, a := range list {
			if a.Arch != "" && a.Arch != machine {
				continue
			}
			v := strings.TrimSpace(a.Value)
			if v == "" || seen[v] {
				continue
			}
			seen[v] = true
			out = append(out, v)
		}
	}

	add(si.MakeDepends)
	add(si.Depends)
	add(si.CheckDepends)
	for _, p := range si.Packages {
		add(p.Depends)
	}
	return out
}

// ProvidedNames returns the names a recipe installs: every pkgname and every
// provides entry, in that order.
func ProvidedNames(si *srcinfo.Srcinfo, machine string) (pkgnames, provides []string) {
	seen := make(map[string]bool)
	addProvides := func(list []srcinfo.ArchString) {
		for _, a := range list {
			if (a.Arch == "" || a.Arch == machine) && !seen[a.Value] {
				seen[a.Value] = true
				provides = append(provides, a.Value)
			}
		}
	}

	addProvides(si.Provides)
	for _, p := range si.Packages {
		pkgnames = append(pkgnames, p.Pkgname)
		addProvides(p.Provides)
	}
	if len(pkgnames) == 0 && si.Pkgbase != "" {
		pkgnames = append(pkgnames, si.Pkgbase)
	}
	return pkgnames, provides
}

// Version returns the recipe's full version, epoch:pkgver-pkgrel.
func Version(si *srcinfo.Srcinfo) string {
	v := si.Pkgver + "-" + si.Pkgrel
	if si.Epoch != "" {
		v = si.Epoch + ":" + v
	}
	return v
}
