package errors

import (
	"net/url"
	"strings"
)

const maxPackageNameLen = 256

// ValidatePackageName checks a package name against the rules makepkg
// enforces for pkgname: alphanumerics and @ . _ + -, not starting
// with a hyphen or a dot.
//
// Names arrive from the command line and the HTTP API and are passed on as
// arguments to pacman, so anything outside that alphabet is rejected here.
func ValidatePackageName(name string) error {
	if name == "" {
		return New(ErrCodeInvalidPackage, "package name cannot be empty")
	}
	if len(name) > maxPackageNameLen {
		return New(ErrCodeInvalidPackage, "package name too long (max %d characters)", maxPackageNameLen)
	}
	if strings.HasPrefix(name, "-") || strings.HasPrefix(name, ".") {
		return New(ErrCodeInvalidPackage, "package name %q must not start with %q", name, name[:1])
	}
	for _, r := range name {
		if !validNameRune(r) {
			return New(ErrCodeInvalidPackage, "package name %q contains invalid character %q", name, r)
		}
	}
	return nil
}

// ValidatePackageNames validates every name and returns the first failure.
func ValidatePackageNames(names []string) error {
	if len(names) == 0 {
		return New(ErrCodeInvalidInput, "at least one package name is required")
	}
	for _, n := range names {
		if err := ValidatePackageName(n); err != nil {
			return err
		}
	}
	return nil
}

func validNameRune(r rune) bool {
	switch {
	case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
		return true
	case r == '@', r == '.', r == '_', r == '+', r == '-':
		return true
	}
	return false
}

// ValidateMirrorURL checks that a mirror base URL is an absolute http(s) URL.
func ValidateMirrorURL(raw string) error {
	if raw == "" {
		return New(ErrCodeInvalidConfig, "mirror URL cannot be empty")
	}
	u, err := url.Parse(raw)
	if err != nil {
		return Wrap(ErrCodeInvalidConfig, err, "invalid mirror URL %q", raw)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return New(ErrCodeInvalidConfig, "mirror URL %q must use http or https", raw)
	}
	if u.Host == "" {
		return New(ErrCodeInvalidConfig, "mirror URL %q has no host", raw)
	}
	return nil
}
