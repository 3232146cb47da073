package pacman

import (
	"bufio"
	"context"
	"os"
	"regexp"
	"slices"
	"strings"
)

const (
	// DefaultConf is the system pacman configuration file.
	DefaultConf = "/etc/pacman.conf"

	// DefaultCacheDir is pacman's built-in package cache directory.
	DefaultCacheDir = "/var/cache/pacman/pkg"
)

var reMirrorStatus = regexp.MustCompile(`.+\s+OK\s+.+\s+(\d+:\d+)\s+.+(http.+)`)

// CacheDir returns the last active CacheDir entry of pacman.conf without a
// trailing slash, or [DefaultCacheDir] when the file or entry is missing.
func (s *Source) CacheDir(ctx context.Context) (string, error) {
	f, err := os.Open(s.conf)
	if os.IsNotExist(err) {
		return DefaultCacheDir, nil
	}
	if err != nil {
		return "", err
	}
	defer f.Close()

	dir := ""
	sc := bufio.NewScanner(f)
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if line == "" || line[0] == '#' {
			continue
		}
		key, val, ok := strings.Cut(line, "=")
		if !ok || strings.TrimSpace(key) != "CacheDir" {
			continue
		}
		if fields := strings.Fields(val); len(fields) > 0 {
			dir = fields[len(fields)-1]
		}
	}
	if err := sc.Err(); err != nil {
		return "", err
	}
	if dir == "" {
		return DefaultCacheDir, nil
	}
	if len(dir) > 1 {
		dir = strings.TrimSuffix(dir, "/")
	}
	return dir, nil
}

// ListAvailableMirrors returns the mirrors pacman-mirrors reports as OK,
// ordered by their sync delay.
func (s *Source) ListAvailableMirrors(ctx context.Context) ([]string, error) {
	out, err := s.run.Run(ctx, "pacman-mirrors", "--status", "--no-color")
	if err != nil {
		return nil, err
	}

	type mirror struct{ delay, url string }
	var mirrors []mirror
	for _, m := range reMirrorStatus.FindAllStringSubmatch(out.Stdout, -1) {
		mirrors = append(mirrors, mirror{delay: m[1], url: strings.TrimSpace(m[2])})
	}
	slices.SortStableFunc(mirrors, func(a, b mirror) int { return strings.Compare(a.delay, b.delay) })

	urls := make([]string, len(mirrors))
	for i, m := range mirrors {
		urls[i] = m.url
	}
	return urls, nil
}

// MirrorsBranch returns the configured Manjaro branch (stable, testing,
// unstable), or "" when pacman-mirrors does not report one.
func (s *Source) MirrorsBranch(ctx context.Context) (string, error) {
	out, err := s.run.Run(ctx, "pacman-mirrors", "-G")
	if err != nil {
		return "", err
	}
	if out.ExitCode != 0 {
		return "", nil
	}
	return strings.TrimSpace(out.Stdout), nil
}
