// Package pacman queries the local package manager for repository metadata.
//
// All data comes from running pacman (and, on Manjaro, pacman-mirrors)
// through a [Runner] and parsing its C-locale output. [Source] implements
// the repository side of dependency resolution, ordering, and download
// staging:
//
//   - CheckMissing: which specifiers are not satisfied locally (pacman -T)
//   - ReadRepository, ReadDependencies, SearchProviders: sync database lookups (-Si, -Ss)
//   - MapSortingData, ListDownloadData: batched -Si queries
//   - ListAvailableMirrors, MirrorsBranch: pacman-mirrors status and branch
//   - CacheDir: the package cache directory from pacman.conf
//
// Tests substitute a fake [Runner] so no binaries are required.
package pacman
