// Package download prefetches repository packages into the pacman cache.
//
// A [Selector] maps a package descriptor to a URL of the form
//
//	<mirror>/<branch>/<repo>/<arch>/<name>-<version>-<arch>.pkg<ext>
//
// probing mirrors in priority order and, for each mirror, every archive
// extension in order. The first mirror that answers wins. [Selector.Fetch]
// transfers the artifact and its detached signature; only the artifact is
// required.
//
// A [Coordinator] runs a whole batch: it skips what is already cached,
// then overlaps mirror probing with transfers by handing located tasks from
// one goroutine to another over a channel. Mirror lists, the branch and the
// cache directory come from a [MetadataSource], usually [pacman.Source].
//
// [pacman.Source]: github.com/matzehuels/pacstage/pkg/pacman.Source
package download
