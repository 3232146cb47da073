// Package arch defines the package-level vocabulary shared by the resolver,
// the orderer and the downloader: repository tags, package references,
// dependency specifiers with their comparison operators, provides maps and
// download descriptors.
//
// # Repositories
//
// A [Repo] is a tagged value. Its zero value is [Unresolved], so a reference
// whose source was never determined cannot be mistaken for a resolved one:
//
//	ref := arch.Ref{Name: "yay"}
//	ref.Repo.IsResolved() // false
//	ref.Repo = arch.AUR
//
// # Dependency specifiers
//
// [ParseDep] splits a specifier such as "glibc>=2.38" into a name, an
// enumerated [Op] and a version. Satisfaction checks use [Vercmp], which
// orders versions the way libalpm does (epoch, then version segments, then
// release).
//
//	d := arch.ParseDep("glibc>=2.38")
//	d.SatisfiedBy("2.39-1") // true
package arch
