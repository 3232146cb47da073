package arch

import "strings"

// Op is a version comparison operator in a dependency specifier.
type Op int

const (
	OpAny Op = iota // no version constraint
	OpLT            // <
	OpLE            // <=
	OpEQ            // =
	OpGE            // >=
	OpGT            // >
)

var opText = map[Op]string{
	OpAny: "",
	OpLT:  "<",
	OpLE:  "<=",
	OpEQ:  "=",
	OpGE:  ">=",
	OpGT:  ">",
}

var textOp = map[string]Op{
	"<":  OpLT,
	"<=": OpLE,
	"=":  OpEQ,
	"==": OpEQ,
	">=": OpGE,
	"=>": OpGE,
	">":  OpGT,
	"=<": OpLE,
}

// String returns the operator symbol.
func (o Op) String() string { return opText[o] }

// Holds reports whether a comparison result (as returned by [Vercmp])
// satisfies the operator.
func (o Op) Holds(cmp int) bool {
	switch o {
	case OpAny:
		return true
	case OpLT:
		return cmp < 0
	case OpLE:
		return cmp <= 0
	case OpEQ:
		return cmp == 0
	case OpGE:
		return cmp >= 0
	case OpGT:
		return cmp > 0
	}
	return false
}

// Dep is a parsed dependency specifier such as "python>=3.11".
type Dep struct {
	Name    string
	Op      Op
	Version string
}

// ParseDep parses a specifier. Anything from the first '<', '>' or '=' on
// is the constraint; an optdepends description after ": " is dropped.
// Unknown operator spellings leave the specifier unconstrained.
func ParseDep(s string) Dep {
	s = strings.TrimSpace(s)
	if i := strings.Index(s, ": "); i >= 0 {
		s = s[:i]
	}
	i := strings.IndexAny(s, "<>=")
	if i < 0 {
		return Dep{Name: s}
	}
	j := i
	for j < len(s) && strings.ContainsRune("<>=", rune(s[j])) {
		j++
	}
	op, ok := textOp[s[i:j]]
	if !ok {
		return Dep{Name: s[:i]}
	}
	return Dep{Name: s[:i], Op: op, Version: strings.TrimSpace(s[j:])}
}

// DepName returns only the name part of a specifier.
func DepName(s string) string { return ParseDep(s).Name }

// String reassembles the specifier.
func (d Dep) String() string {
	if d.Op == OpAny {
		return d.Name
	}
	return d.Name + d.Op.String() + d.Version
}

// SatisfiedBy reports whether a package version meets the constraint.
func (d Dep) SatisfiedBy(version string) bool {
	if d.Op == OpAny {
		return true
	}
	if version == "" {
		return false
	}
	return d.Op.Holds(Vercmp(version, d.Version))
}

// SatisfiedByProvide reports whether a provides entry ("name" or
// "name=version") satisfies the dependency. An unversioned provide only
// satisfies an unconstrained dependency.
func (d Dep) SatisfiedByProvide(entry string) bool {
	name, version, _ := strings.Cut(entry, "=")
	if strings.TrimSpace(name) != d.Name {
		return false
	}
	return d.SatisfiedBy(strings.TrimSpace(version))
}

// Satisfies reports whether a concrete package, identified by name, version
// and provides entries, meets the dependency.
func (d Dep) Satisfies(name, version string, provides []string) bool {
	if name == d.Name && d.SatisfiedBy(version) {
		return true
	}
	for _, p := range provides {
		if d.SatisfiedByProvide(p) {
			return true
		}
	}
	return false
}
