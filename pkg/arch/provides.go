package arch

import "strings"

// ProvidesMap maps virtual or alternate names to the concrete package that
// supplies them. Several names may map to one package; the first provider
// registered for a name wins.
type ProvidesMap struct {
	concrete map[string]struct{}
	virtual  map[string]string
}

// NewProvidesMap returns an empty map.
func NewProvidesMap() *ProvidesMap {
	return &ProvidesMap{
		concrete: make(map[string]struct{}),
		virtual:  make(map[string]string),
	}
}

// AddPackage registers a concrete package name.
func (m *ProvidesMap) AddPackage(name string) {
	m.concrete[name] = struct{}{}
}

// Add registers that pkg provides each entry. A versioned entry such as
// "libfoo.so=1-64" is registered under its full text and under its name.
func (m *ProvidesMap) Add(pkg string, entries ...string) {
	for _, e := range entries {
		e = strings.TrimSpace(e)
		if e == "" {
			continue
		}
		m.setVirtual(e, pkg)
		if name, _, ok := strings.Cut(e, "="); ok {
			m.setVirtual(name, pkg)
		}
	}
}

func (m *ProvidesMap) setVirtual(name, pkg string) {
	if _, ok := m.virtual[name]; !ok {
		m.virtual[name] = pkg
	}
}

// Resolve maps a dependency specifier to a concrete package name. A
// registered concrete package always wins over a virtual provider of the
// same name.
func (m *ProvidesMap) Resolve(spec string) (string, bool) {
	name := DepName(spec)
	if _, ok := m.concrete[name]; ok {
		return name, true
	}
	if pkg, ok := m.virtual[strings.TrimSpace(spec)]; ok {
		return pkg, true
	}
	pkg, ok := m.virtual[name]
	return pkg, ok
}

// Len returns the number of virtual names registered.
func (m *ProvidesMap) Len() int { return len(m.virtual) }
