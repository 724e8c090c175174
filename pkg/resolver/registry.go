// Package resolver turns dotted feature specs into feature callables.
//
// A spec such as "app.rules.has_comma" names an attribute ("has_comma") of a
// namespace ("app.rules"). Namespaces come from a Lookup, normally a caller
// owned Registry filled once at startup. Attributes are either plain features
// or rules; rules are wrapped so they yield 1 when their pattern matches the
// evidence tokens and 0 otherwise.
package resolver

import (
	"sort"
	"sync"

	"github.com/pkg/errors"

	"github.com/athapong/relfeat/pkg/evidence"
	"github.com/athapong/relfeat/pkg/features"
	"github.com/athapong/relfeat/pkg/rules"
)

var (
	// ErrLookup is returned when a namespace or attribute cannot be found
	ErrLookup = errors.New("feature lookup failed")

	// ErrType is returned when an attribute is neither a feature nor a rule,
	// or when a rule does not produce a pattern
	ErrType = errors.New("feature has an invalid type")

	// ErrDuplicate is returned when a spec list names a feature twice
	ErrDuplicate = errors.New("duplicate feature spec")
)

// Namespace maps attribute names to features.Func,
// func(*evidence.Evidence) features.Value or *rules.Rule values
type Namespace map[string]any

// Names returns the attribute names in order
func (n Namespace) Names() []string {
	names := make([]string, 0, len(n))
	for name := range n {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Lookup resolves a dotted namespace path. Unknown paths must yield an error
// wrapping ErrLookup.
type Lookup interface {
	Lookup(path string) (Namespace, error)
}

// LookupFunc adapts a function to Lookup
type LookupFunc func(path string) (Namespace, error)

// Lookup implements Lookup
func (f LookupFunc) Lookup(path string) (Namespace, error) {
	return f(path)
}

// Registry is an explicit, caller-owned Lookup. It is meant to be filled
// once at startup and read afterwards; it is safe for concurrent use.
type Registry struct {
	mutex      sync.RWMutex
	namespaces map[string]Namespace
}

// NewRegistry creates an empty registry
func NewRegistry() *Registry {
	return &Registry{
		namespaces: make(map[string]Namespace),
	}
}

// Builtin creates a registry holding the built-in feature catalog
func Builtin() *Registry {
	r := NewRegistry()
	ns := make(Namespace)
	for name, fn := range features.Catalog() {
		ns[name] = fn
	}
	// The catalog names are unique so this cannot fail.
	_ = r.Register(features.Namespace, ns)
	return r
}

// Register adds the attributes of ns to the namespace at path. Registering
// an attribute name twice is an error.
func (r *Registry) Register(path string, ns Namespace) error {
	if path == "" {
		return errors.Wrap(ErrLookup, "empty namespace path")
	}

	r.mutex.Lock()
	defer r.mutex.Unlock()

	existing, ok := r.namespaces[path]
	if !ok {
		existing = make(Namespace, len(ns))
		r.namespaces[path] = existing
	}
	for name, attr := range ns {
		if _, dup := existing[name]; dup {
			return errors.Wrapf(ErrDuplicate, "%s.%s already registered", path, name)
		}
		existing[name] = attr
	}
	return nil
}

// RegisterFeature registers a plain feature
func (r *Registry) RegisterFeature(path, name string, fn func(*evidence.Evidence) features.Value) error {
	return r.Register(path, Namespace{name: features.Func(fn)})
}

// RegisterRule registers a rule
func (r *Registry) RegisterRule(path, name string, rule *rules.Rule) error {
	return r.Register(path, Namespace{name: rule})
}

// Lookup implements Lookup. The returned namespace is a copy.
func (r *Registry) Lookup(path string) (Namespace, error) {
	r.mutex.RLock()
	defer r.mutex.RUnlock()

	ns, ok := r.namespaces[path]
	if !ok {
		return nil, errors.Wrapf(ErrLookup, "namespace %q not found", path)
	}
	out := make(Namespace, len(ns))
	for name, attr := range ns {
		out[name] = attr
	}
	return out, nil
}

// Paths returns the registered namespace paths in order
func (r *Registry) Paths() []string {
	r.mutex.RLock()
	defer r.mutex.RUnlock()

	paths := make([]string, 0, len(r.namespaces))
	for path := range r.namespaces {
		paths = append(paths, path)
	}
	sort.Strings(paths)
	return paths
}
