package resolver

import (
	"strings"
	"sync"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"

	"github.com/athapong/relfeat/pkg/evidence"
	"github.com/athapong/relfeat/pkg/features"
	"github.com/athapong/relfeat/pkg/metrics"
	"github.com/athapong/relfeat/pkg/rules"
)

// Resolver resolves feature specs against a Lookup and caches the result
// per spec. A resolver is meant to be built once per process.
type Resolver struct {
	lookup           Lookup
	defaultNamespace string
	cache            map[string]*Feature
	mutex            sync.RWMutex
	logger           *logrus.Logger
}

// Option configures a Resolver
type Option func(*Resolver)

// WithDefaultNamespace sets the namespace used for specs without a dot
func WithDefaultNamespace(path string) Option {
	return func(r *Resolver) {
		r.defaultNamespace = path
	}
}

// WithLogger sets the resolver logger
func WithLogger(logger *logrus.Logger) Option {
	return func(r *Resolver) {
		r.logger = logger
	}
}

// New creates a new resolver. Specs without a dot resolve in the built-in
// feature namespace unless configured otherwise.
func New(lookup Lookup, opts ...Option) *Resolver {
	logger := logrus.New()
	logger.SetFormatter(&logrus.JSONFormatter{})

	r := &Resolver{
		lookup:           lookup,
		defaultNamespace: features.Namespace,
		cache:            make(map[string]*Feature),
		logger:           logger,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// SplitSpec splits a dotted spec into its namespace path and attribute name
func (r *Resolver) SplitSpec(spec string) (string, string, error) {
	dot := strings.LastIndexByte(spec, '.')
	switch {
	case spec == "":
		return "", "", errors.Wrap(ErrLookup, "empty feature spec")
	case dot < 0:
		return r.defaultNamespace, spec, nil
	case dot == 0 || dot == len(spec)-1:
		return "", "", errors.Wrapf(ErrLookup, "malformed feature spec %q", spec)
	}
	return spec[:dot], spec[dot+1:], nil
}

// Canonical returns the canonical form of spec: the bare name for the
// default namespace, path.name otherwise. Specs naming the same attribute
// have the same canonical form.
func (r *Resolver) Canonical(spec string) (string, error) {
	path, name, err := r.SplitSpec(spec)
	if err != nil {
		return "", err
	}
	if path == r.defaultNamespace {
		return name, nil
	}
	return path + "." + name, nil
}

// Feature resolves a single spec. The returned feature carries the
// canonical spec.
func (r *Resolver) Feature(spec string) (*Feature, error) {
	canonical, err := r.Canonical(spec)
	if err != nil {
		metrics.FeatureLookups.WithLabelValues("error").Inc()
		r.logger.WithError(err).WithField("spec", spec).Error("Failed to resolve feature")
		return nil, err
	}

	r.mutex.RLock()
	f, ok := r.cache[canonical]
	r.mutex.RUnlock()
	if ok {
		return f, nil
	}

	f, err = r.resolve(canonical)
	if err != nil {
		metrics.FeatureLookups.WithLabelValues("error").Inc()
		r.logger.WithError(err).WithField("spec", spec).Error("Failed to resolve feature")
		return nil, err
	}
	metrics.FeatureLookups.WithLabelValues("ok").Inc()

	r.mutex.Lock()
	defer r.mutex.Unlock()
	if existing, ok := r.cache[canonical]; ok {
		return existing, nil
	}
	r.cache[canonical] = f
	return f, nil
}

func (r *Resolver) resolve(spec string) (*Feature, error) {
	path, name, err := r.SplitSpec(spec)
	if err != nil {
		return nil, err
	}

	ns, err := r.lookup.Lookup(path)
	if err != nil {
		return nil, errors.Wrapf(err, "feature %q", spec)
	}
	attr, ok := ns[name]
	if !ok {
		return nil, errors.Wrapf(ErrLookup, "namespace %q has no attribute %q", path, name)
	}

	var f *Feature
	switch v := attr.(type) {
	case *rules.Rule:
		f, err = WrapRule(spec, v)
	case rules.Rule:
		f, err = WrapRule(spec, &v)
	case features.Func:
		f = Plain(spec, v)
	case func(*evidence.Evidence) features.Value:
		f = Plain(spec, v)
	default:
		err = errors.Wrapf(ErrType, "attribute %q is a %T", spec, attr)
	}
	if err != nil {
		return nil, err
	}

	r.logger.WithFields(logrus.Fields{
		"spec":     spec,
		"kind":     f.Kind.String(),
		"polarity": f.Polarity,
	}).Debug("Resolved feature")
	return f, nil
}

// Resolve resolves specs in order. The result is aligned with specs; the
// first unresolvable spec aborts resolution. Two specs naming the same
// attribute, such as "bag_of_words" and "features.bag_of_words", are
// duplicates.
func (r *Resolver) Resolve(specs []string) ([]*Feature, error) {
	seen := make(map[string]string, len(specs))
	out := make([]*Feature, 0, len(specs))
	for _, spec := range specs {
		canonical, err := r.Canonical(spec)
		if err != nil {
			return nil, err
		}
		if first, ok := seen[canonical]; ok {
			return nil, errors.Wrapf(ErrDuplicate, "feature %q duplicates %q", spec, first)
		}
		seen[canonical] = spec

		f, err := r.Feature(canonical)
		if err != nil {
			return nil, err
		}
		out = append(out, f)
	}
	return out, nil
}
