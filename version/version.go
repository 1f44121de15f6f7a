// Package version resolves the version of the product being released.
package version

import (
	"fmt"

	"github.com/lanceccraig/Tooling.DevOps/errs"
)

// Kind selects a resolution strategy.
type Kind string

const (
	// KindFile reads the version from the MSBuild properties file at the
	// repository root.
	KindFile Kind = "file"
	// KindBinary reads the version embedded in the running binary.
	KindBinary Kind = "binary"
)

// Kinds lists the supported strategy kinds.
func Kinds() []Kind {
	return []Kind{KindFile, KindBinary}
}

// ErrStrategyNotFound is returned when no strategy matches the configured kind.
var ErrStrategyNotFound = errs.InvalidConfig("version strategy not found")

// Strategy produces a version string.
type Strategy interface {
	Kind() Kind
	Resolve() (string, error)
}

// Resolver delegates to the single strategy registered for its kind.
type Resolver struct {
	strategy Strategy
}

// NewResolver selects the strategy for kind. It fails when no strategy or
// more than one strategy has that kind.
func NewResolver(kind Kind, strategies ...Strategy) (*Resolver, error) {
	var match Strategy
	for _, s := range strategies {
		if s == nil || s.Kind() != kind {
			continue
		}
		if match != nil {
			return nil, errs.Internal("more than one version strategy registered for %q", kind)
		}
		match = s
	}
	if match == nil {
		return nil, fmt.Errorf("%w: %q", ErrStrategyNotFound, kind)
	}
	return &Resolver{strategy: match}, nil
}

// Kind returns the kind of the selected strategy.
func (r *Resolver) Kind() Kind {
	return r.strategy.Kind()
}

// Resolve returns the current version.
func (r *Resolver) Resolve() (string, error) {
	return r.strategy.Resolve()
}
