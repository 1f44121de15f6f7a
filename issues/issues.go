// Package issues converts raw tracker issues into validated releasable issues.
package issues

import (
	"strings"
)

// Resolution describes how an issue was closed.
type Resolution struct {
	Name           string `yaml:"name" toml:"name"`
	InReleaseNotes bool   `yaml:"in_release_notes" toml:"in_release_notes"`
}

// Type describes the kind of change an issue represents.
type Type struct {
	Name           string `yaml:"name" toml:"name"`
	InReleaseNotes bool   `yaml:"in_release_notes" toml:"in_release_notes"`
	DisplayName    string `yaml:"display_name,omitempty" toml:"display_name,omitempty"`
}

// NewType creates a Type. An empty displayName defaults to name.
func NewType(name string, inReleaseNotes bool, displayName string) Type {
	if displayName == "" {
		displayName = name
	}
	return Type{Name: name, InReleaseNotes: inReleaseNotes, DisplayName: displayName}
}

// Display returns the heading used for the type in release notes.
func (t Type) Display() string {
	if t.DisplayName == "" {
		return t.Name
	}
	return t.DisplayName
}

// Built-in resolutions.
var (
	ByDesignWontFix = Resolution{Name: "By Design / Won't Fix", InReleaseNotes: false}
	Completed       = Resolution{Name: "Completed", InReleaseNotes: true}
	Duplicate       = Resolution{Name: "Duplicate", InReleaseNotes: false}
)

// Built-in types.
var (
	Bug           = NewType("Bug", true, "Bugs")
	Discussion    = NewType("Discussion", false, "")
	Documentation = NewType("Documentation", true, "")
	Feature       = NewType("Feature", true, "Features")
	Meta          = NewType("Meta", true, "")
	Performance   = NewType("Performance", true, "")
	Security      = NewType("Security", true, "")
	TechDebt      = NewType("Tech Debt", true, "TechnicalDebt")
)

// BuiltInResolutions returns the built-in resolutions.
func BuiltInResolutions() []Resolution {
	return []Resolution{ByDesignWontFix, Completed, Duplicate}
}

// BuiltInTypes returns the built-in types.
func BuiltInTypes() []Type {
	return []Type{Bug, Discussion, Documentation, Feature, Meta, Performance, Security, TechDebt}
}

// RawIssue is an issue as read from the tracker.
type RawIssue struct {
	Number int
	Title  string
	Labels []string
}

// Releasable is an issue with exactly one registered resolution and type.
// Values are only produced by Converter.
type Releasable struct {
	Number     int
	Title      string
	Resolution Resolution
	Type       Type
}

// Registry holds the read-only resolution and type snapshots used for
// symbol lookup.
type Registry struct {
	resolutions []Resolution
	types       []Type
}

// NewRegistry creates a Registry from copies of the given values.
func NewRegistry(resolutions []Resolution, types []Type) Registry {
	return Registry{
		resolutions: append([]Resolution(nil), resolutions...),
		types:       append([]Type(nil), types...),
	}
}

// DefaultRegistry returns a Registry of the built-in resolutions and types.
func DefaultRegistry() Registry {
	return NewRegistry(BuiltInResolutions(), BuiltInTypes())
}

// Resolution returns the first resolution named name, ignoring case.
func (r Registry) Resolution(name string) (Resolution, bool) {
	for _, res := range r.resolutions {
		if strings.EqualFold(res.Name, name) {
			return res, true
		}
	}
	return Resolution{}, false
}

// Type returns the first type named name, ignoring case.
func (r Registry) Type(name string) (Type, bool) {
	for _, typ := range r.types {
		if strings.EqualFold(typ.Name, name) {
			return typ, true
		}
	}
	return Type{}, false
}

// Resolutions returns a copy of the registered resolutions.
func (r Registry) Resolutions() []Resolution {
	return append([]Resolution(nil), r.resolutions...)
}

// Types returns a copy of the registered types.
func (r Registry) Types() []Type {
	return append([]Type(nil), r.types...)
}
