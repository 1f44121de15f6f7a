// Package labels splits issue label text into a classification and a value.
//
// A label such as "type: Bug" is split at the configured separator into the
// prefix "type" and the remainder "Bug". The prefix selects a Classification
// from an immutable Registry.
package labels

import (
	"fmt"
	"strings"

	"github.com/lanceccraig/Tooling.DevOps/errs"
)

// DefaultSeparator separates a label prefix from its value.
const DefaultSeparator = ": "

// Classification is a named grouping of labels sharing a prefix.
type Classification struct {
	Name   string `yaml:"name" toml:"name"`
	Prefix string `yaml:"prefix" toml:"prefix"`
}

// Built-in classifications.
var (
	Miscellaneous = Classification{Name: "Miscellaneous", Prefix: ""}
	Area          = Classification{Name: "Area", Prefix: "area"}
	Resolution    = Classification{Name: "Resolution", Prefix: "res"}
	Size          = Classification{Name: "Size", Prefix: "size"}
	Status        = Classification{Name: "Status", Prefix: "status"}
	Type          = Classification{Name: "Type", Prefix: "type"}
)

// BuiltIns returns the built-in classifications in declaration order.
func BuiltIns() []Classification {
	return []Classification{Miscellaneous, Area, Resolution, Size, Status, Type}
}

// Registry is an ordered, read-only set of classifications.
type Registry struct {
	items []Classification
}

// NewRegistry creates a registry holding a copy of the given classifications.
func NewRegistry(items ...Classification) Registry {
	return Registry{items: append([]Classification(nil), items...)}
}

// All returns a copy of the registered classifications.
func (r Registry) All() []Classification {
	return append([]Classification(nil), r.items...)
}

// ByPrefix returns the first classification whose prefix equals prefix,
// ignoring case.
func (r Registry) ByPrefix(prefix string) (Classification, bool) {
	for _, c := range r.items {
		if strings.EqualFold(c.Prefix, prefix) {
			return c, true
		}
	}
	return Classification{}, false
}

// ByName returns the first classification whose name equals name, ignoring case.
func (r Registry) ByName(name string) (Classification, bool) {
	for _, c := range r.items {
		if strings.EqualFold(c.Name, name) {
			return c, true
		}
	}
	return Classification{}, false
}

// UnknownPrefixError is returned in strict mode when a label prefix matches
// no registered classification.
type UnknownPrefixError struct {
	Prefix string
}

func (e *UnknownPrefixError) Error() string {
	return fmt.Sprintf("label prefix %q is not configured", e.Prefix)
}

// ErrorCode classifies unknown prefixes as configuration errors.
func (e *UnknownPrefixError) ErrorCode() errs.Code {
	return errs.CodeInvalidConfig
}

// Classifier maps label names to classifications.
type Classifier struct {
	Registry  Registry
	Default   Classification
	Separator string
	// Strict rejects labels whose prefix is not registered.
	Strict bool
}

// NewClassifier creates a strict classifier over the built-in classifications.
func NewClassifier() *Classifier {
	return &Classifier{
		Registry:  NewRegistry(BuiltIns()...),
		Default:   Miscellaneous,
		Separator: DefaultSeparator,
		Strict:    true,
	}
}

// Classify returns the classification of name and the label text that
// follows its prefix.
//
// Labels without a separator belong to the default classification and keep
// their full text. When the prefix is unknown and the classifier is not
// strict, the default classification is returned with the original,
// unstripped text.
func (c *Classifier) Classify(name string) (Classification, string, error) {
	if name == "" {
		return Classification{}, "", errs.InvalidInput("label name is required")
	}

	idx := indexFold(name, c.separator())
	if idx < 0 {
		return c.Default, name, nil
	}

	prefix := name[:idx]
	if cls, ok := c.Registry.ByPrefix(prefix); ok {
		return cls, name[idx+len(c.separator()):], nil
	}
	if c.Strict {
		return Classification{}, "", &UnknownPrefixError{Prefix: prefix}
	}
	return c.Default, name, nil
}

// separator returns the effective separator.
func (c *Classifier) separator() string {
	if c.Separator == "" {
		return DefaultSeparator
	}
	return c.Separator
}

// Strip removes every occurrence of cls's prefix and the separator from
// label, ignoring case.
func (c *Classifier) Strip(label string, cls Classification) string {
	return replaceFold(label, cls.Prefix+c.separator(), "")
}

// indexFold returns the byte index of the first case-insensitive occurrence
// of sub in s, or -1.
func indexFold(s, sub string) int {
	if sub == "" {
		return 0
	}
	n := len(sub)
	for i := 0; i+n <= len(s); i++ {
		if strings.EqualFold(s[i:i+n], sub) {
			return i
		}
	}
	return -1
}

func replaceFold(s, old, repl string) string {
	if old == "" {
		return s
	}
	var b strings.Builder
	for {
		idx := indexFold(s, old)
		if idx < 0 {
			b.WriteString(s)
			return b.String()
		}
		b.WriteString(s[:idx])
		b.WriteString(repl)
		s = s[idx+len(old):]
	}
}
