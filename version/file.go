package version

import (
	"bytes"
	"encoding/xml"
	"strings"

	"github.com/lanceccraig/Tooling.DevOps/errs"
)

// DefaultPropsFile is the MSBuild file holding the shared version.
const DefaultPropsFile = "Directory.Build.props"

// FileReader reads repository-relative files.
type FileReader interface {
	Exists(rel string) (bool, error)
	ReadFile(rel string) ([]byte, error)
}

// FileStrategy reads <Version> from the first <PropertyGroup> that has one.
type FileStrategy struct {
	files FileReader
	path  string
}

// NewFileStrategy creates a FileStrategy reading path, or DefaultPropsFile
// when path is empty.
func NewFileStrategy(files FileReader, path string) *FileStrategy {
	if path == "" {
		path = DefaultPropsFile
	}
	return &FileStrategy{files: files, path: path}
}

// Kind implements Strategy.
func (s *FileStrategy) Kind() Kind {
	return KindFile
}

// Resolve implements Strategy.
func (s *FileStrategy) Resolve() (string, error) {
	ok, err := s.files.Exists(s.path)
	if err != nil {
		return "", err
	}
	if !ok {
		return "", errs.NotFound("%s was not found", s.path)
	}

	data, err := s.files.ReadFile(s.path)
	if err != nil {
		return "", err
	}

	var root xmlNode
	if err := xml.NewDecoder(bytes.NewReader(data)).Decode(&root); err != nil {
		return "", errs.Wrap(errs.CodeInvalidConfig, "parse "+s.path, err)
	}

	if v, ok := findVersion(root.Nodes); ok {
		return v, nil
	}
	return "", errs.NotFound("%s has no Version element in any PropertyGroup", s.path)
}

type xmlNode struct {
	XMLName xml.Name
	Content string    `xml:",chardata"`
	Nodes   []xmlNode `xml:",any"`
}

// findVersion walks nodes in document order and returns the Version child of
// the first PropertyGroup that has one.
func findVersion(nodes []xmlNode) (string, bool) {
	for _, n := range nodes {
		if n.XMLName.Local == "PropertyGroup" {
			for _, child := range n.Nodes {
				if child.XMLName.Local == "Version" {
					return strings.TrimSpace(child.Content), true
				}
			}
		}
		if v, ok := findVersion(n.Nodes); ok {
			return v, true
		}
	}
	return "", false
}
