package version

import (
	"fmt"
	"runtime/debug"
	"strconv"
	"strings"

	"github.com/Masterminds/semver/v3"

	"github.com/lanceccraig/Tooling.DevOps/errs"
)

// BinaryStrategy reads the main module version embedded by the Go toolchain.
//
// The result is major.minor.revision, where revision is the trailing numeric
// pre-release identifier (0 when absent). The patch number is not used.
type BinaryStrategy struct {
	readBuildInfo func() (*debug.BuildInfo, bool)
}

// NewBinaryStrategy creates a BinaryStrategy over debug.ReadBuildInfo.
func NewBinaryStrategy() *BinaryStrategy {
	return &BinaryStrategy{readBuildInfo: debug.ReadBuildInfo}
}

// Kind implements Strategy.
func (s *BinaryStrategy) Kind() Kind {
	return KindBinary
}

// Resolve implements Strategy.
func (s *BinaryStrategy) Resolve() (string, error) {
	info, ok := s.readBuildInfo()
	if !ok || info == nil {
		return "", errs.NotFound("binary has no embedded build information")
	}

	raw := info.Main.Version
	if raw == "" || raw == "(devel)" {
		return "", errs.NotFound("binary has no embedded version")
	}

	v, err := semver.NewVersion(raw)
	if err != nil {
		return "", errs.Wrap(errs.CodeInvalidConfig, "parse binary version", err)
	}
	return fmt.Sprintf("%d.%d.%d", v.Major(), v.Minor(), revision(v)), nil
}

// revision returns the last dot-separated pre-release identifier when it is
// numeric.
func revision(v *semver.Version) uint64 {
	pre := v.Prerelease()
	if pre == "" {
		return 0
	}
	fields := strings.Split(pre, ".")
	n, err := strconv.ParseUint(fields[len(fields)-1], 10, 64)
	if err != nil {
		return 0
	}
	return n
}
