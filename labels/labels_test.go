package labels

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lanceccraig/Tooling.DevOps/errs"
)

func TestClassify(t *testing.T) {
	tests := []struct {
		name      string
		label     string
		strict    bool
		wantClass Classification
		wantRest  string
	}{
		{name: "no separator", label: "good first issue", strict: true, wantClass: Miscellaneous, wantRest: "good first issue"},
		{name: "type prefix", label: "type: Bug", strict: true, wantClass: Type, wantRest: "Bug"},
		{name: "prefix case insensitive", label: "RES: Completed", strict: true, wantClass: Resolution, wantRest: "Completed"},
		{name: "first separator wins", label: "area: cli: flags", strict: true, wantClass: Area, wantRest: "cli: flags"},
		{name: "unknown prefix tolerated keeps text", label: "team: infra", strict: false, wantClass: Miscellaneous, wantRest: "team: infra"},
		{name: "colon without space", label: "type:Bug", strict: true, wantClass: Miscellaneous, wantRest: "type:Bug"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := NewClassifier()
			c.Strict = tt.strict

			cls, rest, err := c.Classify(tt.label)
			require.NoError(t, err)
			assert.Equal(t, tt.wantClass, cls)
			assert.Equal(t, tt.wantRest, rest)
		})
	}
}

func TestClassifyUnknownPrefixStrict(t *testing.T) {
	c := NewClassifier()

	_, _, err := c.Classify("team: infra")
	require.Error(t, err)

	var unknown *UnknownPrefixError
	require.ErrorAs(t, err, &unknown)
	assert.Equal(t, "team", unknown.Prefix)
	assert.True(t, errs.IsInvalidConfig(err))
}

func TestClassifyEmptyLabel(t *testing.T) {
	_, _, err := NewClassifier().Classify("")
	require.Error(t, err)
	assert.True(t, errs.IsInvalidInput(err))
}

func TestClassifyCustomSeparator(t *testing.T) {
	c := NewClassifier()
	c.Separator = " / "

	cls, rest, err := c.Classify("Type / Feature")
	require.NoError(t, err)
	assert.Equal(t, Type, cls)
	assert.Equal(t, "Feature", rest)
}

func TestRegistryFirstMatchWins(t *testing.T) {
	first := Classification{Name: "Kind", Prefix: "type"}
	r := NewRegistry(first, Type)

	cls, ok := r.ByPrefix("TYPE")
	require.True(t, ok)
	assert.Equal(t, first, cls)

	_, ok = r.ByPrefix("missing")
	assert.False(t, ok)
}

func TestRegistryIsSnapshot(t *testing.T) {
	items := []Classification{Area}
	r := NewRegistry(items...)
	items[0] = Size

	assert.Equal(t, []Classification{Area}, r.All())
}

func TestStrip(t *testing.T) {
	c := NewClassifier()
	assert.Equal(t, "Completed", c.Strip("Res: Completed", Resolution))
	assert.Equal(t, "Tech Debt", c.Strip("type: Tech Debt", Type))
	assert.Equal(t, "Bug", c.Strip("Bug", Type))
}
