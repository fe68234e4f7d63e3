package legend

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"
)

const igbpLegend = `  IGBP Land Cover Legend
Value  Description
-----  -----------

1 Evergreen Needleleaf Forest
2 Evergreen Broadleaf Forest
14 Cropland/Natural Vegetation Mosaic
17 Water Bodies
`

func TestParse(t *testing.T) {
	name, classes, err := Parse(strings.NewReader(igbpLegend))
	require.NoError(t, err)
	assert.Equal(t, "IGBP Land Cover Legend", name)

	want := map[int]string{
		1:  "Evergreen Needleleaf Forest",
		2:  "Evergreen Broadleaf Forest",
		14: "Cropland/Natural Vegetation Mosaic",
		17: "Water Bodies",
	}
	if diff := cmp.Diff(want, classes); diff != "" {
		t.Errorf("Parse classes mismatch (-want +got):\n%s", diff)
	}

	// One entry per line after the header.
	lines := strings.Split(strings.TrimRight(igbpLegend, "\n"), "\n")
	assert.Len(t, classes, len(lines)-headerLines)
}

func TestParseErrors(t *testing.T) {
	tests := []struct {
		name  string
		input string
	}{
		{"no space", "title\na\nb\nc\n12\n"},
		{"bad code", "title\na\nb\nc\nX1 Urban\n"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			_, _, err := Parse(strings.NewReader(tc.input))
			require.Error(t, err)
			assert.ErrorIs(t, err, ErrMalformed)
			assert.Contains(t, err.Error(), "line 5")
		})
	}
}

func TestParseHeaderOnly(t *testing.T) {
	name, classes, err := Parse(strings.NewReader("Only a title\n"))
	require.NoError(t, err)
	assert.Equal(t, "Only a title", name)
	assert.Empty(t, classes)
}

func TestParseFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "igbp2_0l.txt")
	require.NoError(t, os.WriteFile(path, []byte(igbpLegend), 0o644))

	l, err := ParseFile(path)
	require.NoError(t, err)
	assert.Equal(t, []int{1, 2, 14, 17}, l.Codes())
	class, ok := l.Lookup(17)
	assert.True(t, ok)
	assert.Equal(t, "Water Bodies", class)

	_, err = ParseFile(filepath.Join(t.TempDir(), "missing.txt"))
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestOlsonGlobalEcosystem(t *testing.T) {
	l := OlsonGlobalEcosystem
	assert.Equal(t, 98, l.Len())

	codes, names := l.Codes(), l.Names()
	require.Len(t, names, len(codes))
	assert.Equal(t, 0, codes[0])
	assert.Equal(t, NoData, codes[len(codes)-1])
	assert.Equal(t, "NO DATA", names[len(names)-1])
	assert.Equal(t, "SEA WATER", names[15])

	_, ok := l.Lookup(97)
	assert.False(t, ok)

	// Callers get copies.
	codes[0] = 42
	m := l.Map()
	m[0] = "changed"
	assert.Equal(t, 0, l.Codes()[0])
	class, _ := l.Lookup(0)
	assert.NotEqual(t, "changed", class)
}

func TestYAMLRoundTrip(t *testing.T) {
	out, err := yaml.Marshal(New("test", map[int]string{2: "B", 1: "A"}))
	require.NoError(t, err)
	assert.Equal(t, "name: test\nclasses:\n    1: A\n    2: B\n", string(out))

	var back Legend
	require.NoError(t, yaml.Unmarshal(out, &back))
	assert.Equal(t, []int{1, 2}, back.Codes())
	assert.Equal(t, "test", back.Name)
}
