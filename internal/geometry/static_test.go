package geometry

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleElements() []Element {
	return []Element{
		{Label: 700000010, ID: 302056452, Type: "TPBHalfBarrel", Attributes: Attributes{HalfBarrel: 1}},
		{Label: 700000020, ID: 302056453, Type: "TPBLadder", Attributes: Attributes{Layer: 2, HalfBarrel: 2, Ladder: 7}},
		{Label: 700000030, ID: 352588804, Type: "TPEPanel", Attributes: Attributes{Endcap: 1, HalfDisk: 2, HalfCylinder: 1, Blade: 4, Panel: 2}},
	}
}

func TestStaticLookup(t *testing.T) {
	s, err := NewStatic(sampleElements())
	require.NoError(t, err)
	assert.Equal(t, 3, s.Len())

	ctx := context.Background()
	a, ok, err := s.AlignableFromLabel(ctx, 700000024)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, Alignable{ID: 302056453, Type: TPBLadder}, a)

	attrs, err := s.Resolve(ctx, a.ID)
	require.NoError(t, err)
	assert.Equal(t, 7, attrs.Ladder)
	assert.Equal(t, 2, attrs.Layer)

	_, ok, err = s.AlignableFromLabel(ctx, 123)
	require.NoError(t, err)
	assert.False(t, ok)

	_, err = s.Resolve(ctx, 1)
	assert.ErrorIs(t, err, ErrUnknownElement)
}

func TestNewStaticRejectsBadTables(t *testing.T) {
	t.Run("label not on stride", func(t *testing.T) {
		_, err := NewStatic([]Element{{Label: 11, ID: 1, Type: "TPBLadder"}})
		assert.Error(t, err)
	})
	t.Run("unknown type", func(t *testing.T) {
		_, err := NewStatic([]Element{{Label: 10, ID: 1, Type: "Wheel"}})
		assert.Error(t, err)
	})
	t.Run("duplicate label", func(t *testing.T) {
		_, err := NewStatic([]Element{
			{Label: 10, ID: 1, Type: "TPBLadder"},
			{Label: 10, ID: 2, Type: "TPBLadder"},
		})
		assert.Error(t, err)
	})
	t.Run("conflicting numbering for shared id", func(t *testing.T) {
		_, err := NewStatic([]Element{
			{Label: 10, ID: 1, Type: "TPBHalfBarrel", Attributes: Attributes{HalfBarrel: 1}},
			{Label: 20, ID: 1, Type: "TPBLadder", Attributes: Attributes{HalfBarrel: 2}},
		})
		assert.Error(t, err)
	})
}

func TestLoadStatic(t *testing.T) {
	path := filepath.Join(t.TempDir(), "geometry.yaml")
	content := `elements:
  - label: 10
    id: 100
    type: TPEHalfCylinder
    endcap: 2
    half_cylinder: 1
  - label: 20
    id: 200
    type: TPEPanel
    endcap: 1
    half_disk: 3
    half_cylinder: 2
    blade: 28
    panel: 1
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))

	s, err := LoadStatic(path)
	require.NoError(t, err)

	attrs, err := s.Resolve(context.Background(), 200)
	require.NoError(t, err)
	assert.Equal(t, Attributes{Endcap: 1, HalfDisk: 3, HalfCylinder: 2, Blade: 28, Panel: 1}, attrs)

	_, err = LoadStatic(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}

func TestStructureTypeRoundTrip(t *testing.T) {
	for typ, name := range structureNames {
		parsed, err := ParseStructureType(name)
		require.NoError(t, err)
		assert.Equal(t, typ, parsed)
		assert.Equal(t, name, typ.String())
	}
	assert.Equal(t, "StructureType(42)", StructureType(42).String())
}

func TestLoadShippedTable(t *testing.T) {
	s, err := LoadStatic(filepath.Join("..", "..", "configs", "geometry.yaml"))
	require.NoError(t, err)
	assert.Equal(t, 12, s.Len())

	a, ok, err := s.AlignableFromLabel(context.Background(), 2016)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, TPEPanel, a.Type)

	attrs, err := s.Resolve(context.Background(), a.ID)
	require.NoError(t, err)
	assert.Equal(t, 28, attrs.Blade)
}
