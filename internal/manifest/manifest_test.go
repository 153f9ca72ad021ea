package manifest

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func sampleAssets() []Asset {
	return []Asset{
		{SourcePath: "/proj/assets/a.png", OutputPath: "assets/a.png"},
		{SourcePath: "/proj/assets/b.png", OutputPath: "assets/b.png"},
	}
}

func TestAssetSubsetAllKnown(t *testing.T) {
	m := New(sampleAssets())
	subset, ok := m.AssetSubset([]string{"/proj/assets/a.png"})
	assert.True(t, ok)
	assert.Len(t, subset, 1)
	assert.Equal(t, "assets/a.png", subset[0].OutputPath)
}

func TestAssetSubsetUnknownPathIsNone(t *testing.T) {
	m := New(sampleAssets())
	_, ok := m.AssetSubset([]string{"/proj/assets/a.png", "/proj/src/main.rs"})
	assert.False(t, ok)
}

func TestAssetSubsetEmptyInputIsNone(t *testing.T) {
	m := New(sampleAssets())
	_, ok := m.AssetSubset(nil)
	assert.False(t, ok)
}

func TestReplaceResetsIndex(t *testing.T) {
	m := New(sampleAssets())
	m.Replace([]Asset{{SourcePath: "/proj/assets/c.png", OutputPath: "assets/c.png"}})
	_, ok := m.AssetSubset([]string{"/proj/assets/a.png"})
	assert.False(t, ok)
	subset, ok := m.AssetSubset([]string{"/proj/assets/c.png"})
	assert.True(t, ok)
	assert.Len(t, subset, 1)
}

func TestSources(t *testing.T) {
	m := New(sampleAssets())
	assert.ElementsMatch(t, []string{"/proj/assets/a.png", "/proj/assets/b.png"}, m.Sources())
}
