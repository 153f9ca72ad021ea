// Package manifest records the source→output mapping the build pipeline
// produces for bundled assets, and answers the "is this change batch
// asset-only" question the dev loop uses to pick the minimum rebuild.
//
// Grounded on erlorenz-go-toolbox/assetmgr's Manager: a flat asset list kept
// in memory, indexed by logical identity for O(1) lookup, rebuilt wholesale
// on every full build.
package manifest

// TransformOptions carries the per-asset transform configuration recorded at
// extraction time (compression, inlining, format hints — opaque to the
// manifest itself).
type TransformOptions map[string]string

// Asset is one entry in the manifest: a source file on disk and the path
// under AssetsDir its transformed copy is written to.
type Asset struct {
	SourcePath string
	OutputPath string
	Options    TransformOptions
}

// Manifest is the ground truth asset list used for incremental rebuilds.
type Manifest struct {
	assets   []Asset
	bySource map[string]int
}

// New builds a Manifest from a freshly extracted asset list.
func New(assets []Asset) *Manifest {
	m := &Manifest{}
	m.Replace(assets)
	return m
}

// Replace swaps in a new asset list wholesale, as happens after a full
// rebuild re-extracts assets from the compiled binary.
func (m *Manifest) Replace(assets []Asset) {
	m.assets = assets
	m.bySource = make(map[string]int, len(assets))
	for i, a := range assets {
		m.bySource[a.SourcePath] = i
	}
}

// Assets returns the current asset list. Callers must not mutate it.
func (m *Manifest) Assets() []Asset {
	return m.assets
}

// Sources returns every asset source path, for the watcher to track.
func (m *Manifest) Sources() []string {
	out := make([]string, len(m.assets))
	for i, a := range m.assets {
		out[i] = a.SourcePath
	}
	return out
}

// AssetSubset returns the subset of assets whose SourcePath is in paths, and
// true, only if every path in paths is a known asset source. If any input
// path is not an asset source, it returns (nil, false): this is the
// all-or-nothing rule the dev loop uses to classify a change batch as
// "asset-only" versus "needs a full rebuild".
func (m *Manifest) AssetSubset(paths []string) ([]Asset, bool) {
	if len(paths) == 0 {
		return nil, false
	}
	subset := make([]Asset, 0, len(paths))
	for _, p := range paths {
		idx, ok := m.bySource[p]
		if !ok {
			return nil, false
		}
		subset = append(subset, m.assets[idx])
	}
	return subset, true
}
