// Package manifest reports a completed render as a JSON document written
// next to the image output: the scene inputs and output resolution, the
// KD-tree's shape, worker/timing stats, and a perceptual fingerprint of
// the result for quick before/after comparison.
package manifest

// SupportedManifestVersion is the manifest schema this build writes and
// understands; bumped whenever a field's meaning changes incompatibly.
const SupportedManifestVersion = 1

// Manifest is the top-level report of one render invocation.
type Manifest struct {
	Version     int        `json:"version"`
	GeneratedAt string     `json:"generated_at"`
	Scene       SceneInfo  `json:"scene"`
	Render      RenderInfo `json:"render"`
	KDTree      KDTreeInfo `json:"kd_tree"`
	Fingerprint string     `json:"fingerprint,omitempty"`
}

// SceneInfo records the inputs that produced this render.
type SceneInfo struct {
	ConfigPath string `json:"config_path"`
	MeshPath   string `json:"mesh_path"`
	OutputPath string `json:"output_path"`
	OutputHash string `json:"output_hash,omitempty"`
	Width      int    `json:"width"`
	Height     int    `json:"height"`
	TriCount   int    `json:"tri_count"`
	LightCount int    `json:"light_count"`
}

// RenderInfo records the parameters and outcome of the integrator run.
type RenderInfo struct {
	NSamples    int     `json:"n_samples"`
	RecLvl      int     `json:"rec_lvl"`
	Workers     int     `json:"workers"`
	Profile     string  `json:"profile,omitempty"`
	ElapsedSecs float64 `json:"elapsed_secs"`
}

// KDTreeInfo records the built tree's shape, surfaced so a regression in
// build quality (deeper tree, fatter leaves) is visible without re-running
// a profiler.
type KDTreeInfo struct {
	NodeCount    int     `json:"node_count"`
	LeafCount    int     `json:"leaf_count"`
	MaxDepth     int     `json:"max_depth"`
	MeanLeafTris float64 `json:"mean_leaf_tris"`
}
