// Package profile defines named render-quality presets bundling a sample
// count and a recursion-depth cap, so the CLI can offer a quick "draft"
// or "preview" render without requiring every flag to be spelled out.
package profile

// Profile bundles the integrator parameters a named quality preset
// supplies as defaults.
type Profile struct {
	Name string

	// NSamples is the per-pixel sample count this profile requests.
	NSamples int

	// MaxRecLvl caps the recursion depth below the scene config's own
	// value; 0 means no cap (use the config's RecLvl unmodified).
	MaxRecLvl int
}

// Built-in profiles.
var profiles = map[string]Profile{
	"draft": {
		Name:     "draft",
		NSamples: 64,
		// recursion depth is left at the scene config's own value
	},
	"preview": {
		Name:      "preview",
		NSamples:  16,
		MaxRecLvl: 2,
	},
	"final": {
		Name:     "final",
		NSamples: 0, // 0 defers to the scene config's own values
	},
}

// Get returns a profile by name, falling back to "final" (a pass-through
// of the scene config's own parameters) for an unknown name.
func Get(name string) Profile {
	if p, ok := profiles[name]; ok {
		return p
	}
	p := profiles["final"]
	p.Name = name
	return p
}

// ResolveSamples returns the sample count to render with: the profile's
// own count if it supplies one, else configSamples.
func (p Profile) ResolveSamples(configSamples int) int {
	if p.NSamples > 0 {
		return p.NSamples
	}
	return configSamples
}

// ResolveRecLvl returns the recursion depth to render with: the smaller
// of the profile's cap and configRecLvl, or configRecLvl unmodified if
// the profile doesn't cap it.
func (p Profile) ResolveRecLvl(configRecLvl int) int {
	if p.MaxRecLvl > 0 && p.MaxRecLvl < configRecLvl {
		return p.MaxRecLvl
	}
	return configRecLvl
}
