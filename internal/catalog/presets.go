package catalog

import "strings"

// StylePreset is a named pair of expressiveness parameters for a generation.
type StylePreset struct {
	Key          string  `json:"key"`
	Label        string  `json:"label"`
	Exaggeration float64 `json:"exaggeration"`
	CFGWeight    float64 `json:"cfg_weight"`
}

const DefaultPreset = "normal"

var presets = []StylePreset{
	{Key: "calm", Label: "Calm / News", Exaggeration: 0.3, CFGWeight: 0.5},
	{Key: "normal", Label: "Normal", Exaggeration: 0.5, CFGWeight: 0.5},
	{Key: "friendly", Label: "Friendly / Lively", Exaggeration: 0.7, CFGWeight: 0.3},
	{Key: "dramatic", Label: "Dramatic", Exaggeration: 0.8, CFGWeight: 0.3},
	{Key: "narration", Label: "Slow Narration", Exaggeration: 0.4, CFGWeight: 0.2},
}

func StylePresets() []StylePreset {
	return append([]StylePreset(nil), presets...)
}

func LookupPreset(key string) (StylePreset, bool) {
	key = strings.ToLower(strings.TrimSpace(key))
	for _, p := range presets {
		if p.Key == key {
			return p, true
		}
	}
	return StylePreset{}, false
}
