package bufpool

// ClassStats is the per-class slice of the stable diagnostics schema.
type ClassStats struct {
	Acquired uint32 `json:"acquired"`
	Released uint32 `json:"released"`
	InUse    uint32 `json:"in_use"`
}

// Stats is the stable pool diagnostics schema. External tooling parses these
// field names; do not rename.
type Stats struct {
	Small           ClassStats `json:"small"`
	Medium          ClassStats `json:"medium"`
	Large           ClassStats `json:"large"`
	Failures        uint32     `json:"failures"`
	InvalidReleases uint32     `json:"invalid_releases"`
}

func (p *Pool) Stats() Stats {
	cs := func(c Class) ClassStats {
		cl := &p.classes[c]
		return ClassStats{
			Acquired: cl.acquired,
			Released: cl.released,
			InUse:    uint32(p.InUse(c)),
		}
	}
	return Stats{
		Small:           cs(Small),
		Medium:          cs(Medium),
		Large:           cs(Large),
		Failures:        p.failures,
		InvalidReleases: p.invalidReleases,
	}
}
