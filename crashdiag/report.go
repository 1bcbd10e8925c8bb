package crashdiag

import (
	"sensornode-go/types"
)

// Report is the stable crash-report schema. External tooling parses these
// field names; do not rename.
type Report struct {
	CrashCount      uint32 `json:"crash_count"`
	BootCount       uint32 `json:"boot_count"`
	ResetReason     string `json:"reset_reason"`
	LastFunction    string `json:"last_function"`
	FreeHeapAtCrash uint32 `json:"free_heap_at_crash"`
	MinFreeHeap     uint32 `json:"min_free_heap"`
}

// FormatReport produces the diagnostic report. When the persisted record is
// untrusted the crash-specific fields are empty and only the retained
// counters are reported — the absence of crash info is not an error.
func (d *Diagnostics) FormatReport() Report {
	f := d.store.Fields()
	rep := Report{
		CrashCount:  f.CrashCount,
		BootCount:   f.BootCount,
		ResetReason: types.ResetReason(f.LastResetReason).String(),
	}
	if !d.Validate() {
		return rep
	}
	rep.LastFunction = cstr(d.rec.LastFunction[:])
	rep.FreeHeapAtCrash = d.rec.FreeHeap
	rep.MinFreeHeap = d.rec.MinFreeHeap
	return rep
}

// cstr trims a fixed-width name field at the first NUL.
func cstr(b []byte) string {
	for i, c := range b {
		if c == 0 {
			return string(b[:i])
		}
	}
	return string(b)
}
