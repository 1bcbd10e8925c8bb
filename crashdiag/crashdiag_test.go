// crashdiag/crashdiag_test.go
package crashdiag

import (
	"testing"

	"sensornode-go/platform"
	"sensornode-go/retain"
	"sensornode-go/types"
)

func newDiag() (*Diagnostics, *retain.Store, *platform.SimRetention) {
	region := platform.NewSimRetention(RegionSize)
	store := retain.New(platform.NewSimRetention(retain.RegionSize))
	d := New(region, nil, store, LoopConfig{})
	return d, store, region
}

func TestClassify(t *testing.T) {
	cases := []struct {
		reason types.ResetReason
		want   BootClass
	}{
		{types.ResetPowerOn, BootPowerOn},
		{types.ResetWatchdog, BootCrash},
		{types.ResetPanic, BootCrash},
		{types.ResetBrownout, BootCrash},
		{types.ResetDeepSleep, BootNormal},
		{types.ResetSoftware, BootNormal},
		{types.ResetExternal, BootNormal},
		{types.ResetUnknown, BootUnknown},
	}
	for _, c := range cases {
		if got := classify(c.reason); got != c.want {
			t.Errorf("classify(%v) = %v, want %v", c.reason, got, c.want)
		}
	}
}

func TestCountersAcrossBoots(t *testing.T) {
	d, store, _ := newDiag()

	d.ClassifyBoot(types.ResetDeepSleep, 1000)
	d.ClassifyBoot(types.ResetWatchdog, 2000)
	d.ClassifyBoot(types.ResetDeepSleep, 3000)

	f := store.Fields()
	if f.BootCount != 3 {
		t.Errorf("BootCount = %d, want 3", f.BootCount)
	}
	if f.CrashCount != 1 {
		t.Errorf("CrashCount = %d, want 1", f.CrashCount)
	}
	if f.LastBootTimestamp != 3000 {
		t.Errorf("LastBootTimestamp = %d, want 3000", f.LastBootTimestamp)
	}
}

func TestPowerOnResetsEverything(t *testing.T) {
	d, store, _ := newDiag()
	d.ClassifyBoot(types.ResetWatchdog, 1000)
	store.Fields().LastInsideTemp = 21.0

	if got := d.ClassifyBoot(types.ResetPowerOn, 2000); got != BootPowerOn {
		t.Fatalf("class = %v, want BootPowerOn", got)
	}

	f := store.Fields()
	if f.BootCount != 0 || f.CrashCount != 0 {
		t.Errorf("counters = %d/%d, want 0/0", f.BootCount, f.CrashCount)
	}
	if !retain.IsUnset(f.LastInsideTemp) {
		t.Errorf("LastInsideTemp = %v, want sentinel", f.LastInsideTemp)
	}
	if d.Validate() {
		t.Error("crash record still valid after power-on reset")
	}
}

func TestRapidResetLoop(t *testing.T) {
	// Three crashes inside a 10 second window trips the detector.
	d, _, _ := newDiag()
	d.ClassifyBoot(types.ResetPanic, 1000)
	d.ClassifyBoot(types.ResetPanic, 1005)
	d.ClassifyBoot(types.ResetPanic, 1010)
	if !d.IsRapidResetLoop(1010) {
		t.Error("3 crashes in 10s: want rapid-reset loop")
	}

	// The same three crashes spread across 60 seconds do not.
	d2, _, _ := newDiag()
	d2.ClassifyBoot(types.ResetPanic, 1000)
	d2.ClassifyBoot(types.ResetPanic, 1030)
	d2.ClassifyBoot(types.ResetPanic, 1060)
	if d2.IsRapidResetLoop(1060) {
		t.Error("3 crashes across 60s: want no rapid-reset loop")
	}
}

func TestRapidResetNeedsThreeCrashes(t *testing.T) {
	d, _, _ := newDiag()
	d.ClassifyBoot(types.ResetPanic, 1000)
	d.ClassifyBoot(types.ResetPanic, 1001)
	if d.IsRapidResetLoop(1001) {
		t.Error("2 crashes must not trip the detector")
	}
}

func TestValidateRejectsAnyBitFlip(t *testing.T) {
	d, store, region := newDiag()
	d.ClassifyBoot(types.ResetWatchdog, 1000)
	d.RecordCrashContext("netpub.connect")
	if !d.Validate() {
		t.Fatal("freshly persisted record should validate")
	}

	// Flip every bit of the record body in turn; each flip must invalidate.
	for byteIdx := 0; byteIdx < bodyLen+4; byteIdx++ {
		for bit := uint(0); bit < 8; bit++ {
			region.Corrupt(byteIdx, bit)

			d2 := New(region, nil, store, LoopConfig{})
			d2.ClassifyBoot(types.ResetDeepSleep, 2000)
			if d2.Validate() {
				t.Fatalf("bit flip at byte %d bit %d not detected", byteIdx, bit)
			}

			region.Corrupt(byteIdx, bit) // restore
		}
	}
}

func TestBreadcrumbSurvivesReload(t *testing.T) {
	d, store, region := newDiag()
	d.ClassifyBoot(types.ResetDeepSleep, 1000)
	d.RecordCrashContext("display.render")

	d2 := New(region, nil, store, LoopConfig{})
	d2.ClassifyBoot(types.ResetWatchdog, 1500)
	if !d2.Validate() {
		t.Fatal("record should validate on reload")
	}
	rep := d2.FormatReport()
	if rep.LastFunction != "display.render" {
		t.Errorf("LastFunction = %q, want %q", rep.LastFunction, "display.render")
	}
	if rep.CrashCount != 1 {
		t.Errorf("CrashCount = %d, want 1", rep.CrashCount)
	}
	if rep.ResetReason != "watchdog" {
		t.Errorf("ResetReason = %q, want watchdog", rep.ResetReason)
	}
}

func TestUntrustedRecordReportsCountersOnly(t *testing.T) {
	d, _, _ := newDiag()
	d.ClassifyBoot(types.ResetWatchdog, 1000)
	d.ClearRecord()

	rep := d.FormatReport()
	if rep.LastFunction != "" || rep.FreeHeapAtCrash != 0 {
		t.Errorf("untrusted record leaked crash fields: %+v", rep)
	}
	if rep.CrashCount != 1 {
		t.Errorf("CrashCount = %d, want 1 (retained counter)", rep.CrashCount)
	}
}
