// retain/retain_test.go
package retain

import (
	"testing"

	"sensornode-go/platform"
)

func TestPersistLoadRoundTrip(t *testing.T) {
	region := platform.NewSimRetention(RegionSize)
	s := New(region)

	f := s.Fields()
	f.WakeCount = 41
	f.PartialUpdateCounter = 7
	f.LastInsideTemp = 21.5
	f.LastInsideHumidity = 48.0
	f.LastOutsideTemp = -3.25
	f.LastOutsideHumidity = 80.5
	f.LastIconID = 4
	f.LastStatusFingerprint = 0xDEADBEEF
	f.LastWeatherFingerprint = 0x1234
	f.LastPublishedTemp = 21.4
	f.LastPublishedHumidity = 47.9
	f.LastPublishedPressure = 1013.2
	f.RenderModeFullOnly = true
	f.NeedsFullRefreshOnBoot = false
	f.BootCount = 100
	f.CrashCount = 2
	f.CumulativeUptimeSec = 86400
	f.LastBootTimestamp = 1700000000
	f.LastResetReason = 7
	s.Persist()

	// Fresh store over the same region simulates the next wake.
	s2 := New(region)
	if !s2.Load() {
		t.Fatal("Load failed on a freshly persisted region")
	}
	if *s2.Fields() != *f {
		t.Errorf("round trip mismatch:\n got %+v\nwant %+v", *s2.Fields(), *f)
	}
}

func TestEveryFieldSurvivesSleep(t *testing.T) {
	region := platform.NewSimRetention(RegionSize)

	// Several cycles, no power loss: last written value always survives.
	for i := uint32(1); i <= 5; i++ {
		s := New(region)
		if i > 1 && !s.Load() {
			t.Fatalf("cycle %d: Load failed", i)
		}
		if i > 1 && s.Fields().WakeCount != i-1 {
			t.Fatalf("cycle %d: WakeCount = %d, want %d", i, s.Fields().WakeCount, i-1)
		}
		s.Fields().WakeCount = i
		s.Fields().LastInsideTemp = float32(i) * 1.5
		s.Persist()
	}
}

func TestPowerLossResetsToSentinels(t *testing.T) {
	region := platform.NewSimRetention(RegionSize)
	s := New(region)
	s.Fields().WakeCount = 99
	s.Fields().LastInsideTemp = 22.0
	s.Fields().LastIconID = 3
	s.Persist()

	region.PowerLoss()

	s2 := New(region)
	if s2.Load() {
		t.Error("Load returned true after power loss")
	}
	f := s2.Fields()
	if f.WakeCount != 0 {
		t.Errorf("WakeCount = %d, want 0", f.WakeCount)
	}
	if !IsUnset(f.LastInsideTemp) {
		t.Errorf("LastInsideTemp = %v, want sentinel", f.LastInsideTemp)
	}
	if f.LastIconID != UnsetIcon {
		t.Errorf("LastIconID = %#x, want %#x", f.LastIconID, UnsetIcon)
	}
	if f.LastResetReason != UnsetReason {
		t.Errorf("LastResetReason = %#x, want %#x", f.LastResetReason, UnsetReason)
	}
	if !f.NeedsFullRefreshOnBoot {
		t.Error("NeedsFullRefreshOnBoot should default to true")
	}
}

func TestCorruptRegionReadsAsDefaults(t *testing.T) {
	region := platform.NewSimRetention(RegionSize)
	s := New(region)
	s.Fields().WakeCount = 5
	s.Persist()

	region.Corrupt(9, 2)

	s2 := New(region)
	if s2.Load() {
		t.Error("Load accepted a corrupted region")
	}
	if s2.Fields().WakeCount != 0 {
		t.Errorf("WakeCount = %d after corruption, want 0", s2.Fields().WakeCount)
	}
}

func TestBackfillOnlyFillsSentinels(t *testing.T) {
	d := platform.NewMemDurable()
	d.SetFloat("last_inside_temp", 19.5)
	d.SetFloat("last_outside_temp", -1.0)
	d.SetUint8("last_icon_id", 2)
	d.SetUint32("boot_count", 77)

	region := platform.NewSimRetention(RegionSize)
	s := New(region)
	s.Fields().LastInsideTemp = 23.0 // fresher than the durable copy

	s.BackfillFromDurable(d)

	f := s.Fields()
	if f.LastInsideTemp != 23.0 {
		t.Errorf("backfill overwrote fresh value: %v", f.LastInsideTemp)
	}
	if f.LastOutsideTemp != -1.0 {
		t.Errorf("LastOutsideTemp = %v, want backfilled -1.0", f.LastOutsideTemp)
	}
	if f.LastIconID != 2 {
		t.Errorf("LastIconID = %d, want 2", f.LastIconID)
	}
	if f.BootCount != 77 {
		t.Errorf("BootCount = %d, want 77", f.BootCount)
	}
	// Keys never written stay at sentinel.
	if !IsUnset(f.LastPublishedTemp) {
		t.Errorf("LastPublishedTemp = %v, want sentinel", f.LastPublishedTemp)
	}
}

func TestPersistDurableRoundTrip(t *testing.T) {
	d := platform.NewMemDurable()

	region := platform.NewSimRetention(RegionSize)
	s := New(region)
	s.Fields().LastInsideTemp = 20.25
	s.Fields().LastIconID = 9
	s.Fields().BootCount = 12
	if err := s.PersistDurable(d); err != nil {
		t.Fatalf("PersistDurable: %v", err)
	}

	s2 := New(platform.NewSimRetention(RegionSize))
	s2.BackfillFromDurable(d)
	if s2.Fields().LastInsideTemp != 20.25 {
		t.Errorf("LastInsideTemp = %v, want 20.25", s2.Fields().LastInsideTemp)
	}
	if s2.Fields().LastIconID != 9 {
		t.Errorf("LastIconID = %d, want 9", s2.Fields().LastIconID)
	}
	if s2.Fields().BootCount != 12 {
		t.Errorf("BootCount = %d, want 12", s2.Fields().BootCount)
	}
}
