package retain

import "sensornode-go/platform"

// Durable cache keys, one per backfillable field. Names are stable; external
// tooling reads the same store.
const (
	keyInsideTemp  = "last_inside_temp"
	keyInsideHum   = "last_inside_humidity"
	keyOutsideTemp = "last_outside_temp"
	keyOutsideHum  = "last_outside_humidity"
	keyIconID      = "last_icon_id"
	keyStatusFP    = "last_status_fingerprint"
	keyWeatherFP   = "last_weather_fingerprint"
	keyPubTemp     = "last_published_temp"
	keyPubHum      = "last_published_humidity"
	keyPubPressure = "last_published_pressure"
	keyBootCount   = "boot_count"
	keyCrashCount  = "crash_count"
	keyUptimeSec   = "cumulative_uptime_sec"
)

// BackfillFromDurable fills fields that are still at their sentinel from the
// durable cache. It runs once per boot, after the sleep-cycle reload, and
// never touches a non-sentinel value.
func (s *Store) BackfillFromDurable(d platform.DurableCache) {
	f := &s.f

	fillF := func(dst *float32, key string) {
		if !IsUnset(*dst) {
			return
		}
		if v, ok := d.GetFloat(key); ok {
			*dst = v
		}
	}
	fillF(&f.LastInsideTemp, keyInsideTemp)
	fillF(&f.LastInsideHumidity, keyInsideHum)
	fillF(&f.LastOutsideTemp, keyOutsideTemp)
	fillF(&f.LastOutsideHumidity, keyOutsideHum)
	fillF(&f.LastPublishedTemp, keyPubTemp)
	fillF(&f.LastPublishedHumidity, keyPubHum)
	fillF(&f.LastPublishedPressure, keyPubPressure)

	if f.LastIconID == UnsetIcon {
		if v, ok := d.GetUint8(keyIconID); ok {
			f.LastIconID = v
		}
	}
	if f.LastStatusFingerprint == 0 {
		if v, ok := d.GetUint32(keyStatusFP); ok {
			f.LastStatusFingerprint = v
		}
	}
	if f.LastWeatherFingerprint == 0 {
		if v, ok := d.GetUint32(keyWeatherFP); ok {
			f.LastWeatherFingerprint = v
		}
	}
	if f.BootCount == 0 {
		if v, ok := d.GetUint32(keyBootCount); ok {
			f.BootCount = v
		}
	}
	if f.CrashCount == 0 {
		if v, ok := d.GetUint32(keyCrashCount); ok {
			f.CrashCount = v
		}
	}
	if f.CumulativeUptimeSec == 0 {
		if v, ok := d.GetUint32(keyUptimeSec); ok {
			f.CumulativeUptimeSec = v
		}
	}
}

// PersistDurable writes the backfillable subset through to the durable cache
// and commits. Flash wear is the caller's problem: call this every Nth cycle,
// not every wake.
func (s *Store) PersistDurable(d platform.DurableCache) error {
	f := &s.f

	putF := func(key string, v float32) {
		if !IsUnset(v) {
			d.SetFloat(key, v)
		}
	}
	putF(keyInsideTemp, f.LastInsideTemp)
	putF(keyInsideHum, f.LastInsideHumidity)
	putF(keyOutsideTemp, f.LastOutsideTemp)
	putF(keyOutsideHum, f.LastOutsideHumidity)
	putF(keyPubTemp, f.LastPublishedTemp)
	putF(keyPubHum, f.LastPublishedHumidity)
	putF(keyPubPressure, f.LastPublishedPressure)

	if f.LastIconID != UnsetIcon {
		d.SetUint8(keyIconID, f.LastIconID)
	}
	if f.LastStatusFingerprint != 0 {
		d.SetUint32(keyStatusFP, f.LastStatusFingerprint)
	}
	if f.LastWeatherFingerprint != 0 {
		d.SetUint32(keyWeatherFP, f.LastWeatherFingerprint)
	}
	d.SetUint32(keyBootCount, f.BootCount)
	d.SetUint32(keyCrashCount, f.CrashCount)
	d.SetUint32(keyUptimeSec, f.CumulativeUptimeSec)

	return d.Commit()
}
