// Package ppe holds the safety-equipment status model, the latest-value
// stores shared between the detection pipeline and its consumers, and the
// pipeline itself.
package ppe

import (
	"encoding/json"
	"strings"
	"time"
)

// Presence reports whether an equipment item is worn. The wire encoding is
// 1 for present and 0 for missing, matching the actuator firmware.
type Presence int

const (
	Missing Presence = 0
	Present Presence = 1
)

// Snapshot is the full equipment status derived from one detection cycle.
// It is recomputed from scratch every cycle and is read-only once published.
type Snapshot struct {
	Hardhat   Presence `json:"hardhat"`
	Vest      Presence `json:"vest"`
	Mask      Presence `json:"mask"`
	Timestamp float64  `json:"timestamp"` // epoch seconds
}

// NewSnapshot returns a snapshot with every item defaulted to present,
// stamped with the given time. Detected absence labels are applied on top.
func NewSnapshot(now time.Time) Snapshot {
	return Snapshot{
		Hardhat:   Present,
		Vest:      Present,
		Mask:      Present,
		Timestamp: epochSeconds(now),
	}
}

// ApplyLabel flips an item to missing when the detection label denotes its
// absence. Labels denoting presence, or unrelated classes, leave the snapshot
// unchanged. Applying the same absence label twice is idempotent.
func (s *Snapshot) ApplyLabel(label string) {
	switch {
	case strings.Contains(label, "NO-Hardhat"):
		s.Hardhat = Missing
	case strings.Contains(label, "NO-Safety Vest"):
		s.Vest = Missing
	case strings.Contains(label, "NO-Mask"):
		s.Mask = Missing
	}
}

// DevicePayload returns the JSON body pushed to the actuator: the item flags
// without the timestamp.
func (s Snapshot) DevicePayload() ([]byte, error) {
	return json.Marshal(struct {
		Hardhat Presence `json:"hardhat"`
		Vest    Presence `json:"vest"`
		Mask    Presence `json:"mask"`
	}{s.Hardhat, s.Vest, s.Mask})
}

func epochSeconds(t time.Time) float64 {
	// Split seconds and nanoseconds; UnixNano alone overflows float64's
	// exact integer range and would skew the fraction.
	return float64(t.Unix()) + float64(t.Nanosecond())/float64(time.Second)
}
