package study

import (
	"fmt"
	"strconv"
	"strings"
)

// Preset is a fixed count x duration combination offered during onboarding.
type Preset struct {
	Name            string
	SlotCount       int
	DurationMinutes int
}

// TotalMinutes returns count x duration.
func (p Preset) TotalMinutes() int {
	return p.SlotCount * p.DurationMinutes
}

// Presets is the fixed catalogue, each adding up to two hours.
var Presets = []Preset{
	{Name: "1x120", SlotCount: 1, DurationMinutes: 120},
	{Name: "2x60", SlotCount: 2, DurationMinutes: 60},
	{Name: "4x30", SlotCount: 4, DurationMinutes: 30},
	{Name: "6x20", SlotCount: 6, DurationMinutes: 20},
}

// DurationOptions are the session lengths offered by the editor menu.
// Any positive duration is accepted.
var DurationOptions = []int{20, 30, 45, 60, 90, 120}

// CountOptions are the per-day session counts offered by the slot menu.
var CountOptions = []int{1, 2, 4, 6}

// PresetByName returns the catalogue preset with the given name ("2x60").
func PresetByName(name string) (Preset, bool) {
	name = strings.ToLower(strings.TrimSpace(name))
	for _, p := range Presets {
		if p.Name == name {
			return p, true
		}
	}
	return Preset{}, false
}

// ParsePreset accepts a catalogue name or any "<count>x<minutes>" string.
func ParsePreset(s string) (Preset, error) {
	if p, ok := PresetByName(s); ok {
		return p, nil
	}
	countStr, durStr, ok := strings.Cut(strings.ToLower(strings.TrimSpace(s)), "x")
	if !ok {
		return Preset{}, invalid("preset", "expected <count>x<minutes>, got %q", s)
	}
	count, err := strconv.Atoi(countStr)
	if err != nil || count <= 0 {
		return Preset{}, invalid("preset", "invalid count in %q", s)
	}
	dur, err := strconv.Atoi(strings.TrimSuffix(durStr, "m"))
	if err != nil || dur <= 0 {
		return Preset{}, invalid("preset", "invalid duration in %q", s)
	}
	return Preset{Name: fmt.Sprintf("%dx%d", count, dur), SlotCount: count, DurationMinutes: dur}, nil
}
