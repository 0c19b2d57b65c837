package config

import (
	"slices"
	"time"
)

const (
	// PresetFrontYard is the three-valve front garden layout.
	PresetFrontYard = "front_yard"
	// PresetBackYard is the four-valve back garden layout.
	PresetBackYard = "back_yard"
)

// Preset returns a copy of the named built-in device set.
func Preset(name string) ([]DeviceConfig, bool) {
	switch name {
	case PresetFrontYard:
		return []DeviceConfig{
			{Name: "costado_180", Pin: 25, Start: "05:00", Duration: 75 * time.Minute},
			{Name: "toberas_afuera", Pin: 32, Start: "06:15", Duration: 45 * time.Minute},
			{Name: "rotor_frente", Pin: 33, Start: "07:00", Duration: 40 * time.Minute},
		}, true
	case PresetBackYard:
		return []DeviceConfig{
			{Name: "microaspersores_frente", Pin: 32, Start: "22:00", Duration: 20 * time.Minute},
			{Name: "goteros", Pin: 33, Start: "16:00", Duration: 5 * time.Hour},
			{Name: "atras_360", Pin: 25, Start: "03:30", Duration: 90 * time.Minute},
			{Name: "atras_pileta", Pin: 26, Start: "21:00", Duration: time.Hour},
		}, true
	default:
		return nil, false
	}
}

// PresetNames lists the built-in presets in sorted order.
func PresetNames() []string {
	names := []string{PresetFrontYard, PresetBackYard}
	slices.Sort(names)

	return names
}
