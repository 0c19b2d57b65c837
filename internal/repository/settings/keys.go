package settings

const (
	// KeyPrefixLength is how many runes of a device name are kept in its keys.
	KeyPrefixLength = 13
	// MaxKeyLength is the longest key any backend has to accept.
	MaxKeyLength = KeyPrefixLength + 2

	// SuffixDuration marks the window duration key of a device.
	SuffixDuration = "_d"
	// SuffixStart marks the window start offset key of a device.
	SuffixStart = "_i"

	// KeyManualMode holds the controller mode flag (0 or 1).
	KeyManualMode = "manual_mode"
	// KeyClockOffset holds the clock correction in seconds.
	KeyClockOffset = "clock_offset"
)

// DeviceKey returns the key for a per-device value.
func DeviceKey(name, suffix string) string {
	runes := []rune(name)
	if len(runes) > KeyPrefixLength {
		runes = runes[:KeyPrefixLength]
	}

	return string(runes) + suffix
}

// StartKey returns the key holding a device's window start offset.
func StartKey(name string) string {
	return DeviceKey(name, SuffixStart)
}

// DurationKey returns the key holding a device's window duration.
func DurationKey(name string) string {
	return DeviceKey(name, SuffixDuration)
}
