// Package settings persists controller configuration in a small typed
// key-value store.
//
// A Store holds unsigned 8/32-bit and signed 64-bit integers under short string
// keys. Three backends are provided: a JSON file written atomically, Redis and
// an in-memory map. The Settings repository maps the controller's values
// (device schedules, manual mode flag, clock offset) onto Store keys and turns
// absent or malformed values into defaults.
//
// Device keys are derived from the device name truncated to KeyPrefixLength
// runes, so two names sharing that prefix read and write the same keys. The
// collision is not detected; device names must differ within the prefix.
package settings
