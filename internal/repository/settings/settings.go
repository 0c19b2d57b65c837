package settings

import (
	"context"
	"errors"
	"fmt"

	"github.com/oshokin/irrigation/internal/domain/irrigation"
	"github.com/oshokin/irrigation/internal/logger"
)

// Settings maps controller values onto Store keys.
type Settings struct {
	store Store
}

// New wraps store.
func New(store Store) *Settings {
	return &Settings{
		store: store,
	}
}

// LoadSchedule returns the persisted window of a device. Each field that is
// absent or unreadable falls back to the matching field of def.
func (s *Settings) LoadSchedule(ctx context.Context, name string, def irrigation.Schedule) irrigation.Schedule {
	result := def

	if v, ok := loadValue(ctx, StartKey(name), s.store.GetU32); ok {
		result.StartOffsetSeconds = v
	}

	if v, ok := loadValue(ctx, DurationKey(name), s.store.GetU32); ok {
		result.DurationSeconds = v
	}

	return result
}

// SaveSchedule writes both fields of a device window.
func (s *Settings) SaveSchedule(ctx context.Context, name string, schedule irrigation.Schedule) error {
	return errors.Join(
		wrapWrite(StartKey(name), s.store.SetU32(ctx, StartKey(name), schedule.StartOffsetSeconds)),
		wrapWrite(DurationKey(name), s.store.SetU32(ctx, DurationKey(name), schedule.DurationSeconds)),
	)
}

// LoadManualMode returns the persisted mode flag or def.
// Any non-zero stored byte means manual.
func (s *Settings) LoadManualMode(ctx context.Context, def bool) bool {
	v, ok := loadValue(ctx, KeyManualMode, s.store.GetU8)
	if !ok {
		return def
	}

	return v != 0
}

// SaveManualMode writes the mode flag as 0 or 1.
func (s *Settings) SaveManualMode(ctx context.Context, manual bool) error {
	var v uint8
	if manual {
		v = 1
	}

	return wrapWrite(KeyManualMode, s.store.SetU8(ctx, KeyManualMode, v))
}

// LoadClockOffset returns the persisted clock correction or def.
func (s *Settings) LoadClockOffset(ctx context.Context, def int64) int64 {
	v, ok := loadValue(ctx, KeyClockOffset, s.store.GetI64)
	if !ok {
		return def
	}

	return v
}

// SaveClockOffset writes the clock correction.
func (s *Settings) SaveClockOffset(ctx context.Context, offset int64) error {
	return wrapWrite(KeyClockOffset, s.store.SetI64(ctx, KeyClockOffset, offset))
}

func loadValue[T any](ctx context.Context, key string, get func(context.Context, string) (T, error)) (T, bool) {
	v, err := get(ctx, key)
	if err == nil {
		return v, true
	}

	if !errors.Is(err, ErrNotFound) {
		logger.WarnKV(ctx, "Using default for unreadable setting", "key", key, "error", err)
	}

	var zero T

	return zero, false
}

func wrapWrite(key string, err error) error {
	if err == nil {
		return nil
	}

	return fmt.Errorf("%w: %s: %w", irrigation.ErrPersistenceWrite, key, err)
}
