package settings

import (
	"context"
	"math"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

// TestFileStore_NotFound verifies reads of a missing file return ErrNotFound.
func TestFileStore_NotFound(t *testing.T) {
	t.Parallel()

	store := NewFileStore(filepath.Join(t.TempDir(), "missing.json"))

	_, err := store.GetU32(context.Background(), "goteros_i")
	require.ErrorIs(t, err, ErrNotFound)

	_, err = store.GetI64(context.Background(), KeyClockOffset)
	require.ErrorIs(t, err, ErrNotFound)
}

// TestFileStore_Roundtrip ensures values survive a fresh store on the same path.
func TestFileStore_Roundtrip(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	file := filepath.Join(t.TempDir(), "nested", "settings.json")

	store := NewFileStore(file)
	require.NoError(t, store.SetU32(ctx, "goteros_i", 57600))
	require.NoError(t, store.SetU32(ctx, "goteros_d", math.MaxUint32))
	require.NoError(t, store.SetU8(ctx, KeyManualMode, 1))
	require.NoError(t, store.SetI64(ctx, KeyClockOffset, math.MinInt64+7))

	_, err := os.Stat(file + ".tmp")
	require.ErrorIs(t, err, os.ErrNotExist)

	reopened := NewFileStore(file)
	require.Equal(t, file, reopened.Path())

	start, err := reopened.GetU32(ctx, "goteros_i")
	require.NoError(t, err)
	require.Equal(t, uint32(57600), start)

	duration, err := reopened.GetU32(ctx, "goteros_d")
	require.NoError(t, err)
	require.Equal(t, uint32(math.MaxUint32), duration)

	manual, err := reopened.GetU8(ctx, KeyManualMode)
	require.NoError(t, err)
	require.Equal(t, uint8(1), manual)

	offset, err := reopened.GetI64(ctx, KeyClockOffset)
	require.NoError(t, err)
	require.Equal(t, int64(math.MinInt64+7), offset)
}

// TestFileStore_Malformed covers values of the wrong shape or range.
func TestFileStore_Malformed(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	file := filepath.Join(t.TempDir(), "settings.json")
	contents := `{"fraction": 1.5, "negative": -4, "text": "abc", "flag": true, "big": 300}`
	require.NoError(t, os.WriteFile(file, []byte(contents), 0o600))

	store := NewFileStore(file)

	_, err := store.GetU32(ctx, "fraction")
	require.ErrorIs(t, err, ErrMalformed)

	_, err = store.GetU32(ctx, "negative")
	require.ErrorIs(t, err, ErrMalformed)

	_, err = store.GetI64(ctx, "text")
	require.ErrorIs(t, err, ErrMalformed)

	_, err = store.GetU8(ctx, "flag")
	require.ErrorIs(t, err, ErrMalformed)

	_, err = store.GetU8(ctx, "big")
	require.ErrorIs(t, err, ErrMalformed)

	big, err := store.GetU32(ctx, "big")
	require.NoError(t, err)
	require.Equal(t, uint32(300), big)
}

// TestFileStore_CorruptFileIsDiscarded checks an undecodable file behaves as empty and is replaced on write.
func TestFileStore_CorruptFileIsDiscarded(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	file := filepath.Join(t.TempDir(), "settings.json")
	require.NoError(t, os.WriteFile(file, []byte("{not json"), 0o600))

	store := NewFileStore(file)

	_, err := store.GetU8(ctx, KeyManualMode)
	require.ErrorIs(t, err, ErrNotFound)

	require.NoError(t, store.SetU8(ctx, KeyManualMode, 0))

	manual, err := NewFileStore(file).GetU8(ctx, KeyManualMode)
	require.NoError(t, err)
	require.Equal(t, uint8(0), manual)
}

// TestFileStore_WriteFailureKeepsPreviousValue verifies a failed write does not change cached values.
func TestFileStore_WriteFailureKeepsPreviousValue(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	dir := t.TempDir()
	file := filepath.Join(dir, "settings.json")

	store := NewFileStore(file)
	require.NoError(t, store.SetU32(ctx, "goteros_i", 10))

	// A directory in place of the temporary file makes the next write fail.
	require.NoError(t, os.Mkdir(file+".tmp", 0o750))

	require.Error(t, store.SetU32(ctx, "goteros_i", 20))
	require.Error(t, store.SetU32(ctx, "goteros_d", 30))

	start, err := store.GetU32(ctx, "goteros_i")
	require.NoError(t, err)
	require.Equal(t, uint32(10), start)

	_, err = store.GetU32(ctx, "goteros_d")
	require.ErrorIs(t, err, ErrNotFound)
}
