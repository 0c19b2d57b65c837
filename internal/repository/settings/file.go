package settings

import (
	"context"
	"errors"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"strconv"
	"sync"

	"google.golang.org/protobuf/encoding/protojson"
	"google.golang.org/protobuf/types/known/structpb"

	"github.com/oshokin/irrigation/internal/config"
	"github.com/oshokin/irrigation/internal/logger"
)

// maxExactFloat is the largest integer a JSON number holds without rounding.
const maxExactFloat = 1 << 53

// FileStore persists settings to a JSON document on disk.
// The document is a protobuf Struct encoded with protojson. Small integers are
// stored as numbers and signed 64-bit values as decimal strings.
type FileStore struct {
	// path is the filesystem location of the settings file.
	path string
	// mu protects values and the file.
	mu sync.Mutex
	// values caches the decoded document; nil until first access.
	values map[string]*structpb.Value
}

// NewFileStore creates a store that reads and writes JSON at the provided path.
func NewFileStore(path string) *FileStore {
	return &FileStore{
		path: filepath.Clean(path),
	}
}

// Path returns the settings file location.
func (s *FileStore) Path() string {
	return s.path
}

// GetU32 implements Store.
func (s *FileStore) GetU32(ctx context.Context, key string) (uint32, error) {
	v, err := s.get(ctx, key)
	if err != nil {
		return 0, err
	}

	return narrowU32(key, v)
}

// SetU32 implements Store.
func (s *FileStore) SetU32(ctx context.Context, key string, value uint32) error {
	return s.set(ctx, key, structpb.NewNumberValue(float64(value)))
}

// GetI64 implements Store.
func (s *FileStore) GetI64(ctx context.Context, key string) (int64, error) {
	return s.get(ctx, key)
}

// SetI64 implements Store.
func (s *FileStore) SetI64(ctx context.Context, key string, value int64) error {
	return s.set(ctx, key, structpb.NewStringValue(strconv.FormatInt(value, 10)))
}

// GetU8 implements Store.
func (s *FileStore) GetU8(ctx context.Context, key string) (uint8, error) {
	v, err := s.get(ctx, key)
	if err != nil {
		return 0, err
	}

	return narrowU8(key, v)
}

// SetU8 implements Store.
func (s *FileStore) SetU8(ctx context.Context, key string, value uint8) error {
	return s.set(ctx, key, structpb.NewNumberValue(float64(value)))
}

func (s *FileStore) get(ctx context.Context, key string) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.loadLocked(ctx); err != nil {
		return 0, err
	}

	value, ok := s.values[key]
	if !ok {
		return 0, ErrNotFound
	}

	return decodeInteger(key, value)
}

func (s *FileStore) set(ctx context.Context, key string, value *structpb.Value) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.loadLocked(ctx); err != nil {
		return err
	}

	previous, existed := s.values[key]
	s.values[key] = value

	if err := s.writeLocked(); err != nil {
		if existed {
			s.values[key] = previous
		} else {
			delete(s.values, key)
		}

		return err
	}

	return nil
}

// loadLocked reads the document once. A missing file is an empty store and
// an undecodable one is discarded with a warning. Callers hold mu.
func (s *FileStore) loadLocked(ctx context.Context) error {
	if s.values != nil {
		return nil
	}

	contents, err := os.ReadFile(s.path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			s.values = make(map[string]*structpb.Value)
			return nil
		}

		return fmt.Errorf("read settings file: %w", err)
	}

	var document structpb.Struct
	if err = protojson.Unmarshal(contents, &document); err != nil {
		logger.WarnKV(ctx, "Discarding undecodable settings file", "path", s.path, "error", err)

		s.values = make(map[string]*structpb.Value)

		return nil
	}

	s.values = document.GetFields()
	if s.values == nil {
		s.values = make(map[string]*structpb.Value)
	}

	return nil
}

// writeLocked replaces the file through a temporary sibling and a rename. Callers hold mu.
func (s *FileStore) writeLocked() error {
	marshalOptions := protojson.MarshalOptions{
		Multiline: true,
		Indent:    "  ",
	}

	data, err := marshalOptions.Marshal(&structpb.Struct{Fields: s.values})
	if err != nil {
		return fmt.Errorf("encode settings: %w", err)
	}

	if dir := filepath.Dir(s.path); dir != "." {
		if err = os.MkdirAll(dir, 0o750); err != nil {
			return fmt.Errorf("create settings dir: %w", err)
		}
	}

	tmp := s.path + ".tmp"
	if err = os.WriteFile(tmp, data, config.DefaultFilePermissions); err != nil {
		return fmt.Errorf("write settings file: %w", err)
	}

	if err = os.Rename(tmp, s.path); err != nil {
		return fmt.Errorf("replace settings file: %w", err)
	}

	return nil
}

func decodeInteger(key string, value *structpb.Value) (int64, error) {
	switch kind := value.GetKind().(type) {
	case *structpb.Value_NumberValue:
		n := kind.NumberValue
		if n != math.Trunc(n) || math.Abs(n) > maxExactFloat {
			return 0, fmt.Errorf("%w: %q = %v is not an integer", ErrMalformed, key, n)
		}

		return int64(n), nil
	case *structpb.Value_StringValue:
		n, err := strconv.ParseInt(kind.StringValue, 10, 64)
		if err != nil {
			return 0, fmt.Errorf("%w: %q: %w", ErrMalformed, key, err)
		}

		return n, nil
	default:
		return 0, fmt.Errorf("%w: %q has unsupported JSON type", ErrMalformed, key)
	}
}
