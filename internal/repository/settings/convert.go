package settings

import (
	"fmt"
	"math"
)

func narrowU32(key string, v int64) (uint32, error) {
	if v < 0 || v > math.MaxUint32 {
		return 0, fmt.Errorf("%w: %q = %d is out of u32 range", ErrMalformed, key, v)
	}

	return uint32(v), nil
}

func narrowU8(key string, v int64) (uint8, error) {
	if v < 0 || v > math.MaxUint8 {
		return 0, fmt.Errorf("%w: %q = %d is out of u8 range", ErrMalformed, key, v)
	}

	return uint8(v), nil
}
