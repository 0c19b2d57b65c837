package irrigation

import (
	"net/url"
	"strconv"
)

// QueryU32 returns the named parameter as uint32, or 0 when it is absent or malformed.
func QueryU32(values url.Values, name string) uint32 {
	v, err := strconv.ParseUint(values.Get(name), 10, 32)
	if err != nil {
		return 0
	}

	return uint32(v)
}

// QueryI64 returns the named parameter as int64, or 0 when it is absent or malformed.
func QueryI64(values url.Values, name string) int64 {
	v, err := strconv.ParseInt(values.Get(name), 10, 64)
	if err != nil {
		return 0
	}

	return v
}
