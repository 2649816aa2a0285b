package utils

import (
	"errors"
	"net/url"
	"strconv"
)

// QueryInt reads a positive integer query parameter. Missing, malformed
// and non-positive values yield fallback; values too large for int are
// reported as such so validation can reject them.
func QueryInt(q url.Values, key string, fallback int) int {
	raw := q.Get(key)
	if raw == "" {
		return fallback
	}

	n, err := strconv.ParseInt(raw, 10, strconv.IntSize)
	var numErr *strconv.NumError
	switch {
	case errors.As(err, &numErr) && numErr.Err == strconv.ErrRange && n > 0:
		return int(n)
	case err != nil, n < 1:
		return fallback
	}
	return int(n)
}
