package post

import (
	"encoding/base64"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"
)

// Cursors are opaque to clients: a versioned (timestamp, id) pair wrapped
// in base64 so the encoding can change without breaking the contract.

const cursorVersion = "v1"

var ErrBadCursor = errors.New("invalid cursor")

func EncodeCursor(ts time.Time, id string) string {
	raw := fmt.Sprintf("%s:%d:%s", cursorVersion, ts.UnixMilli(), id)
	return base64.RawURLEncoding.EncodeToString([]byte(raw))
}

func DecodeCursor(token string) (time.Time, string, error) {
	raw, err := base64.RawURLEncoding.DecodeString(token)
	if err != nil {
		return time.Time{}, "", ErrBadCursor
	}
	parts := strings.SplitN(string(raw), ":", 3)
	if len(parts) != 3 || parts[0] != cursorVersion {
		return time.Time{}, "", ErrBadCursor
	}
	ms, err := strconv.ParseInt(parts[1], 10, 64)
	if err != nil || parts[2] == "" {
		return time.Time{}, "", ErrBadCursor
	}
	return time.UnixMilli(ms).UTC(), parts[2], nil
}
