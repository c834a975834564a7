package util

import (
	"crypto/md5"
	"encoding/hex"
	"fmt"
	"time"
)

// Contains checks if a slice contains a specific value
func Contains[T comparable](slice []T, val T) bool {
	for _, item := range slice {
		if item == val {
			return true
		}
	}
	return false
}

// MD5 returns the lower-case hex digest of v. Non-string values are
// formatted with fmt.Sprint first.
func MD5(v any) string {
	s, ok := v.(string)
	if !ok {
		s = fmt.Sprint(v)
	}
	sum := md5.Sum([]byte(s))
	return hex.EncodeToString(sum[:])
}

// FileStamp formats t for use in generated file names.
func FileStamp(t time.Time) string {
	return t.Format("20060102_150405")
}
