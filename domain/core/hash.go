package core

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"sort"
	"strings"
)

// Hash represents a cryptographic hash
type Hash string

// NewHash creates a new hash from data
func NewHash(data []byte) Hash {
	sum := sha256.Sum256(data)
	return Hash(hex.EncodeToString(sum[:]))
}

// String returns the string representation
func (h Hash) String() string {
	return string(h)
}

// IsEmpty checks if the hash is empty
func (h Hash) IsEmpty() bool {
	return h == ""
}

// Short returns the first 12 hex characters, enough to tell inputs apart in logs.
func (h Hash) Short() string {
	if len(h) <= 12 {
		return string(h)
	}
	return string(h[:12])
}

// ComputeRecordsHash fingerprints a sequence of flat records independent of map ordering.
func ComputeRecordsHash(records []map[string]interface{}) Hash {
	var data strings.Builder
	for i, rec := range records {
		keys := make([]string, 0, len(rec))
		for k := range rec {
			keys = append(keys, k)
		}
		sort.Strings(keys)

		data.WriteString(fmt.Sprintf("#%d|", i))
		for _, key := range keys {
			data.WriteString(key)
			data.WriteString("=")
			data.WriteString(fmt.Sprintf("%v", rec[key]))
			data.WriteString(";")
		}
	}
	return NewHash([]byte(data.String()))
}
