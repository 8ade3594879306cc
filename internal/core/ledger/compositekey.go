// Package ledger holds the encodings shared by every replica: composite state
// keys and canonical JSON.
package ledger

import (
	"strings"
	"unicode/utf8"

	"github.com/vncsmyrnk/electionledger/internal/core/domain"
)

const (
	// Separator terminates every component of a composite key and prefixes
	// the key itself, keeping composite keys apart from simple ones.
	Separator = "\x00"
	maxRune   = utf8.MaxRune
)

const (
	ObjectTypeElection = "election"
	ObjectTypeCount    = "count"
	ObjectTypeVote     = "vote"
)

func validateComponent(s string) error {
	if !utf8.ValidString(s) {
		return domain.NewError(domain.KindInvalidInput, "key component %q is not valid UTF-8", s)
	}
	for _, r := range s {
		if r == 0 || r == maxRune {
			return domain.NewError(domain.KindInvalidInput, "key component %q contains a reserved character", s)
		}
	}
	return nil
}

// CreateCompositeKey builds \x00type\x00attr1\x00attr2\x00...
func CreateCompositeKey(objectType string, attributes ...string) (string, error) {
	if objectType == "" {
		return "", domain.NewError(domain.KindInvalidInput, "object type is required")
	}
	if err := validateComponent(objectType); err != nil {
		return "", err
	}

	var b strings.Builder
	b.WriteString(Separator)
	b.WriteString(objectType)
	b.WriteString(Separator)
	for _, attr := range attributes {
		if err := validateComponent(attr); err != nil {
			return "", err
		}
		b.WriteString(attr)
		b.WriteString(Separator)
	}
	return b.String(), nil
}

// SplitCompositeKey is the inverse of CreateCompositeKey.
func SplitCompositeKey(key string) (string, []string, error) {
	if !strings.HasPrefix(key, Separator) || !strings.HasSuffix(key, Separator) || len(key) < 2 {
		return "", nil, domain.NewError(domain.KindInvalidInput, "%q is not a composite key", key)
	}
	parts := strings.Split(key[1:len(key)-1], Separator)
	if parts[0] == "" {
		return "", nil, domain.NewError(domain.KindInvalidInput, "%q has no object type", key)
	}
	return parts[0], parts[1:], nil
}

// PartialCompositeKeyRange returns the [start, end) range enumerating every
// composite key that begins with the given type and attributes.
func PartialCompositeKeyRange(objectType string, attributes ...string) (string, string, error) {
	prefix, err := CreateCompositeKey(objectType, attributes...)
	if err != nil {
		return "", "", err
	}
	return prefix, prefix + string(maxRune), nil
}
