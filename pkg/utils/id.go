package utils

import (
	"github.com/google/uuid"
)

// GenerateID returns a prefixed unique identifier, e.g. "auction-<uuid>".
func GenerateID(prefix string) string {
	return prefix + "-" + uuid.NewString()
}
