package utils

import (
	"strings"

	"github.com/google/uuid"
)

// NewPublicID generates an external identifier like "tch-5f3a...". Public
// IDs are what appears in exports and URLs instead of database row IDs.
func NewPublicID(prefix string) string {
	return prefix + "-" + strings.ReplaceAll(uuid.NewString(), "-", "")
}
