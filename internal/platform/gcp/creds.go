package gcp

import (
	"strings"

	"google.golang.org/api/option"
)

// credentialOptions accepts an inline service-account JSON document or a file path.
func credentialOptions(raw string) []option.ClientOption {
	raw = strings.TrimSpace(raw)
	switch {
	case raw == "":
		return nil
	case strings.HasPrefix(raw, "{"):
		return []option.ClientOption{option.WithCredentialsJSON([]byte(raw))}
	default:
		return []option.ClientOption{option.WithCredentialsFile(raw)}
	}
}
