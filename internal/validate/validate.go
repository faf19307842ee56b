package validate

import (
	"net/url"
	"strings"

	"github.com/go-playground/validator/v10"
)

var structValidator = validator.New(validator.WithRequiredStructEnabled())

// Struct validates v against its `validate` tags.
func Struct(v any) error {
	return structValidator.Struct(v)
}

// IsHTTPURL reports whether raw is an absolute http or https URL with a host.
// Relative references and other schemes (javascript:, data:, ftp:) are rejected.
func IsHTTPURL(raw string) bool {
	if raw == "" || strings.TrimSpace(raw) != raw {
		return false
	}

	u, err := url.Parse(raw)
	if err != nil {
		return false
	}

	if u.Scheme != "http" && u.Scheme != "https" {
		return false
	}

	return u.Host != "" && u.Hostname() != ""
}
