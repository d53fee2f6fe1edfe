package workspace

import (
	"regexp"
	"strings"
)

const maxNameLength = 255

// validateName rejects names that cannot live as a single path component.
func validateName(name string) error {
	if strings.TrimSpace(name) == "" {
		return invalidInput("name cannot be empty")
	}
	if len(name) > maxNameLength {
		return invalidInput("name is longer than %d bytes", maxNameLength)
	}
	if name == "." || name == ".." {
		return invalidInput("name %q is reserved", name)
	}
	if strings.ContainsAny(name, "/\\\x00") {
		return invalidInput("name cannot contain path separators or NUL bytes")
	}
	return nil
}

const maxFilenameLength = 200

var unsafeFilenameChars = regexp.MustCompile(`[^a-zA-Z0-9._-]+`)

// sanitizeFilename makes name safe for a Content-Disposition header.
func sanitizeFilename(name string) string {
	clean := unsafeFilenameChars.ReplaceAllString(name, "_")
	if len(clean) > maxFilenameLength {
		clean = clean[:maxFilenameLength]
	}
	if clean == "" {
		return "file"
	}
	return clean
}
