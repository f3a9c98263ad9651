package errors

import (
	"strings"
	"unicode"
	"unicode/utf8"
)

// MaxQueryLength bounds the size of query text accepted by the CLI and
// the HTTP API.
const MaxQueryLength = 1 << 20

// ValidateQueryText checks query text before it reaches the parser.
//
// The rules are deliberately shallow; everything else is the parser's job:
//   - Text cannot be empty or only whitespace
//   - Text must be valid UTF-8 without NUL bytes
//   - Maximum length of MaxQueryLength bytes
func ValidateQueryText(text string) error {
	if strings.TrimSpace(text) == "" {
		return New(ErrCodeInvalidQuery, "query text cannot be empty")
	}
	if len(text) > MaxQueryLength {
		return New(ErrCodeInvalidQuery, "query text too long (max %d bytes)", MaxQueryLength)
	}
	if !utf8.ValidString(text) {
		return New(ErrCodeInvalidQuery, "query text is not valid UTF-8")
	}
	if strings.ContainsRune(text, '\x00') {
		return New(ErrCodeInvalidQuery, "query text contains a NUL byte")
	}
	return nil
}

// ValidateFormat checks an output format against the supported set.
func ValidateFormat(format string, supported []string) error {
	for _, s := range supported {
		if strings.EqualFold(format, s) {
			return nil
		}
	}
	return New(ErrCodeInvalidFormat, "unsupported format %q (want one of %s)", format, strings.Join(supported, ", "))
}

// ValidatePrefixName validates a prefix label used in configuration.
// It follows the PN_PREFIX production loosely: a letter followed by
// letters, digits, '_', '-' or '.', not ending in '.'.
func ValidatePrefixName(name string) error {
	if name == "" {
		return New(ErrCodeInvalidConfig, "prefix name cannot be empty")
	}
	for i, r := range name {
		switch {
		case i == 0 && !unicode.IsLetter(r):
			return New(ErrCodeInvalidConfig, "prefix %q must start with a letter", name)
		case unicode.IsLetter(r), unicode.IsDigit(r), r == '_', r == '-', r == '.':
		default:
			return New(ErrCodeInvalidConfig, "prefix %q contains invalid character %q", name, r)
		}
	}
	if strings.HasSuffix(name, ".") {
		return New(ErrCodeInvalidConfig, "prefix %q cannot end with '.'", name)
	}
	return nil
}

// ValidateNamespace validates a namespace IRI bound to a prefix.
func ValidateNamespace(iri string) error {
	if iri == "" {
		return New(ErrCodeInvalidConfig, "namespace IRI cannot be empty")
	}
	if strings.ContainsAny(iri, "<>\" {}|^`\\") {
		return New(ErrCodeInvalidConfig, "namespace IRI %q contains invalid characters", iri)
	}
	if !strings.Contains(iri, ":") {
		return New(ErrCodeInvalidConfig, "namespace IRI %q must be absolute", iri)
	}
	return nil
}
