package image

import (
	"errors"
	"strings"
	"unicode/utf8"
)

// ErrMalformedEscape reports a percent sign not followed by two hex digits,
// or escapes that do not decode to UTF-8.
var ErrMalformedEscape = errors.New("malformed percent escape")

const upperhex = "0123456789ABCDEF"

// normalizeURI decodes every escape except those of URI delimiters and
// re-encodes the result, so characters outside the URI set end up encoded
// exactly once and delimiters keep their meaning.
func normalizeURI(raw string) (string, error) {
	var out strings.Builder
	decoded := make([]byte, 0, len(raw))
	out.Grow(len(raw))

	for i := 0; i < len(raw); i++ {
		c := raw[i]
		if c != '%' {
			decoded = append(decoded, c)
			writeEncoded(&out, c)
			continue
		}

		if i+2 >= len(raw) || !isHex(raw[i+1]) || !isHex(raw[i+2]) {
			return "", ErrMalformedEscape
		}
		b := unhex(raw[i+1])<<4 | unhex(raw[i+2])
		if isDelimiter(b) {
			out.WriteString(raw[i : i+3])
			decoded = append(decoded, 'x')
		} else {
			decoded = append(decoded, b)
			writeEncoded(&out, b)
		}
		i += 2
	}

	if !utf8.Valid(decoded) {
		return "", ErrMalformedEscape
	}
	return out.String(), nil
}

func writeEncoded(out *strings.Builder, c byte) {
	if isURIChar(c) {
		out.WriteByte(c)
		return
	}
	out.WriteByte('%')
	out.WriteByte(upperhex[c>>4])
	out.WriteByte(upperhex[c&15])
}

// isDelimiter reports the characters whose escapes survive decoding.
func isDelimiter(c byte) bool {
	return strings.IndexByte(";/?:@&=+$,#", c) >= 0
}

// isURIChar reports the characters left as-is when encoding a full URI.
func isURIChar(c byte) bool {
	switch {
	case 'a' <= c && c <= 'z', 'A' <= c && c <= 'Z', '0' <= c && c <= '9':
		return true
	}
	return strings.IndexByte("-_.!~*'();/?:@&=+$,#", c) >= 0
}

func isHex(c byte) bool {
	return '0' <= c && c <= '9' || 'a' <= c && c <= 'f' || 'A' <= c && c <= 'F'
}

func unhex(c byte) byte {
	switch {
	case '0' <= c && c <= '9':
		return c - '0'
	case 'a' <= c && c <= 'f':
		return c - 'a' + 10
	default:
		return c - 'A' + 10
	}
}

// collapsePublic fixes the doubled slash storage buckets emit after
// "/public". Only the first occurrence is rewritten.
func collapsePublic(raw string) string {
	return strings.Replace(raw, "/public//", "/public/", 1)
}
