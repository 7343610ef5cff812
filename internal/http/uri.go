package http

import (
	"fmt"
	"sort"
	"strings"

	"github.com/fivetwenty-io/rundeck-admin/internal/constants"
	"github.com/fivetwenty-io/rundeck-admin/pkg/rundeck"
)

// BuildURI returns endpoint+path followed by the query parameters and the
// auth token. Caller parameters come first in sorted key order; the token is
// merged last and a caller-supplied token key is dropped, so the token always
// wins. Keys and values are written as-is: they must not contain '&' or '='.
// Bytes that cannot appear in a request target are percent-escaped.
func BuildURI(endpoint, path, token string, params map[string]string) (string, error) {
	keys := make([]string, 0, len(params))

	for key, value := range params {
		if key == constants.AuthTokenParam {
			continue
		}

		if strings.ContainsAny(key, "&=") || strings.ContainsAny(value, "&=") {
			return "", fmt.Errorf("%w: %s", rundeck.ErrUnencodableParameter, key)
		}

		keys = append(keys, key)
	}

	sort.Strings(keys)

	pairs := make([]string, 0, len(keys)+1)
	for _, key := range keys {
		pairs = append(pairs, escapeUnsafe(key)+"="+escapeUnsafe(params[key]))
	}

	pairs = append(pairs, constants.AuthTokenParam+"="+escapeUnsafe(token))

	return endpoint + path + "?" + strings.Join(pairs, "&"), nil
}

// escapeUnsafe percent-escapes control bytes, space, '#' and non-ASCII bytes.
func escapeUnsafe(text string) string {
	var builder strings.Builder

	for index := 0; index < len(text); index++ {
		char := text[index]
		if char <= ' ' || char >= 0x7f || char == '#' {
			fmt.Fprintf(&builder, "%%%02X", char)

			continue
		}

		builder.WriteByte(char)
	}

	return builder.String()
}
