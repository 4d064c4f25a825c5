// Package formcodec reads and writes application/x-www-form-urlencoded
// bodies. The portal's login body is captured verbatim from a browser and
// replayed, so Decode has to survive whatever a real browser produced.
package formcodec

import (
	"net/url"
	"sort"
	"strings"
)

// Decode parses a raw form-encoded body into a key/value map. Segments
// without a "=" are dropped, values are split on the first "=" only so
// values containing "=" survive, and only the value is percent-decoded.
// Malformed percent escapes leave the value as-is rather than failing.
func Decode(raw string) map[string]string {
	out := map[string]string{}
	for _, segment := range strings.Split(raw, "&") {
		key, value, found := strings.Cut(segment, "=")
		if !found || key == "" {
			continue
		}
		decoded, err := url.QueryUnescape(value)
		if err != nil {
			decoded = value
		}
		out[key] = decoded
	}
	return out
}

// Encode renders a key/value map as a form-encoded body with keys in
// sorted order, the inverse of Decode for well-formed input.
func Encode(form map[string]string) string {
	keys := make([]string, 0, len(form))
	for k := range form {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var out strings.Builder
	for i, k := range keys {
		if i > 0 {
			out.WriteByte('&')
		}
		out.WriteString(k)
		out.WriteByte('=')
		out.WriteString(url.QueryEscape(form[k]))
	}
	return out.String()
}
