package fetch

import (
	"encoding/base64"
	"fmt"
	"net/url"
	"strings"
)

const defaultDataURLMediaType = "text/plain;charset=US-ASCII"

// parseDataURL parses an RFC 2397 data URL: split at the
// first comma, tokenise the media-type prefix, detect a trailing
// ";base64" token, and decode the payload either as base64 or
// percent-decoded UTF-8. method is consulted only to empty the body for
// HEAD, matching a real network fetch's response to a bodiless request.
func parseDataURL(rawURL, method string) (mediaType string, body []byte, err error) {
	rest, ok := strings.CutPrefix(rawURL, "data:")
	if !ok {
		return "", nil, fmt.Errorf("fetch: %q is not a data: url", rawURL)
	}

	comma := strings.IndexByte(rest, ',')
	if comma < 0 {
		return "", nil, fmt.Errorf("fetch: malformed data url: missing comma")
	}
	prefix := rest[:comma]
	payload := rest[comma+1:]

	isBase64 := false
	if trimmed, ok := strings.CutSuffix(prefix, ";base64"); ok {
		isBase64 = true
		prefix = trimmed
	}

	mediaType = prefix
	if mediaType == "" {
		mediaType = defaultDataURLMediaType
	}

	if isBase64 {
		decoded, decErr := base64.StdEncoding.DecodeString(payload)
		if decErr != nil {
			// Data URLs in the wild are sloppy about padding; RawStdEncoding
			// tolerates the common unpadded form before giving up.
			decoded, decErr = base64.RawStdEncoding.DecodeString(payload)
			if decErr != nil {
				return "", nil, fmt.Errorf("fetch: decoding base64 data url payload: %w", decErr)
			}
		}
		body = decoded
	} else {
		unescaped, unErr := url.PathUnescape(payload)
		if unErr != nil {
			return "", nil, fmt.Errorf("fetch: percent-decoding data url payload: %w", unErr)
		}
		body = []byte(unescaped)
	}

	if strings.EqualFold(method, "HEAD") {
		body = nil
	}
	return mediaType, body, nil
}
