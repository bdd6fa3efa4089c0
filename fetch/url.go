package fetch

import (
	"fmt"

	whatwgurl "github.com/nlnwa/whatwg-url/url"
)

// parsedURL is the narrow slice of a WHATWG URL record this package needs:
// scheme/host/port for origin comparison and a normalised absolute string
// for the redirect loop. Everything else (data: URLs, the port blocklist)
// works off the raw string and stdlib net/url, so this is the only file
// in the tree that touches the whatwg-url parser.
type parsedURL struct {
	Scheme string
	Host   string
	Port   string
	Href   string
}

var whatwgParser = whatwgurl.NewParser()

// parseAbsoluteURL runs the WHATWG URL parsing algorithm over raw, the
// way a browser's fetch would before origin/port checks.
func parseAbsoluteURL(raw string) (*parsedURL, error) {
	u, err := whatwgParser.Parse(raw)
	if err != nil {
		return nil, fmt.Errorf("fetch: parsing url %q: %w", raw, err)
	}
	return &parsedURL{
		Scheme: u.Protocol(),
		Host:   u.Hostname(),
		Port:   u.Port(),
		Href:   u.Href(false),
	}, nil
}

// resolveReference parses ref against base the way a Location header is
// resolved against the request URL that produced it.
func resolveReference(base, ref string) (*parsedURL, error) {
	u, err := whatwgParser.ParseRef(base, ref)
	if err != nil {
		return nil, fmt.Errorf("fetch: resolving redirect location %q against %q: %w", ref, base, err)
	}
	return &parsedURL{
		Scheme: u.Protocol(),
		Host:   u.Hostname(),
		Port:   u.Port(),
		Href:   u.Href(false),
	}, nil
}

// sameOrigin reports whether a and b agree on scheme, host, and
// effective port.
func sameOrigin(a, b *parsedURL) bool {
	return a.Scheme == b.Scheme && a.Host == b.Host && effectivePort(a) == effectivePort(b)
}

func effectivePort(u *parsedURL) string {
	if u.Port != "" {
		return u.Port
	}
	switch u.Scheme {
	case "https:":
		return "443"
	case "http:":
		return "80"
	}
	return ""
}
