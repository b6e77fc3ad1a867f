// Package resolve turns raw references found in page text into absolute URLs.
package resolve

import (
	"errors"
	"fmt"
	"net/url"
	"strings"
)

// ErrInvalidURL is returned by Origin for targets that are not absolute
// http(s) URLs.
var ErrInvalidURL = errors.New("resolve: invalid target URL")

// Origin returns the scheme and host of target, e.g. "https://site.com".
func Origin(target string) (string, error) {
	u, err := url.Parse(strings.TrimSpace(target))
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrInvalidURL, err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return "", fmt.Errorf("%w: scheme must be http or https, got %q", ErrInvalidURL, u.Scheme)
	}
	if u.Host == "" {
		return "", fmt.Errorf("%w: missing host", ErrInvalidURL)
	}
	return u.Scheme + "://" + u.Host, nil
}

// Endpoint resolves a raw endpoint match against base, the scan origin.
// The first applicable rule wins:
//
//	//host/path   https: is prepended
//	/path         joined to base
//	http...       returned unchanged
//	./x, ../x     resolved against base + "/"
//	anything else treated as root-relative under base
//
// Joining is textual: the reference keeps its bytes as written, so
// "/api/${id}" and "https://site.com/api/${id}" resolve to the same string.
// Endpoint never fails.
func Endpoint(raw, base string) string {
	switch {
	case strings.HasPrefix(raw, "//"):
		return "https:" + raw
	case strings.HasPrefix(raw, "/"):
		return join(base, raw)
	case strings.HasPrefix(raw, "http"):
		return raw
	case strings.HasPrefix(raw, "."):
		return join(base+"/", raw)
	default:
		return join(base, "/"+raw)
	}
}

// Script resolves a <script src> value against base the way a URL join
// does, so scheme-relative and absolute sources keep their own host.
func Script(src, base string) string {
	return join(base, strings.TrimSpace(src))
}

// join resolves ref against base without re-encoding either side. Only the
// scheme, host and path of base are parsed; ref is treated as text.
func join(base, ref string) string {
	b, err := url.Parse(base)
	if err != nil || b.Scheme == "" || b.Host == "" {
		return concat(base, ref)
	}
	switch {
	case hasScheme(ref):
		return ref
	case strings.HasPrefix(ref, "//"):
		return b.Scheme + ":" + ref
	}

	path, rest := ref, ""
	if i := strings.IndexAny(ref, "?#"); i >= 0 {
		path, rest = ref[:i], ref[i:]
	}
	basePath := b.EscapedPath()
	switch {
	case path == "":
		path = basePath
		if path == "" {
			path = "/"
		}
	case !strings.HasPrefix(path, "/"):
		dir := "/"
		if i := strings.LastIndex(basePath, "/"); i >= 0 {
			dir = basePath[:i+1]
		}
		path = dir + path
	}
	return b.Scheme + "://" + b.Host + removeDotSegments(path) + rest
}

// removeDotSegments applies RFC 3986 section 5.2.4 to an absolute path.
// ".." never climbs above the root.
func removeDotSegments(path string) string {
	if !strings.Contains(path, ".") {
		return path
	}
	in := strings.Split(path, "/")[1:]
	out := make([]string, 0, len(in))
	for i, seg := range in {
		last := i == len(in)-1
		switch seg {
		case ".":
		case "..":
			if len(out) > 0 {
				out = out[:len(out)-1]
			}
		default:
			out = append(out, seg)
			continue
		}
		if last {
			out = append(out, "")
		}
	}
	return "/" + strings.Join(out, "/")
}

// hasScheme reports whether ref starts with "scheme:".
func hasScheme(ref string) bool {
	for i, c := range ref {
		switch {
		case c >= 'a' && c <= 'z', c >= 'A' && c <= 'Z':
		case i > 0 && (c >= '0' && c <= '9' || c == '+' || c == '-' || c == '.'):
		case i > 0 && c == ':':
			return true
		default:
			return false
		}
	}
	return false
}

func concat(base, ref string) string {
	return strings.TrimSuffix(base, "/") + "/" + strings.TrimPrefix(ref, "/")
}
