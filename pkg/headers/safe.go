package headers

import "strings"

// safeHeaders are static fingerprint headers, constant across a session and
// safe to replay verbatim on every request.
var safeHeaders = map[string]struct{}{
	"user-agent":      {},
	"accept":          {},
	"accept-language": {},
	"dnt":             {},
}

// unsafeHeaders must never be replayed from a captured request: they either
// carry credentials, depend on the request body, or legitimately vary per
// request and are the caller's job to supply.
var unsafeHeaders = map[string]struct{}{
	// credential and tracking leakage
	"authorization":       {},
	"cookie":              {},
	"cookie2":             {},
	"proxy-authorization": {},
	"x-csrf-token":        {},
	"x-csrftoken":         {},
	"x-xsrf-token":        {},
	"x-uidh":              {},
	// entity and per-request headers
	"content-encoding":       {},
	"content-language":       {},
	"content-length":         {},
	"content-location":       {},
	"content-md5":            {},
	"content-range":          {},
	"content-type":           {},
	"date":                   {},
	"expect":                 {},
	"expires":                {},
	"front-end-https":        {},
	"host":                   {},
	"if-match":               {},
	"if-modified-since":      {},
	"if-none-match":          {},
	"if-range":               {},
	"if-unmodified-since":    {},
	"last-modified":          {},
	"origin":                 {},
	"range":                  {},
	"referer":                {},
	"te":                     {},
	"transfer-encoding":      {},
	"upgrade":                {},
	"x-forwarded-host":       {},
	"x-forwarded-proto":      {},
	"x-http-method-override": {},
	"x-proxyuser-ip":         {},
	"x-requested-with":       {},
}

// canonicalNames maps lower-cased header names to their conventional wire
// casing. Names outside the table get Title-Case treatment.
var canonicalNames = map[string]string{
	"user-agent":                "User-Agent",
	"accept":                    "Accept",
	"accept-charset":            "Accept-Charset",
	"accept-datetime":           "Accept-Datetime",
	"accept-encoding":           "Accept-Encoding",
	"accept-language":           "Accept-Language",
	"cache-control":             "Cache-Control",
	"connection":                "Connection",
	"dnt":                       "DNT",
	"from":                      "From",
	"pragma":                    "Pragma",
	"te":                        "TE",
	"upgrade-insecure-requests": "Upgrade-Insecure-Requests",
	"x-att-deviceid":            "X-ATT-Deviceid",
	"x-wap-profile":             "X-Wap-Profile",
	"x-requested-with":          "X-Requested-With",
	"x-forwarded-for":           "X-Forwarded-For",
	"x-csrf-token":              "X-Csrf-Token",
	"x-uidh":                    "X-UIDH",
	"sec-fetch-dest":            "Sec-Fetch-Dest",
	"sec-fetch-mode":            "Sec-Fetch-Mode",
	"sec-fetch-site":            "Sec-Fetch-Site",
	"sec-fetch-user":            "Sec-Fetch-User",
}

// IsSafe reports whether a header is on the fixed reuse-safe allow-list.
func IsSafe(name string) bool {
	_, ok := safeHeaders[strings.ToLower(name)]
	return ok
}

// IsUnsafe reports whether a header must never be captured or replayed.
func IsUnsafe(name string) bool {
	_, ok := unsafeHeaders[strings.ToLower(name)]
	return ok
}

// Canonical returns the conventional wire casing for a header name,
// falling back to Title-Case for unknown names.
func Canonical(name string) string {
	key := strings.ToLower(name)
	if c, ok := canonicalNames[key]; ok {
		return c
	}
	parts := strings.Split(key, "-")
	for i, p := range parts {
		if p != "" {
			parts[i] = strings.ToUpper(p[:1]) + p[1:]
		}
	}
	return strings.Join(parts, "-")
}

// Safe returns the subset of the profile restricted to the reuse-safe
// allow-list. Pure filter: the input is not mutated and headers outside the
// allow-list never pass through, whatever the input contains.
func Safe(p *Profile) *Profile {
	res := New()
	if p == nil {
		return res
	}
	for _, k := range p.Keys() {
		if IsSafe(k) {
			res.Set(k, p.Get(k))
		}
	}
	return res
}

// StripUnsafe returns the profile with all never-replay headers removed.
// Unlike Safe it keeps unlisted headers, so a harvested set retains values
// like Accept-Encoding for diagnostics.
func StripUnsafe(p *Profile) *Profile {
	res := New()
	if p == nil {
		return res
	}
	for _, k := range p.Keys() {
		if !IsUnsafe(k) {
			res.Set(k, p.Get(k))
		}
	}
	return res
}
