// Package headers defines the header profile type shared by the resolver,
// registry and harvester, plus the safe/unsafe classification of request
// headers. A profile holds the static fingerprint headers a browser sends;
// per-request headers like Referer or Cookie never belong in one.
package headers

import (
	"sort"
	"strings"
)

// Profile is an ordered mapping of HTTP request header names to values.
// Names are stored lower-case and are unique within a profile; iteration
// order follows insertion order.
type Profile struct {
	keys   []string
	values map[string]string
}

// New creates an empty profile.
func New() *Profile {
	return &Profile{values: map[string]string{}}
}

// Set adds or replaces a header. The name is lower-cased for storage.
func (p *Profile) Set(name, value string) {
	key := strings.ToLower(strings.TrimSpace(name))
	if key == "" {
		return
	}
	if _, ok := p.values[key]; !ok {
		p.keys = append(p.keys, key)
	}
	p.values[key] = value
}

// Get returns the value for a header name, "" when absent.
func (p *Profile) Get(name string) string {
	return p.values[strings.ToLower(name)]
}

// Has reports whether the header is present.
func (p *Profile) Has(name string) bool {
	_, ok := p.values[strings.ToLower(name)]
	return ok
}

// Delete removes a header if present.
func (p *Profile) Delete(name string) {
	key := strings.ToLower(name)
	if _, ok := p.values[key]; !ok {
		return
	}
	delete(p.values, key)
	for i, k := range p.keys {
		if k == key {
			p.keys = append(p.keys[:i], p.keys[i+1:]...)
			break
		}
	}
}

// Keys returns the header names in insertion order.
func (p *Profile) Keys() []string {
	res := make([]string, len(p.keys))
	copy(res, p.keys)
	return res
}

// Len returns the number of headers in the profile.
func (p *Profile) Len() int { return len(p.keys) }

// Clone returns an independent copy of the profile.
func (p *Profile) Clone() *Profile {
	res := New()
	for _, k := range p.keys {
		res.Set(k, p.values[k])
	}
	return res
}

// Map returns the profile as a plain map with canonical header casing,
// suitable for attaching to an outgoing request.
func (p *Profile) Map() map[string]string {
	res := make(map[string]string, len(p.keys))
	for _, k := range p.keys {
		res[Canonical(k)] = p.values[k]
	}
	return res
}

// Equal reports whether two profiles hold the same headers with the same
// values, ignoring order.
func (p *Profile) Equal(other *Profile) bool {
	if other == nil || len(p.keys) != len(other.keys) {
		return false
	}
	for k, v := range p.values {
		if ov, ok := other.values[k]; !ok || ov != v {
			return false
		}
	}
	return true
}

// FromMap builds a profile from a plain header map. Input order is not
// recoverable from a map, so keys are added sorted for determinism.
func FromMap(m map[string]string) *Profile {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	res := New()
	for _, k := range keys {
		res.Set(k, m[k])
	}
	return res
}
