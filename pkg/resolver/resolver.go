// Package resolver turns the detected default browser into a concrete
// header profile. Every failure along the way, probe, catalogue lookup or
// preference parsing, degrades to the next step and ultimately to a
// conservative fallback profile; Resolve never fails and never returns an
// empty profile.
package resolver

import (
	"log"

	"github.com/umputun/userheaders/pkg/browser"
	"github.com/umputun/userheaders/pkg/headers"
	"github.com/umputun/userheaders/pkg/registry"
)

// FallbackUserAgent is the stable user agent of the fallback profile, a
// broadly unremarkable current Chrome on Windows. Documented constant so
// integrators can detect when resolution degraded all the way down.
const FallbackUserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/124.0.0.0 Safari/537.36"

// Prober abstracts the OS queries, swappable for tests and for simulated
// platforms.
type Prober interface {
	Detect() (browser.Identity, error)
	ProfileDir(id browser.Identity) string
}

// osProber is the real platform probe.
type osProber struct{}

func (osProber) Detect() (browser.Identity, error)     { return browser.Detect() }
func (osProber) ProfileDir(id browser.Identity) string { return browser.ProfileDir(id) }

// Resolver resolves the current default browser to a header profile. It
// keeps no state between calls: every Resolve re-probes the OS so a changed
// default browser is picked up immediately.
type Resolver struct {
	prober Prober
	locale func() string
}

// New creates a resolver backed by the real OS probe.
func New() *Resolver {
	return &Resolver{prober: osProber{}, locale: browser.SystemLocale}
}

// NewWithProber creates a resolver with a custom probe implementation.
func NewWithProber(p Prober) *Resolver {
	return &Resolver{prober: p, locale: browser.SystemLocale}
}

// Resolve returns the full header profile of the detected default browser.
// Detection, lookup and refinement failures are absorbed: the result
// degrades to the fallback profile but is always usable.
func (r *Resolver) Resolve() *headers.Profile {
	id, err := r.prober.Detect()
	if err != nil {
		log.Printf("[DEBUG] browser detection failed, using fallback profile: %v", err)
		return r.Fallback()
	}

	match, ok := registry.Lookup(id)
	if !ok {
		log.Printf("[DEBUG] no catalogue entry for %s, using fallback profile", id)
		return r.Fallback()
	}

	version := id.MajorVersion
	locale := r.locale()

	// best-effort refinement from the browser's own preference files,
	// non-fatal on any parse trouble
	if dir := r.prober.ProfileDir(id); dir != "" {
		ref := refine(id.Family, dir)
		if ref.version > 0 {
			version = ref.version
		}
		if ref.locale != "" {
			locale = ref.locale
		}
	}

	if match.Approximate {
		log.Printf("[DEBUG] approximate catalogue match for %s", id)
	}
	return match.Entry.Render(version, locale)
}

// Safe resolves and reduces the profile to the reuse-safe subset, the usual
// entry point for integrators.
func (r *Resolver) Safe() *headers.Profile {
	return headers.Safe(r.Resolve())
}

// Fallback returns the conservative constant profile used when detection or
// lookup fails: blend in as some common browser rather than error out.
func (r *Resolver) Fallback() *headers.Profile {
	p := headers.New()
	p.Set("user-agent", FallbackUserAgent)
	p.Set("accept", "text/html,application/xhtml+xml,application/xml;q=0.9,image/avif,image/webp,image/apng,*/*;q=0.8,application/signed-exchange;v=b3;q=0.7")
	p.Set("accept-language", "en-US,en;q=0.9")
	return p
}
