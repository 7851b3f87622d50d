package resolver

import (
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/umputun/userheaders/pkg/browser"
	"github.com/umputun/userheaders/pkg/headers"
)

// fakeProber simulates the platform probe
type fakeProber struct {
	id  browser.Identity
	err error
	dir string
}

func (f *fakeProber) Detect() (browser.Identity, error)  { return f.id, f.err }
func (f *fakeProber) ProfileDir(browser.Identity) string { return f.dir }

func newTestResolver(p Prober, locale string) *Resolver {
	r := NewWithProber(p)
	r.locale = func() string { return locale }
	return r
}

func TestResolve_Firefox37Windows(t *testing.T) {
	// simulated windows probe reporting firefox 37 with en-US locale
	prober := &fakeProber{id: browser.Identity{
		Family:       browser.FamilyFirefox,
		MajorVersion: 37,
		Platform:     browser.PlatformWindows,
	}}
	r := newTestResolver(prober, "en-US")

	safe := headers.Safe(r.Resolve())
	assert.Equal(t, map[string]string{
		"User-Agent":      "Mozilla/5.0 (Windows NT 6.3; WOW64; rv:37.0) Gecko/20100101 Firefox/37.0",
		"Accept":          "text/html,application/xhtml+xml,application/xml;q=0.9,*/*;q=0.8",
		"Accept-Language": "en-US,en;q=0.5",
		"DNT":             "1",
	}, safe.Map())
}

func TestResolve_DetectionFailureUsesFallback(t *testing.T) {
	prober := &fakeProber{err: &browser.DetectionError{Reason: browser.ReasonUnsupported}}
	r := newTestResolver(prober, "en-US")

	p := r.Resolve()
	require.NotNil(t, p)
	assert.Equal(t, FallbackUserAgent, p.Get("user-agent"))
	assert.Equal(t, "en-US,en;q=0.9", p.Get("accept-language"))
	assert.False(t, p.Has("dnt"))
}

func TestResolve_RegistryMissUsesFallback(t *testing.T) {
	prober := &fakeProber{id: browser.Identity{Family: browser.FamilyOther, Platform: browser.PlatformLinux}}
	r := newTestResolver(prober, "en-US")

	p := r.Resolve()
	assert.Equal(t, FallbackUserAgent, p.Get("user-agent"))
}

func TestResolve_TotalFallbackNeverEmpty(t *testing.T) {
	// probe always fails and registry always misses: still a usable profile
	for _, prober := range []*fakeProber{
		{err: &browser.DetectionError{Reason: browser.ReasonNoAssociation}},
		{id: browser.Identity{Family: browser.FamilyOther}},
	} {
		r := newTestResolver(prober, "")
		p := r.Resolve()
		require.NotNil(t, p)
		assert.Positive(t, p.Len())
		assert.NotEmpty(t, p.Get("user-agent"))
	}
}

func TestResolve_Idempotent(t *testing.T) {
	prober := &fakeProber{id: browser.Identity{
		Family:       browser.FamilyChrome,
		MajorVersion: 120,
		Platform:     browser.PlatformLinux,
	}}
	r := newTestResolver(prober, "en-GB")

	first := r.Resolve()
	second := r.Resolve()
	assert.True(t, first.Equal(second), "no OS change, identical profiles")
}

func TestResolve_WellFormedAcceptLanguage(t *testing.T) {
	probers := []*fakeProber{
		{id: browser.Identity{Family: browser.FamilyFirefox, MajorVersion: 128, Platform: browser.PlatformLinux}},
		{id: browser.Identity{Family: browser.FamilyChrome, MajorVersion: 124, Platform: browser.PlatformMacOS}},
		{id: browser.Identity{Family: browser.FamilySafari, MajorVersion: 17, Platform: browser.PlatformMacOS}},
		{err: &browser.DetectionError{Reason: browser.ReasonUnsupported}},
	}
	for _, prober := range probers {
		r := newTestResolver(prober, "en-US")
		p := r.Resolve()
		assert.NotEmpty(t, p.Get("user-agent"))
		assertValidAcceptLanguage(t, p.Get("accept-language"))
	}
}

func TestResolve_FirefoxRefinement(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "compatibility.ini"),
		[]byte("[Compatibility]\nLastVersion=98.0.2_20220313/20220313\n"), 0o600))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "prefs.js"),
		[]byte(`user_pref("browser.startup.page", 3);
user_pref("intl.accept_languages", "de-DE, de, en");
`), 0o600))

	prober := &fakeProber{
		id:  browser.Identity{Family: browser.FamilyFirefox, MajorVersion: 92, Platform: browser.PlatformLinux},
		dir: dir,
	}
	r := newTestResolver(prober, "en-US")

	p := r.Resolve()
	assert.Contains(t, p.Get("user-agent"), "Firefox/98.0", "version refined from compatibility.ini")
	assert.Equal(t, "de-DE,de;q=0.5", p.Get("accept-language"), "locale refined from prefs.js")
}

func TestResolve_ChromiumRefinement(t *testing.T) {
	userData := t.TempDir()
	dir := filepath.Join(userData, "Default")
	require.NoError(t, os.Mkdir(dir, 0o700))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "Preferences"),
		[]byte(`{"intl":{"accept_languages":"fr-FR,fr,en-US"}}`), 0o600))
	require.NoError(t, os.WriteFile(filepath.Join(userData, "Last Version"),
		[]byte("121.0.6167.184\n"), 0o600))

	prober := &fakeProber{
		id:  browser.Identity{Family: browser.FamilyChrome, MajorVersion: 118, Platform: browser.PlatformLinux},
		dir: dir,
	}
	r := newTestResolver(prober, "en-US")

	p := r.Resolve()
	assert.Contains(t, p.Get("user-agent"), "Chrome/121.0.0.0")
	assert.Equal(t, "fr-FR,fr;q=0.9", p.Get("accept-language"))
}

func TestResolve_RefinementParseFailureNonFatal(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "Preferences"), []byte("{broken json"), 0o600))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "compatibility.ini"), []byte("\x00\x01garbage"), 0o600))

	prober := &fakeProber{
		id:  browser.Identity{Family: browser.FamilyChrome, MajorVersion: 124, Platform: browser.PlatformLinux},
		dir: dir,
	}
	r := newTestResolver(prober, "en-US")

	p := r.Resolve()
	assert.Contains(t, p.Get("user-agent"), "Chrome/124.0.0.0", "registry values kept on parse failure")
	assert.Equal(t, "en-US,en;q=0.9", p.Get("accept-language"))
}

func TestSafe_SubsetOfResolve(t *testing.T) {
	prober := &fakeProber{id: browser.Identity{Family: browser.FamilyFirefox, MajorVersion: 128, Platform: browser.PlatformLinux}}
	r := newTestResolver(prober, "en-US")

	full := r.Resolve()
	safe := r.Safe()
	for _, k := range safe.Keys() {
		assert.True(t, full.Has(k))
		assert.True(t, headers.IsSafe(k))
	}
}

func TestMajorVersion(t *testing.T) {
	assert.Equal(t, 124, majorVersion("124.0.6367.91"))
	assert.Equal(t, 98, majorVersion("98.0.2_20220313/20220313"))
	assert.Equal(t, 7, majorVersion(" 7 "))
	assert.Equal(t, 0, majorVersion(""))
	assert.Equal(t, 0, majorVersion("v12"))
}

func TestFirstLocale(t *testing.T) {
	assert.Equal(t, "en-US", firstLocale("en-US, en"))
	assert.Equal(t, "de-DE", firstLocale("de_DE"))
	assert.Equal(t, "fr", firstLocale("fr"))
}

// assertValidAcceptLanguage checks the comma-separated tag;q=weight syntax
// with weights in descending order.
func assertValidAcceptLanguage(t *testing.T, v string) {
	t.Helper()
	require.NotEmpty(t, v)
	prev := 2.0 // above any legal q
	for _, part := range strings.Split(v, ",") {
		part = strings.TrimSpace(part)
		tag, qs, found := strings.Cut(part, ";q=")
		require.NotEmpty(t, tag)
		q := 1.0
		if found {
			parsed, err := strconv.ParseFloat(qs, 64)
			require.NoError(t, err, "bad q weight in %q", v)
			q = parsed
		}
		assert.LessOrEqual(t, q, prev, "q weights must descend in %q", v)
		prev = q
	}
}
