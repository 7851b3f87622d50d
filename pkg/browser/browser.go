// Package browser probes the operating system for the user's default web
// browser, the one the OS would launch for an http link. Detection is
// read-only introspection of OS handler associations; it never touches the
// network and never writes anything.
package browser

import (
	"fmt"
	"os"
	"runtime"
	"strings"
)

// Family is a browser family recognized by the catalogue.
type Family string

// known browser families
const (
	FamilyFirefox Family = "firefox"
	FamilyChrome  Family = "chrome"
	FamilySafari  Family = "safari"
	FamilyEdge    Family = "edge"
	FamilyOther   Family = "other"
)

// Platform is the OS family the probe runs on.
type Platform string

// known platforms
const (
	PlatformWindows Platform = "windows"
	PlatformMacOS   Platform = "macos"
	PlatformLinux   Platform = "linux"
	PlatformOther   Platform = "other"
)

// Identity describes the detected default browser. MajorVersion is 0 when
// the probe could not determine it; the resolver may refine it later from
// the browser's own profile files.
type Identity struct {
	Family       Family
	MajorVersion int
	Platform     Platform
}

func (id Identity) String() string {
	if id.MajorVersion > 0 {
		return fmt.Sprintf("%s/%d on %s", id.Family, id.MajorVersion, id.Platform)
	}
	return fmt.Sprintf("%s on %s", id.Family, id.Platform)
}

// detection failure reason codes
const (
	ReasonNoAssociation = "no-association"       // OS has no default handler for http
	ReasonQueryFailed   = "query-failed"         // the association query itself failed
	ReasonUnsupported   = "unsupported-platform" // no probe implementation for this OS
)

// DetectionError reports a failed default-browser probe. It is expected and
// recoverable; callers fall back to a generic profile instead of failing.
type DetectionError struct {
	Reason string
	Err    error
}

func (e *DetectionError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("browser detection failed (%s): %v", e.Reason, e.Err)
	}
	return fmt.Sprintf("browser detection failed (%s)", e.Reason)
}

func (e *DetectionError) Unwrap() error { return e.Err }

// Detect queries the OS default-handler association for http links and
// returns the identity of the browser behind it. A failed query yields
// *DetectionError, never a panic.
func Detect() (Identity, error) { return detectDefault() }

// ProfileDir returns the best-effort path to the detected browser's active
// profile directory, "" when the layout is unknown or the directory does
// not exist. A missing directory is not an error.
func ProfileDir(id Identity) string {
	dir := profileDir(id)
	if dir == "" {
		return ""
	}
	if st, err := os.Stat(dir); err != nil || !st.IsDir() {
		return ""
	}
	return dir
}

// OpenURL opens the URL in the user's default browser.
func OpenURL(url string) error { return openURL(url) }

// CurrentPlatform maps runtime.GOOS to a catalogue platform.
func CurrentPlatform() Platform {
	switch runtime.GOOS {
	case "windows":
		return PlatformWindows
	case "darwin":
		return PlatformMacOS
	case "linux":
		return PlatformLinux
	default:
		return PlatformOther
	}
}

// FamilyFromHandler maps an OS handler identifier (desktop entry, ProgId or
// bundle id) to a browser family. Matching is by substring: the identifiers
// vary wildly between OSes ("firefox.desktop", "FirefoxURL-308046...",
// "org.mozilla.firefox") but all contain the family name.
func FamilyFromHandler(handler string) Family {
	h := strings.ToLower(handler)
	switch {
	case strings.Contains(h, "firefox") || strings.Contains(h, "mozilla"):
		return FamilyFirefox
	case strings.Contains(h, "edge") || strings.Contains(h, "msedge"):
		return FamilyEdge
	case strings.Contains(h, "chrome") || strings.Contains(h, "chromium"):
		return FamilyChrome
	case strings.Contains(h, "safari"):
		return FamilySafari
	default:
		return FamilyOther
	}
}

// SystemLocale returns the user's locale as a BCP 47 tag ("en-US") derived
// from the environment, "" when undetectable. Best effort only; the caller
// has its own fallback.
func SystemLocale() string {
	for _, name := range []string{"LC_ALL", "LC_MESSAGES", "LANG"} {
		v := os.Getenv(name)
		if v == "" || v == "C" || v == "POSIX" {
			continue
		}
		// strip encoding and modifier: "en_US.UTF-8@euro" -> "en_US"
		if i := strings.IndexAny(v, ".@"); i >= 0 {
			v = v[:i]
		}
		if v == "" {
			continue
		}
		return strings.Replace(v, "_", "-", 1)
	}
	return ""
}
