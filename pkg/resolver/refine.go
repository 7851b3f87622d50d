package resolver

import (
	"encoding/json"
	"os"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"

	"gopkg.in/ini.v1"

	"github.com/umputun/userheaders/pkg/browser"
)

// refinement carries version and locale recovered from a browser's own
// profile files. Zero values mean "not found, keep what the registry has".
type refinement struct {
	version int
	locale  string
}

// refine reads the live profile directory for a better version and locale
// than the catalogue defaults. Everything here is best effort: unreadable
// or unexpected files simply leave the refinement empty.
func refine(family browser.Family, dir string) refinement {
	switch family {
	case browser.FamilyFirefox:
		return refineFirefox(dir)
	case browser.FamilyChrome, browser.FamilyEdge:
		return refineChromium(dir)
	default:
		return refinement{}
	}
}

var firefoxLangPref = regexp.MustCompile(`user_pref\("intl\.accept_languages",\s*"([^"]+)"\)`)

// refineFirefox reads compatibility.ini for the last-run version and
// prefs.js for a user-set accept_languages preference.
func refineFirefox(dir string) refinement {
	var res refinement

	if cfg, err := ini.Load(filepath.Join(dir, "compatibility.ini")); err == nil {
		// LastVersion looks like "128.0.2_20240801123456/20240801123456"
		res.version = majorVersion(cfg.Section("Compatibility").Key("LastVersion").String())
	}

	if data, err := os.ReadFile(filepath.Join(dir, "prefs.js")); err == nil {
		if m := firefoxLangPref.FindSubmatch(data); m != nil {
			res.locale = firstLocale(string(m[1]))
		}
	}
	return res
}

// refineChromium reads the profile's Preferences JSON for accept languages
// and the user-data directory's "Last Version" marker for the version.
func refineChromium(dir string) refinement {
	var res refinement

	if data, err := os.ReadFile(filepath.Join(dir, "Preferences")); err == nil {
		var prefs struct {
			Intl struct {
				AcceptLanguages string `json:"accept_languages"`
			} `json:"intl"`
		}
		if err := json.Unmarshal(data, &prefs); err == nil {
			res.locale = firstLocale(prefs.Intl.AcceptLanguages)
		}
	}

	// "Last Version" lives next to the profile dir in the user-data root
	for _, p := range []string{filepath.Join(dir, "Last Version"), filepath.Join(filepath.Dir(dir), "Last Version")} {
		if data, err := os.ReadFile(p); err == nil {
			if v := majorVersion(strings.TrimSpace(string(data))); v > 0 {
				res.version = v
				break
			}
		}
	}
	return res
}

// majorVersion extracts the leading major version from strings like
// "124.0.6367.91" or "128.0.2_20240801/...", 0 when there is none.
func majorVersion(s string) int {
	s = strings.TrimSpace(s)
	end := 0
	for end < len(s) && s[end] >= '0' && s[end] <= '9' {
		end++
	}
	if end == 0 {
		return 0
	}
	v, err := strconv.Atoi(s[:end])
	if err != nil {
		return 0
	}
	return v
}

// firstLocale takes the first tag of an accept-languages list ("en-US, en")
// and normalizes it to BCP 47 shape.
func firstLocale(list string) string {
	first := strings.SplitN(list, ",", 2)[0]
	first = strings.TrimSpace(first)
	return strings.Replace(first, "_", "-", 1)
}
