package browser

import (
	"path/filepath"
	"strings"

	"gopkg.in/ini.v1"
)

// firefoxProfilePath resolves the active Firefox profile directory from
// profiles.ini under the given base directory (~/.mozilla/firefox and
// friends). Returns "" when the file is missing or holds no usable profile.
//
// Modern Firefox records the active profile in [Install*] sections; older
// layouts mark one [ProfileN] section with Default=1. Both are honored,
// [Install*] first.
func firefoxProfilePath(baseDir string) string {
	cfg, err := ini.Load(filepath.Join(baseDir, "profiles.ini"))
	if err != nil {
		return ""
	}

	resolve := func(path string, relative bool) string {
		if path == "" {
			return ""
		}
		if relative {
			return filepath.Join(baseDir, path)
		}
		return path
	}

	// install sections point directly at the default profile path
	for _, sec := range cfg.Sections() {
		if !strings.HasPrefix(sec.Name(), "Install") {
			continue
		}
		if p := resolve(sec.Key("Default").String(), true); p != "" {
			return p
		}
	}

	// fall back to the profile flagged Default=1, then to any profile
	var first string
	for _, sec := range cfg.Sections() {
		if !strings.HasPrefix(sec.Name(), "Profile") {
			continue
		}
		path := resolve(sec.Key("Path").String(), sec.Key("IsRelative").MustInt(1) == 1)
		if path == "" {
			continue
		}
		if sec.Key("Default").String() == "1" {
			return path
		}
		if first == "" {
			first = path
		}
	}
	return first
}
