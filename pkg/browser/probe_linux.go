//go:build linux

package browser

import (
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	"gopkg.in/ini.v1"
)

// detectDefault resolves the x-scheme-handler/http association the desktop
// would use for a clicked link. Tries xdg-settings, then xdg-mime, then the
// user's mimeapps.list directly; each step is best effort.
func detectDefault() (Identity, error) {
	handler := ""

	if out, err := exec.Command("xdg-settings", "get", "default-web-browser").Output(); err == nil {
		handler = strings.TrimSpace(string(out))
	}
	if handler == "" {
		if out, err := exec.Command("xdg-mime", "query", "default", "x-scheme-handler/http").Output(); err == nil {
			handler = strings.TrimSpace(string(out))
		}
	}
	if handler == "" {
		handler = mimeappsHandler()
	}
	if handler == "" {
		return Identity{}, &DetectionError{Reason: ReasonNoAssociation}
	}

	return Identity{Family: FamilyFromHandler(handler), Platform: PlatformLinux}, nil
}

// mimeappsHandler reads the http handler straight from mimeapps.list, the
// file the xdg tools consult, for hosts without the xdg-utils binaries.
func mimeappsHandler() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	configDir := os.Getenv("XDG_CONFIG_HOME")
	if configDir == "" {
		configDir = filepath.Join(home, ".config")
	}

	cfg, err := ini.Load(filepath.Join(configDir, "mimeapps.list"))
	if err != nil {
		return ""
	}
	for _, section := range []string{"Default Applications", "Added Associations"} {
		v := cfg.Section(section).Key("x-scheme-handler/http").String()
		if v != "" {
			// the value may list several desktop entries, first wins
			return strings.SplitN(v, ";", 2)[0]
		}
	}
	return ""
}

func profileDir(id Identity) string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	configDir := os.Getenv("XDG_CONFIG_HOME")
	if configDir == "" {
		configDir = filepath.Join(home, ".config")
	}

	switch id.Family {
	case FamilyFirefox:
		return firefoxProfilePath(filepath.Join(home, ".mozilla", "firefox"))
	case FamilyChrome:
		for _, dir := range []string{"google-chrome", "chromium"} {
			candidate := filepath.Join(configDir, dir, "Default")
			if st, err := os.Stat(candidate); err == nil && st.IsDir() {
				return candidate
			}
		}
		return ""
	case FamilyEdge:
		return filepath.Join(configDir, "microsoft-edge", "Default")
	default:
		return ""
	}
}

func openURL(url string) error {
	cmd := exec.Command("xdg-open", url)
	cmd.Stdout = nil
	cmd.Stderr = nil
	return cmd.Start()
}
