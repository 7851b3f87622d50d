//go:build darwin

package browser

import (
	"os"
	"os/exec"
	"path/filepath"

	"howett.net/plist"
)

// launch services preferences, the authority on scheme handlers
const lsPlistRel = "Library/Preferences/com.apple.launchservices/com.apple.launchservices.secure.plist"

type lsHandlers struct {
	Handlers []struct {
		URLScheme   string `plist:"LSHandlerURLScheme"`
		RoleAll     string `plist:"LSHandlerRoleAll"`
		RoleViewer  string `plist:"LSHandlerRoleViewer"`
		ContentType string `plist:"LSHandlerContentType"`
	} `plist:"LSHandlers"`
}

// detectDefault reads the LaunchServices handler registered for the http
// scheme. An absent entry means the user never changed the default, which
// is Safari on macOS.
func detectDefault() (Identity, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return Identity{}, &DetectionError{Reason: ReasonQueryFailed, Err: err}
	}

	data, err := os.ReadFile(filepath.Join(home, lsPlistRel))
	if err != nil {
		if os.IsNotExist(err) {
			// untouched defaults: Safari handles http
			return Identity{Family: FamilySafari, Platform: PlatformMacOS}, nil
		}
		return Identity{}, &DetectionError{Reason: ReasonQueryFailed, Err: err}
	}

	var prefs lsHandlers
	if _, err := plist.Unmarshal(data, &prefs); err != nil {
		return Identity{}, &DetectionError{Reason: ReasonQueryFailed, Err: err}
	}

	for _, h := range prefs.Handlers {
		if h.URLScheme != "http" && h.URLScheme != "https" {
			continue
		}
		bundle := h.RoleAll
		if bundle == "" {
			bundle = h.RoleViewer
		}
		if bundle != "" {
			return Identity{Family: FamilyFromHandler(bundle), Platform: PlatformMacOS}, nil
		}
	}
	return Identity{Family: FamilySafari, Platform: PlatformMacOS}, nil
}

func profileDir(id Identity) string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	appSupport := filepath.Join(home, "Library", "Application Support")

	switch id.Family {
	case FamilyFirefox:
		return firefoxProfilePath(filepath.Join(appSupport, "Firefox"))
	case FamilyChrome:
		return filepath.Join(appSupport, "Google", "Chrome", "Default")
	case FamilyEdge:
		return filepath.Join(appSupport, "Microsoft Edge", "Default")
	default:
		// Safari keeps no per-profile preference files we can use
		return ""
	}
}

func openURL(url string) error {
	return exec.Command("open", url).Start()
}
