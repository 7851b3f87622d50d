//go:build windows

package browser

import (
	"os"
	"os/exec"
	"path/filepath"

	"golang.org/x/sys/windows/registry"
)

const urlAssocKey = `Software\Microsoft\Windows\Shell\Associations\UrlAssociations\http\UserChoice`

// detectDefault reads the per-user UserChoice ProgId for the http scheme,
// the association Windows consults when the user clicks a link.
func detectDefault() (Identity, error) {
	key, err := registry.OpenKey(registry.CURRENT_USER, urlAssocKey, registry.QUERY_VALUE)
	if err != nil {
		return Identity{}, &DetectionError{Reason: ReasonNoAssociation, Err: err}
	}
	defer key.Close()

	progID, _, err := key.GetStringValue("ProgId")
	if err != nil {
		return Identity{}, &DetectionError{Reason: ReasonQueryFailed, Err: err}
	}
	if progID == "" {
		return Identity{}, &DetectionError{Reason: ReasonNoAssociation}
	}

	return Identity{Family: FamilyFromHandler(progID), Platform: PlatformWindows}, nil
}

func profileDir(id Identity) string {
	switch id.Family {
	case FamilyFirefox:
		appData := os.Getenv("APPDATA")
		if appData == "" {
			return ""
		}
		return firefoxProfilePath(filepath.Join(appData, "Mozilla", "Firefox"))
	case FamilyChrome:
		localAppData := os.Getenv("LOCALAPPDATA")
		if localAppData == "" {
			return ""
		}
		return filepath.Join(localAppData, "Google", "Chrome", "User Data", "Default")
	case FamilyEdge:
		localAppData := os.Getenv("LOCALAPPDATA")
		if localAppData == "" {
			return ""
		}
		return filepath.Join(localAppData, "Microsoft", "Edge", "User Data", "Default")
	default:
		return ""
	}
}

func openURL(url string) error {
	return exec.Command("rundll32", "url.dll,FileProtocolHandler", url).Start()
}
