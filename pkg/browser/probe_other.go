//go:build !linux && !darwin && !windows

package browser

import "fmt"

func detectDefault() (Identity, error) {
	return Identity{}, &DetectionError{Reason: ReasonUnsupported}
}

func profileDir(Identity) string { return "" }

func openURL(string) error {
	return fmt.Errorf("opening a browser is not supported on this platform")
}
