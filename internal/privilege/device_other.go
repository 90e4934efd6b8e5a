//go:build !unix

package privilege

import "errors"

// DeviceGroup is not supported on this platform.
func DeviceGroup(path string) (string, error) {
	return "", errors.New("device groups are not supported on this platform")
}

// AccessHint returns an empty string on this platform.
func AccessHint(path string) string {
	return ""
}
