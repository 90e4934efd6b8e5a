//go:build unix

package privilege

import (
	"fmt"
	"os"
	"os/user"
	"slices"
	"strconv"
	"syscall"
)

// DeviceGroup returns the group that owns a device node.
func DeviceGroup(path string) (string, error) {
	info, err := os.Stat(path)
	if err != nil {
		return "", err
	}
	st, ok := info.Sys().(*syscall.Stat_t)
	if !ok {
		return "", fmt.Errorf("no ownership information for %s", path)
	}
	g, err := user.LookupGroupId(strconv.FormatUint(uint64(st.Gid), 10))
	if err != nil {
		return "", err
	}
	return g.Name, nil
}

// AccessHint explains how to get access to a device the current user cannot open.
// It returns an empty string when no better advice than the error itself exists.
func AccessHint(path string) string {
	group, err := DeviceGroup(path)
	if err != nil || group == "root" {
		return ""
	}

	u, err := user.Current()
	if err != nil {
		return ""
	}
	gids, err := u.GroupIds()
	if err != nil {
		return ""
	}
	g, err := user.LookupGroup(group)
	if err != nil {
		return ""
	}
	if slices.Contains(gids, g.Gid) {
		// Already a member; most likely the login session predates the change.
		return fmt.Sprintf("%s is a member of %q but the current session is not, log out and in again", u.Username, group)
	}
	return fmt.Sprintf("add %s to the %q group (sudo usermod -aG %s %s) and log in again", u.Username, group, group, u.Username)
}
