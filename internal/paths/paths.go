package paths

import (
	"os"
	"os/user"
	"path/filepath"
	"strconv"
)

// AppName names every per-user directory netpulse creates.
const AppName = "netpulse"

// HomeDir returns the invoking user's home directory. Privileged ICMP often
// needs sudo; resolving SUDO_USER keeps the sample database and logs in the
// same place for root and non-root runs.
func HomeDir() (string, error) {
	if sudoUser := os.Getenv("SUDO_USER"); sudoUser != "" {
		if u, err := user.Lookup(sudoUser); err == nil {
			return u.HomeDir, nil
		}
	}
	return os.UserHomeDir()
}

// RealUser returns SUDO_UID/SUDO_GID. ok is false when not running under sudo.
func RealUser() (uid, gid int, ok bool) {
	sudoUID := os.Getenv("SUDO_UID")
	if sudoUID == "" {
		return 0, 0, false
	}
	u, err := strconv.Atoi(sudoUID)
	if err != nil {
		return 0, 0, false
	}
	g, _ := strconv.Atoi(os.Getenv("SUDO_GID"))
	return u, g, true
}

// ChownToRealUser hands path back to the sudo caller. No-op otherwise.
func ChownToRealUser(path string) {
	if uid, gid, ok := RealUser(); ok {
		os.Chown(path, uid, gid)
	}
}

// ensure creates ~/<rel...>/netpulse and returns it.
func ensure(rel ...string) (string, error) {
	home, err := HomeDir()
	if err != nil {
		return "", err
	}
	dir := filepath.Join(append(append([]string{home}, rel...), AppName)...)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", err
	}
	ChownToRealUser(dir)
	return dir, nil
}

// DataDir returns ~/.local/share/netpulse, where the sample store lives.
func DataDir() (string, error) { return ensure(".local", "share") }

// ConfigDir returns ~/.config/netpulse.
func ConfigDir() (string, error) { return ensure(".config") }

// StateDir returns ~/.local/state/netpulse, used for rotated logs.
func StateDir() (string, error) { return ensure(".local", "state") }

// DefaultConfigFile returns ~/.config/netpulse/config.yaml. The file itself
// may not exist.
func DefaultConfigFile() (string, error) {
	dir, err := ConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "config.yaml"), nil
}

// DefaultStorePath returns the store file for a driver inside DataDir.
func DefaultStorePath(driver string) (string, error) {
	dir, err := DataDir()
	if err != nil {
		return "", err
	}
	name := AppName + ".db"
	if driver == "bolt" {
		name = AppName + ".bolt"
	}
	return filepath.Join(dir, name), nil
}
