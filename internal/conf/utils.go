package conf

import (
	"os"
	"path/filepath"
	"regexp"
	"runtime"

	"github.com/tphakala/birdview/internal/errors"
)

const (
	maskedValue = "********"
	appDirName  = "birdview"
)

// GetDefaultConfigPaths lists where config.yaml is looked up: the working
// directory, the per-user config directory, then /etc/birdview. Containers
// also search /config, the conventional volume mount. When one of them
// already holds config.yaml, only that directory is returned.
func GetDefaultConfigPaths() ([]string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return nil, errors.New(err).
			Component("configuration").
			Category(errors.CategorySystem).
			Context("operation", "get-home-directory").
			Build()
	}

	paths := []string{"."}
	if runningInContainer() {
		paths = append(paths, "/config")
	}
	if runtime.GOOS == "windows" {
		paths = append(paths, filepath.Join(home, "AppData", "Roaming", appDirName))
	} else {
		paths = append(paths, filepath.Join(home, ".config", appDirName), "/etc/"+appDirName)
	}

	for _, dir := range paths {
		if _, err := os.Stat(filepath.Join(dir, "config.yaml")); err == nil {
			return []string{dir}, nil
		}
	}
	return paths, nil
}

// runningInContainer detects Docker and Podman.
func runningInContainer() bool {
	for _, marker := range []string{"/.dockerenv", "/run/.containerenv"} {
		if _, err := os.Stat(marker); err == nil {
			return true
		}
	}
	return os.Getenv("container") != ""
}

var credentialsPattern = regexp.MustCompile(`^((?i:mysql|ftp|sftp)://)([^@]*)@`)

// MaskSource hides the credentials of mysql, ftp and sftp sources.
func MaskSource(source string) string {
	return credentialsPattern.ReplaceAllString(source, "${1}"+maskedValue+"@")
}
