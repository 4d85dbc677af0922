package spawn

import (
	"os"
	"os/exec"
	"path/filepath"

	nserrors "nsctl/errors"
)

func fileExists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && !info.IsDir()
}

// findHelperInit locates the my_init helper binary by searching the
// candidate paths in spec.md §6, substituting the running binary's own
// directory for the install-prefix-relative candidates.
func findHelperInit(self string) (string, error) {
	selfDir := filepath.Dir(self)
	candidates := []string{
		filepath.Join(selfDir, "..", "lib", "procszoo", "my_init"),
		filepath.Join(selfDir, "my_init"),
		"/usr/local/lib/procszoo/my_init",
		"/usr/lib/procszoo/my_init",
	}
	for _, c := range candidates {
		if fileExists(c) {
			return c, nil
		}
	}
	return "", nserrors.ErrHelperInitNotFound
}

// findShell resolves the user's login shell: $SHELL, then /bin/bash,
// /usr/bin/bash or /usr/local/bin/bash, then whatever "sh" resolves to on
// $PATH, then /bin/sh.
func findShell() (string, error) {
	if shell := os.Getenv("SHELL"); shell != "" {
		return shell, nil
	}
	for _, c := range []string{"/bin/bash", "/usr/bin/bash", "/usr/local/bin/bash"} {
		if fileExists(c) {
			return c, nil
		}
	}
	if path, err := exec.LookPath("sh"); err == nil {
		return path, nil
	}
	return "/bin/sh", nil
}
