package camera

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"runtime"
	"strconv"
	"strings"
)

// devicePath resolves an identifier to a device node on Linux.
// It returns "" for identifiers that are not local device nodes.
func devicePath(id string) string {
	if runtime.GOOS != "linux" {
		return ""
	}
	if strings.HasPrefix(id, "/dev/") {
		return id
	}
	if n, err := strconv.Atoi(id); err == nil && n >= 0 {
		return fmt.Sprintf("/dev/video%d", n)
	}
	return ""
}

// checkAccess classifies why a device node cannot be opened.
func checkAccess(path string) error {
	if path == "" {
		return nil
	}
	f, err := os.OpenFile(path, os.O_RDWR, 0)
	switch {
	case err == nil:
		return f.Close()
	case errors.Is(err, fs.ErrNotExist):
		return fmt.Errorf("%w: %s", ErrNoCamera, path)
	case errors.Is(err, fs.ErrPermission):
		return fmt.Errorf("%w: %s", ErrPermissionDenied, path)
	default:
		return fmt.Errorf("%w: %v", ErrNoCamera, err)
	}
}
