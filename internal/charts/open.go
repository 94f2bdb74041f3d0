package charts

import (
	"os/exec"
	"runtime"

	"github.com/pkg/errors"
)

// ErrNoViewer is returned when the platform has no image viewer launcher
var ErrNoViewer = errors.New("no image viewer available")

// viewerCommand returns the launcher for the current platform
func viewerCommand(path string) (*exec.Cmd, error) {
	switch runtime.GOOS {
	case "darwin":
		return exec.Command("open", path), nil
	case "windows":
		return exec.Command("cmd", "/c", "start", "", path), nil
	}

	bin, err := exec.LookPath("xdg-open")
	if err != nil {
		return nil, ErrNoViewer
	}
	return exec.Command(bin, path), nil
}

// Open shows the image with the platform viewer without waiting for it to exit
func Open(path string) error {
	cmd, err := viewerCommand(path)
	if err != nil {
		return err
	}
	if err := cmd.Start(); err != nil {
		return errors.Wrapf(err, "failed to open %s", path)
	}
	return cmd.Process.Release()
}
