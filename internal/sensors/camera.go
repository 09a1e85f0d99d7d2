package sensors

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"regexp"
	"time"
)

// imageName matches the file name the capture helper prints.
var imageName = regexp.MustCompile(`IMG_\d{4}\.JPG`)

// Camera runs the USB camera helper script, which downloads the shot into
// Dir and prints its name; the file is then renamed to its UTC capture time.
type Camera struct {
	Script  string
	Dir     string
	Timeout time.Duration

	now func() time.Time
	run func(ctx context.Context, script string) ([]byte, error)
}

// NewCamera returns a camera using the given helper script and image store.
func NewCamera(script, dir string) *Camera {
	return &Camera{
		Script:  script,
		Dir:     dir,
		Timeout: 30 * time.Second,
		now:     time.Now,
		run:     runScript,
	}
}

func runScript(ctx context.Context, script string) ([]byte, error) {
	return exec.CommandContext(ctx, script).Output()
}

// Capture takes one photo.
func (c *Camera) Capture() error {
	_, err := c.capture()
	return err
}

func (c *Camera) capture() (string, error) {
	taken := c.now().UTC()

	ctx, cancel := context.WithTimeout(context.Background(), c.Timeout)
	defer cancel()
	out, err := c.run(ctx, c.Script)
	if err != nil {
		return "", fmt.Errorf("camera helper: %w: %w", ErrUnavailable, err)
	}

	name := imageName.Find(out)
	if name == nil {
		return "", fmt.Errorf("camera helper: %w: no image reported", ErrUnavailable)
	}

	oldPath := filepath.Join(c.Dir, string(name))
	newPath := filepath.Join(c.Dir, taken.Format("2006_01_02_15_04_05")+".jpg")
	if err := os.Rename(oldPath, newPath); err != nil {
		return "", fmt.Errorf("camera rename %s: %w", oldPath, err)
	}
	return newPath, nil
}
