// Package linker turns generated assembly or C into an executable.
//
// Design: the system C compiler driver assembles and links in one step for
// both .s and .c input, and supplies the C runtime printf needs.
package linker

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os/exec"
	"strings"

	"github.com/GriffinCanCode/minicc/pkg/logger"
)

// ErrNoCompiler is returned when no C compiler driver is on PATH
var ErrNoCompiler = errors.New("no C compiler found")

// candidates are tried in order by Find
var candidates = []string{"cc", "gcc", "clang"}

// Linker builds executables with one compiler driver
type Linker struct {
	driver string
	flags  []string
}

// New uses driver, which must be a path or a name on PATH
func New(driver string, flags ...string) *Linker {
	return &Linker{driver: driver, flags: flags}
}

// Find returns a Linker for the first compiler driver on PATH
func Find() (*Linker, error) {
	for _, name := range candidates {
		if path, err := exec.LookPath(name); err == nil {
			return New(path), nil
		}
	}
	return nil, ErrNoCompiler
}

func (l *Linker) Driver() string { return l.driver }

// Link builds source (a .s or .c file) into the executable output
func (l *Linker) Link(ctx context.Context, source, output string) error {
	args := append([]string{}, l.flags...)
	args = append(args, "-o", output, source)

	cmd := exec.CommandContext(ctx, l.driver, args...)
	var stderr bytes.Buffer
	cmd.Stderr = &stderr
	logger.Debug("Linking", "driver", l.driver, "args", args)
	if err := cmd.Run(); err != nil {
		return fmt.Errorf("%s %s: %w: %s", l.driver, source, err, strings.TrimSpace(stderr.String()))
	}
	logger.Info("Linked executable", "source", source, "output", output)
	return nil
}

// Run executes exe and returns its stdout and exit status. A non-zero exit
// is not an error: generated programs return their result as the status.
func Run(ctx context.Context, exe string) (string, int, error) {
	cmd := exec.CommandContext(ctx, exe)
	var stdout bytes.Buffer
	cmd.Stdout = &stdout
	err := cmd.Run()

	var exit *exec.ExitError
	switch {
	case err == nil:
		return stdout.String(), 0, nil
	case errors.As(err, &exit):
		return stdout.String(), exit.ExitCode(), nil
	}
	return stdout.String(), -1, fmt.Errorf("run %s: %w", exe, err)
}
