package catalog

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os/exec"
	"strings"
	"sync"

	"nvrgraph/internal/failures"
)

// DefaultInspector is the GStreamer listing tool.
const DefaultInspector = "gst-inspect-1.0"

// Executor abstracts command execution for testability.
type Executor interface {
	Run(ctx context.Context, binary string, args []string, onStdout func(string)) error
}

// InspectOption configures an InspectSource.
type InspectOption func(*InspectSource)

// WithExecutor injects a custom executor (primarily for tests).
func WithExecutor(exec Executor) InspectOption {
	return func(s *InspectSource) {
		if exec != nil {
			s.exec = exec
		}
	}
}

// InspectSource lists elements by running gst-inspect-1.0 without arguments.
type InspectSource struct {
	binary string
	exec   Executor
}

// NewInspectSource constructs a source around the given gst-inspect binary.
func NewInspectSource(binary string, opts ...InspectOption) *InspectSource {
	binary = strings.TrimSpace(binary)
	if binary == "" {
		binary = DefaultInspector
	}
	s := &InspectSource{binary: binary, exec: commandExecutor{}}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Name identifies the source in logs and cache metadata.
func (s *InspectSource) Name() string {
	return "inspect:" + s.binary
}

// Elements runs the inspector and parses its listing.
func (s *InspectSource) Elements(ctx context.Context) ([]Element, error) {
	var elements []Element
	err := s.exec.Run(ctx, s.binary, nil, func(line string) {
		if el, ok := ParseInspectLine(line); ok {
			elements = append(elements, el)
		}
	})
	if err != nil {
		return nil, failures.Wrap(failures.ErrExternalTool, "catalog", "inspect", s.binary, err)
	}
	if len(elements) == 0 {
		return nil, failures.Wrap(failures.ErrExternalTool, "catalog", "inspect", fmt.Sprintf("%s listed no elements", s.binary), nil)
	}
	return elements, nil
}

// ParseInspect reads a complete gst-inspect-1.0 listing.
func ParseInspect(r io.Reader) ([]Element, error) {
	var elements []Element
	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		if el, ok := ParseInspectLine(scanner.Text()); ok {
			elements = append(elements, el)
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("read inspect listing: %w", err)
	}
	return elements, nil
}

// ParseInspectLine parses one "plugin:  element: description" line. Summary
// lines, blank lines, and lines without an element name are rejected.
func ParseInspectLine(line string) (Element, bool) {
	trimmed := strings.TrimSpace(line)
	if trimmed == "" || strings.HasPrefix(trimmed, "Total count") {
		return Element{}, false
	}
	parts := strings.SplitN(trimmed, ":", 3)
	if len(parts) < 2 {
		return Element{}, false
	}
	kind := strings.TrimSpace(parts[0])
	name := strings.TrimSpace(parts[1])
	if kind == "" || name == "" || strings.ContainsAny(kind, " \t") {
		return Element{}, false
	}
	el := Element{Kind: kind, Name: name}
	if len(parts) == 3 {
		el.Description = strings.TrimSpace(parts[2])
	}
	return el, true
}

type commandExecutor struct{}

func (commandExecutor) Run(ctx context.Context, binary string, args []string, onStdout func(string)) error {
	cmd := exec.CommandContext(ctx, binary, args...) //nolint:gosec
	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return fmt.Errorf("stdout pipe: %w", err)
	}
	stderr, err := cmd.StderrPipe()
	if err != nil {
		return fmt.Errorf("stderr pipe: %w", err)
	}
	if err := cmd.Start(); err != nil {
		return fmt.Errorf("start command: %w", err)
	}

	var wg sync.WaitGroup
	var scanErr error
	var once sync.Once
	var stderrTail []string

	scan := func(r io.Reader, forward func(string)) {
		defer wg.Done()
		scanner := bufio.NewScanner(r)
		for scanner.Scan() {
			forward(scanner.Text())
		}
		if err := scanner.Err(); err != nil {
			once.Do(func() {
				scanErr = err
			})
		}
	}

	wg.Add(2)
	go scan(stdout, func(line string) {
		if onStdout != nil {
			onStdout(line)
		}
	})
	go scan(stderr, func(line string) {
		stderrTail = append(stderrTail, line)
		if len(stderrTail) > 5 {
			stderrTail = stderrTail[1:]
		}
	})

	wg.Wait()
	if scanErr != nil {
		_ = cmd.Process.Kill()
		return fmt.Errorf("scan output: %w", scanErr)
	}

	if err := cmd.Wait(); err != nil {
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) && len(stderrTail) > 0 {
			return fmt.Errorf("wait command: %w (stderr: %s)", err, strings.Join(stderrTail, " | "))
		}
		return fmt.Errorf("wait command: %w", err)
	}
	return nil
}
