package auth

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"strings"
	"sync"

	"gopkg.in/yaml.v3"
)

const (
	decisionAuthorized = "authorized"
	decisionDenied     = "denied"
)

// Prompter asks the user a yes/no question.
type Prompter interface {
	Ask(ctx context.Context, question string) (bool, error)
}

// decisions is the on-disk form of the permission file.
type decisions struct {
	Camera string `yaml:"camera"`
}

// FilePlatform keeps the user's decision in a YAML file so the prompt is
// only shown once per installation.
type FilePlatform struct {
	path       string
	restricted bool
	prompter   Prompter
	mu         sync.Mutex
}

// NewFilePlatform creates a platform backed by the file at path. When
// restricted is set the status is always Restricted.
func NewFilePlatform(path string, restricted bool, prompter Prompter) *FilePlatform {
	return &FilePlatform{
		path:       path,
		restricted: restricted,
		prompter:   prompter,
	}
}

// Status reads the stored decision.
func (p *FilePlatform) Status() Status {
	if p.restricted {
		return Restricted
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	d, err := p.read()
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return NotDetermined
		}
		return Unknown
	}

	switch d.Camera {
	case "":
		return NotDetermined
	case decisionAuthorized:
		return Authorized
	case decisionDenied:
		return Denied
	default:
		return Unknown
	}
}

// Prompt asks the user and stores the answer.
func (p *FilePlatform) Prompt(ctx context.Context) (bool, error) {
	if p.prompter == nil {
		return false, errors.New("no prompter configured")
	}

	granted, err := p.prompter.Ask(ctx, "Allow Pantry Plan to use the camera to scan item labels?")
	if err != nil {
		return false, err
	}

	decision := decisionDenied
	if granted {
		decision = decisionAuthorized
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	if err := p.write(decisions{Camera: decision}); err != nil {
		return false, fmt.Errorf("failed to store permission decision: %w", err)
	}

	return granted, nil
}

func (p *FilePlatform) read() (decisions, error) {
	var d decisions
	data, err := os.ReadFile(p.path)
	if err != nil {
		return d, err
	}
	if err := yaml.Unmarshal(data, &d); err != nil {
		return d, err
	}
	return d, nil
}

func (p *FilePlatform) write(d decisions) error {
	data, err := yaml.Marshal(d)
	if err != nil {
		return err
	}

	tmpPath := p.path + ".tmp"
	if err := os.WriteFile(tmpPath, data, 0600); err != nil {
		return err
	}
	if err := os.Rename(tmpPath, p.path); err != nil {
		os.Remove(tmpPath)
		return err
	}
	return nil
}

// TerminalPrompter asks on a terminal and reads a y/n answer from a line
// channel shared with the rest of the terminal front end.
type TerminalPrompter struct {
	lines <-chan string
	out   io.Writer
}

// NewTerminalPrompter creates a prompter reading answers from lines and
// writing questions to out.
func NewTerminalPrompter(lines <-chan string, out io.Writer) *TerminalPrompter {
	return &TerminalPrompter{lines: lines, out: out}
}

// Ask prints the question and waits for an answer line. Anything other than
// y or yes counts as a refusal, as does the end of input. A line is only
// consumed when it is taken as the answer.
func (t *TerminalPrompter) Ask(ctx context.Context, question string) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}
	fmt.Fprintf(t.out, "%s [y/N]: ", question)

	select {
	case <-ctx.Done():
		return false, ctx.Err()
	case line, ok := <-t.lines:
		if !ok {
			return false, nil
		}
		switch strings.ToLower(strings.TrimSpace(line)) {
		case "y", "yes":
			return true, nil
		default:
			return false, nil
		}
	}
}
