package console

import (
	"bufio"
	"io"
	"sync"
)

// LineConsole turns a blocking reader (stdin) into non-blocking reads so
// the control loop never waits on the operator.
type LineConsole struct {
	lines chan string

	mu  sync.Mutex
	err error
}

// NewLineConsole starts reading r in the background.
func NewLineConsole(r io.Reader) *LineConsole {
	c := &LineConsole{lines: make(chan string, 16)}
	go c.scan(r)
	return c
}

func (c *LineConsole) scan(r io.Reader) {
	sc := bufio.NewScanner(r)
	for sc.Scan() {
		c.lines <- sc.Text()
	}
	c.mu.Lock()
	c.err = sc.Err()
	c.mu.Unlock()
	close(c.lines)
}

// ReadCommand returns the next line if one is waiting, ErrNoInput if not,
// and io.EOF (or the read error) once input is exhausted.
func (c *LineConsole) ReadCommand() (string, error) {
	select {
	case line, ok := <-c.lines:
		if ok {
			return line, nil
		}
		c.mu.Lock()
		defer c.mu.Unlock()
		if c.err != nil {
			return "", c.err
		}
		return "", io.EOF
	default:
		return "", ErrNoInput
	}
}
