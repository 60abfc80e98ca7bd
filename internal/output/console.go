package output

import (
	"fmt"
	"io"
	"os"
	"sync"
)

type ConsoleOutput struct {
	mu sync.Mutex
	w  io.Writer
}

// NewConsoleOutput writes to w, or stdout when w is nil.
func NewConsoleOutput(w io.Writer) *ConsoleOutput {
	if w == nil {
		w = os.Stdout
	}
	return &ConsoleOutput{w: w}
}

func (c *ConsoleOutput) WriteMessage(topic string, msg []byte) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if _, err := fmt.Fprintf(c.w, "[%s] %s\n", topic, msg); err != nil {
		return fmt.Errorf("failed to write to console: %w", err)
	}
	return nil
}

func (c *ConsoleOutput) Close() error {
	if f, ok := c.w.(*os.File); ok {
		// stdout may not support sync
		_ = f.Sync()
	}
	return nil
}
