package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"sync"

	"pkt.systems/nexus/core"
	"pkt.systems/nexus/internal/command"
	"pkt.systems/nexus/internal/shell"
	"pkt.systems/pslog"
)

var errQuit = errors.New("quit")

// console turns typed lines into bridge messages.
type console struct {
	in     io.Reader
	out    io.Writer
	sender shell.Sender
	tabs   core.TabManager
	log    pslog.Logger
}

// Run reads lines until /quit, end of input or ctx ends. It returns errQuit
// so the other supervised goroutines stop too.
func (c *console) Run(ctx context.Context) error {
	lines := make(chan string)
	go func() {
		defer close(lines)
		scanner := bufio.NewScanner(c.in)
		for scanner.Scan() {
			select {
			case lines <- scanner.Text():
			case <-ctx.Done():
				return
			}
		}
	}()
	for {
		select {
		case <-ctx.Done():
			return nil
		case line, ok := <-lines:
			if !ok {
				c.log.Debug("console input closed")
				return errQuit
			}
			if err := c.handle(ctx, line); err != nil {
				return err
			}
		}
	}
}

func (c *console) handle(ctx context.Context, line string) error {
	action, err := command.Resolve(line)
	if err != nil {
		_, werr := fmt.Fprintf(c.out, "!! %v\n", err)
		return werr
	}
	switch action.Local {
	case command.LocalQuit:
		return errQuit
	case command.LocalHelp:
		_, err := io.WriteString(c.out, command.Help())
		return err
	case command.LocalTabs:
		return c.printTabs()
	}
	if action.Channel == "" {
		return nil
	}
	id, err := c.sender.Send(ctx, action.Channel, action.Payload)
	if err != nil {
		_, werr := fmt.Fprintf(c.out, "!! %s: %v\n", action.Channel, err)
		return werr
	}
	c.log.Trace("console sent", "channel", action.Channel, "id", id)
	return nil
}

func (c *console) printTabs() error {
	zoom := c.tabs.ZoomIndicator()
	for _, tab := range c.tabs.Tabs() {
		marker := " "
		if tab.Active {
			marker = "*"
		}
		label := ""
		if tab.Active && zoom.Visible {
			label = " [" + zoom.Label + "]"
		}
		if tab.Muted {
			label += " [muted]"
		}
		if tab.DevTools {
			label += " [devtools]"
		}
		if _, err := fmt.Fprintf(c.out, "%s %d\t%s\t%s%s\n", marker, tab.ID, tab.Title, tab.URL, label); err != nil {
			return err
		}
	}
	return nil
}

// lockedWriter serialises writes from the console and the notification printer.
type lockedWriter struct {
	mu sync.Mutex
	w  io.Writer
}

func (l *lockedWriter) Write(p []byte) (int, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.w.Write(p)
}
