package main

import (
	"bufio"
	"encoding/json"
	"fmt"
	"os"
	"time"
)

// liveEvent mirrors the subset of engine.ProgressEvent fields the --live
// renderer cares about; it decodes independently from pkg/engine so the
// CLI's rendering concern never needs to import engine's event-writer
// internals.
type liveEvent struct {
	Kind      string      `json:"kind"`
	Node      string      `json:"node,omitempty"`
	Message   string      `json:"message,omitempty"`
	Data      interface{} `json:"data,omitempty"`
	Timestamp time.Time   `json:"timestamp"`
}

// startLiveRenderer follows progressPath and prints one ANSI-updated status
// line per event. No pack or teacher dependency covers a TUI layout for
// this narrow a surface (one status line), so this stays on bufio/os/fmt
// rather than pulling in a terminal-UI library for a single-line ticker.
func startLiveRenderer(progressPath string) func() {
	done := make(chan struct{})
	stop := make(chan struct{})

	go func() {
		defer close(done)
		start := time.Now()
		var f *os.File
		for i := 0; i < 50; i++ {
			var err error
			f, err = os.Open(progressPath)
			if err == nil {
				break
			}
			select {
			case <-stop:
				return
			case <-time.After(100 * time.Millisecond):
			}
		}
		if f == nil {
			return
		}
		defer f.Close()

		reader := bufio.NewReader(f)
		for {
			select {
			case <-stop:
				return
			default:
			}
			line, err := reader.ReadBytes('\n')
			if len(line) > 0 {
				var ev liveEvent
				if json.Unmarshal(line, &ev) == nil {
					fmt.Printf("\r\033[K[%s] %s %s", time.Since(start).Round(time.Second), ev.Kind, ev.Node)
				}
			}
			if err != nil {
				select {
				case <-stop:
					return
				case <-time.After(200 * time.Millisecond):
				}
			}
		}
	}()

	return func() {
		close(stop)
		<-done
		fmt.Println()
	}
}
