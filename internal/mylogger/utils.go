package mylogger

import (
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"time"
)

// generateStartupID produces an id that distinguishes log streams of
// separate process runs, e.g. 'startup-71342-20240615T101500'.
func generateStartupID() string {
	return fmt.Sprintf("startup-%d-%s", os.Getpid(), time.Now().UTC().Format("20060102T150405"))
}

// captureFrames collects stack trace frames
func captureFrames(skip, depth int) []stackFrame {
	pc := make([]uintptr, depth)
	n := runtime.Callers(skip, pc)
	frames := runtime.CallersFrames(pc[:n])

	var stack []stackFrame
	for {
		frame, more := frames.Next()
		stack = append(stack, stackFrame{
			Func:   filepath.Base(frame.Function),
			Source: filepath.Join(filepath.Base(filepath.Dir(frame.File)), filepath.Base(frame.File)),
			Line:   frame.Line,
		})
		if !more {
			break
		}
	}
	return stack
}

// stackFrame structure for capturing the stack trace
type stackFrame struct {
	Func   string `json:"func"`
	Source string `json:"source"`
	Line   int    `json:"line"`
}
