package core

import (
	"fmt"
	"os"
	"runtime/debug"
	"sync"
)

// Finalizer restores a resource, typically the terminal, before the crash report is printed
type Finalizer interface {
	Fini()
}

var (
	crashMu       sync.Mutex
	crashTerminal Finalizer
)

// RegisterCrashTerminal sets the resource finalized by HandleCrash; nil clears it
func RegisterCrashTerminal(f Finalizer) {
	crashMu.Lock()
	crashTerminal = f
	crashMu.Unlock()
}

// HandleCrash is the unified panic handler: restores the terminal, prints the stack trace, exits
func HandleCrash(r any) {
	if r == nil {
		return
	}

	crashMu.Lock()
	term := crashTerminal
	crashMu.Unlock()
	if term != nil {
		term.Fini()
	}

	// Raw-mode terminals need explicit \r
	fmt.Fprintf(os.Stderr, "\r\n\x1b[31mCRASH DETECTED: %v\x1b[0m\r\n", r)
	fmt.Fprintf(os.Stderr, "Stack Trace:\r\n%s\r\n", debug.Stack())
	os.Stderr.Sync()

	os.Exit(1)
}

// Go runs fn in a new goroutine with panic recovery routed to HandleCrash
func Go(fn func()) {
	GoWithHandler(fn, HandleCrash)
}

// GoWithHandler runs fn in a new goroutine, passing any recovered panic to handler
// A nil handler falls back to HandleCrash
func GoWithHandler(fn func(), handler func(r any)) {
	if handler == nil {
		handler = HandleCrash
	}
	go func() {
		defer func() {
			if r := recover(); r != nil {
				handler(r)
			}
		}()
		fn()
	}()
}
