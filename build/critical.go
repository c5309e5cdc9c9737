package build

import (
	"fmt"
	"os"
	"runtime/debug"
)

// Release indicates the build flavor: "standard", "dev", or "testing". It
// defaults to "standard", and no file in this package changes it, so
// Critical/Severe log without panicking unless a caller sets DEBUG.
var Release = "standard"

// DEBUG controls whether Critical/Severe panic in addition to logging. It is
// on for "dev" and "testing" builds.
var DEBUG = Release != "standard"

// Critical should be called if a sanity check has failed, indicating
// developer error rather than bad input. If the program does not panic, the
// call stack for the running goroutine is printed to help locate the bug.
func Critical(v ...interface{}) {
	s := "Critical error: " + fmt.Sprintln(v...) + "This indicates a bug in ledgerd.\n"
	if Release != "testing" {
		debug.PrintStack()
		os.Stderr.WriteString(s)
	}
	if DEBUG {
		panic(s)
	}
}

// Severe prints a message to os.Stderr describing a significant but
// non-fatal problem (storage fallback exhausted, corrupt persisted state on
// a path that was recovered). If DEBUG is set, Severe also panics.
func Severe(v ...interface{}) {
	s := "Severe error: " + fmt.Sprintln(v...)
	if Release != "testing" {
		debug.PrintStack()
		os.Stderr.WriteString(s)
	}
	if DEBUG {
		panic(s)
	}
}
