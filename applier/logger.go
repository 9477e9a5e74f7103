package applier

import "fmt"

// Logger lets callers silence or redirect the statements Apply prints as
// it executes, without a hard dependency on a particular logging library.
type Logger interface {
	Print(v ...any)
	Printf(format string, v ...any)
	Println(v ...any)
}

// StdoutLogger writes every statement to standard output.
type StdoutLogger struct{}

func (s StdoutLogger) Print(v ...any)                 { fmt.Print(v...) }
func (s StdoutLogger) Printf(format string, v ...any) { fmt.Printf(format, v...) }
func (s StdoutLogger) Println(v ...any)               { fmt.Println(v...) }

// NullLogger discards everything, for apply calls made by tests or by
// library callers that handle their own diagnostics.
type NullLogger struct{}

func (n NullLogger) Print(v ...any)                 {}
func (n NullLogger) Printf(format string, v ...any) {}
func (n NullLogger) Println(v ...any)               {}
