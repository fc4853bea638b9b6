package infra

import (
	"fmt"
	"io"
	"path"
	"runtime"
	"strconv"
)

// References:
// https://github.com/pkg/errors/blob/master/stack.go

const maxErrorStackDepth = 16

type Frame uintptr

func (frame Frame) pc() uintptr {
	return uintptr(frame) - 1
}

func (frame Frame) resolve() (file string, line int, name string) {
	fn := runtime.FuncForPC(frame.pc())
	if fn == nil {
		return "unknownFile", 0, "unknownFunc"
	}
	file, line = fn.FileLine(frame.pc())
	return file, line, fn.Name()
}

// Format characters:
// %s - <base-filename>:<line>
// %v - <function-name> <base-filename>:<line>
// %+v - <function-name>\n\t<full-path>:<line>
func (frame Frame) Format(s fmt.State, verb rune) {
	file, line, name := frame.resolve()
	switch verb {
	case 's':
		_, _ = io.WriteString(s, path.Base(file))
		_, _ = io.WriteString(s, ":")
		_, _ = io.WriteString(s, strconv.Itoa(line))
	case 'v':
		_, _ = io.WriteString(s, name)
		if s.Flag('+') {
			_, _ = io.WriteString(s, "\n\t")
			_, _ = io.WriteString(s, file)
		} else {
			_, _ = io.WriteString(s, " ")
			_, _ = io.WriteString(s, path.Base(file))
		}
		_, _ = io.WriteString(s, ":")
		_, _ = io.WriteString(s, strconv.Itoa(line))
	}
}

// An error with the callers' program counters attached at wrap time.
// The cause chain stays visible to errors.Is and errors.As through Unwrap.
type errorStack struct {
	cause  error
	msg    string
	frames []Frame
}

func (e *errorStack) Error() string {
	if e.cause == nil {
		return e.msg
	}
	if e.msg == "" {
		return e.cause.Error()
	}
	return e.msg + ": " + e.cause.Error()
}

func (e *errorStack) Unwrap() error {
	return e.cause
}

func (e *errorStack) Format(s fmt.State, verb rune) {
	switch verb {
	case 's':
		_, _ = io.WriteString(s, e.Error())
	case 'v':
		_, _ = io.WriteString(s, e.Error())
		if s.Flag('+') {
			for _, frame := range e.frames {
				_, _ = io.WriteString(s, "\n")
				frame.Format(s, verb)
			}
		}
	}
}

func callers(skip int) []Frame {
	var pcs [maxErrorStackDepth]uintptr
	n := runtime.Callers(skip, pcs[:])
	frames := make([]Frame, 0, n)
	for i := 0; i < n; i++ {
		frames = append(frames, Frame(pcs[i]))
	}
	return frames
}

// NewErrorStack creates a new error from msg and records the call stack
// of the caller.
func NewErrorStack(msg string) error {
	return &errorStack{
		msg:    msg,
		frames: callers(3),
	}
}

// WrapErrorStack attaches the caller's call stack to err.
// A nil err stays nil.
func WrapErrorStack(err error) error {
	if err == nil {
		return nil
	}
	return &errorStack{
		cause:  err,
		frames: callers(3),
	}
}

// WrapErrorStackWithMessage attaches the caller's call stack and an
// additional message to err. A nil err stays nil.
func WrapErrorStackWithMessage(err error, msg string) error {
	if err == nil {
		return nil
	}
	return &errorStack{
		cause:  err,
		msg:    msg,
		frames: callers(3),
	}
}
