package bridge

import (
	"fmt"
)

type Op string

const (
	OpConnect   Op = "connect"
	OpSubscribe Op = "subscribe"
	OpReceive   Op = "receive"
	OpSend      Op = "send"
	OpPoll      Op = "poll"
)

// TaskError is the terminal error of one relay task.
type TaskError struct {
	Direction Direction
	Op        Op
	Err       error
}

func (e *TaskError) Error() string {
	return fmt.Sprintf("%s %s: %v", e.Direction, e.Op, e.Err)
}

func (e *TaskError) Unwrap() error {
	return e.Err
}

func taskError(d Direction, op Op, err error) error {
	return &TaskError{Direction: d, Op: op, Err: err}
}
