package checks

import (
	"encoding/json"
	"fmt"
)

// Reason explains a failed check. Message is the text reported to callers;
// Field, Expected and Actual are filled when the failure is a value mismatch.
type Reason struct {
	Message  string
	Field    string
	Expected string
	Actual   string
}

// Result is the outcome of one check: passed, or failed with a Reason.
type Result struct {
	reason *Reason
}

func OK() Result { return Result{} }

func Fail(msg string) Result { return Result{reason: &Reason{Message: msg}} }

func Failf(format string, args ...any) Result { return Fail(fmt.Sprintf(format, args...)) }

// Mismatch is a failure where an observed field did not hold the expected value.
func Mismatch(msg, field string, expected, actual any) Result {
	return Result{reason: &Reason{
		Message:  msg,
		Field:    field,
		Expected: fmt.Sprint(expected),
		Actual:   fmt.Sprint(actual),
	}}
}

func (r Result) Passed() bool { return r.reason == nil }

// Reason is nil for a passed check.
func (r Result) Reason() *Reason { return r.reason }

// String is "ok" or the failure message.
func (r Result) String() string {
	if r.reason == nil {
		return "ok"
	}
	return r.reason.Message
}

func (r Result) MarshalJSON() ([]byte, error) { return json.Marshal(r.String()) }
