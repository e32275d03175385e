package checks

import (
	"bytes"
	"encoding/json"
)

// Outcome pairs a check name with its result.
type Outcome struct {
	Name   string `json:"name"`
	Result Result `json:"result"`
}

// Report is the ordered result of one suite run.
type Report struct {
	RunID    string
	Outcomes []Outcome
}

func (r *Report) add(name string, res Result) {
	r.Outcomes = append(r.Outcomes, Outcome{Name: name, Result: res})
}

// Passed is true when every check passed.
func (r *Report) Passed() bool {
	for _, o := range r.Outcomes {
		if !o.Result.Passed() {
			return false
		}
	}
	return true
}

// Failed returns the failing outcomes in run order.
func (r *Report) Failed() []Outcome {
	var out []Outcome
	for _, o := range r.Outcomes {
		if !o.Result.Passed() {
			out = append(out, o)
		}
	}
	return out
}

// Get returns the result recorded for name.
func (r *Report) Get(name string) (Result, bool) {
	for _, o := range r.Outcomes {
		if o.Name == name {
			return o.Result, true
		}
	}
	return Result{}, false
}

// Strings flattens the report to name -> "ok" | failure message.
func (r *Report) Strings() map[string]string {
	m := make(map[string]string, len(r.Outcomes))
	for _, o := range r.Outcomes {
		m[o.Name] = o.Result.String()
	}
	return m
}

// MarshalJSON writes one key per check, in run order.
func (r *Report) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, o := range r.Outcomes {
		if i > 0 {
			buf.WriteByte(',')
		}
		k, err := json.Marshal(o.Name)
		if err != nil {
			return nil, err
		}
		v, err := json.Marshal(o.Result.String())
		if err != nil {
			return nil, err
		}
		buf.Write(k)
		buf.WriteByte(':')
		buf.Write(v)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}
