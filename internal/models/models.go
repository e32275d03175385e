package models

import (
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/santhosh-tekuri/jsonschema/v5"
)

//go:embed request.schema.json
var requestSchemaJSON string

var requestSchema = jsonschema.MustCompileString("request.schema.json", requestSchemaJSON)

// Schema returns a fresh copy of the request JSON Schema document.
func Schema() map[string]any {
	var m map[string]any
	if err := json.Unmarshal([]byte(requestSchemaJSON), &m); err != nil {
		panic(err)
	}
	return m
}

// ErrMalformed is returned when the body is not a JSON document at all.
var ErrMalformed = errors.New("request body is not valid JSON")

// Request describes the target of one suite run: the drug store service and
// the cluster workload that backs it.
type Request struct {
	BaseURL          string `json:"baseUrl"`
	OpenshiftURL     string `json:"openshiftUrl"`
	AccountToken     string `json:"accountToken"`
	Deployment       string `json:"deployment"`
	AppType          string `json:"appType"`
	OpenshiftProject string `json:"openshiftProject"`
}

// Example is the sample request advertised in the API document.
var Example = Request{
	BaseURL:          "https://camel-workshop-cmap-camel.apps.example.openshift.com",
	OpenshiftURL:     "https://api.example.openshift.com:6443/",
	AccountToken:     "<service account token>",
	Deployment:       "camel-workshop",
	AppType:          "deployment",
	OpenshiftProject: "camel-workshop",
}

// ValidationError reports a request that is JSON but does not match the schema.
type ValidationError struct {
	err *jsonschema.ValidationError
}

func (e *ValidationError) Error() string { return e.err.Error() }

// Causes lists the leaf violations, one per offending field.
func (e *ValidationError) Causes() []string {
	var out []string
	var walk func(v *jsonschema.ValidationError)
	walk = func(v *jsonschema.ValidationError) {
		if len(v.Causes) == 0 {
			loc := v.InstanceLocation
			if loc == "" {
				loc = "/"
			}
			out = append(out, loc+": "+v.Message)
			return
		}
		for _, c := range v.Causes {
			walk(c)
		}
	}
	walk(e.err)
	return out
}

// DecodeRequest reads a JSON body, validates it against the request schema and
// returns the normalized request.
func DecodeRequest(r io.Reader) (*Request, error) {
	b, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}
	var doc any
	if err := json.Unmarshal(b, &doc); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformed, err)
	}
	if err := validate(doc); err != nil {
		return nil, err
	}
	var req Request
	if err := json.Unmarshal(b, &req); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformed, err)
	}
	req.Normalize()
	return &req, nil
}

// Validate checks an already constructed request against the same schema the
// HTTP endpoint enforces.
func (r *Request) Validate() error {
	b, err := json.Marshal(r)
	if err != nil {
		return err
	}
	var doc any
	if err := json.Unmarshal(b, &doc); err != nil {
		return err
	}
	return validate(doc)
}

// Normalize strips the trailing slash from BaseURL and lower-cases AppType.
func (r *Request) Normalize() {
	r.BaseURL = strings.TrimRight(strings.TrimSpace(r.BaseURL), "/")
	r.OpenshiftURL = strings.TrimSpace(r.OpenshiftURL)
	r.AppType = strings.ToLower(strings.TrimSpace(r.AppType))
	r.Deployment = strings.TrimSpace(r.Deployment)
	r.OpenshiftProject = strings.TrimSpace(r.OpenshiftProject)
}

// Workload is the "<kind>/<name>" selector of the inspected workload.
func (r *Request) Workload() string { return r.AppType + "/" + r.Deployment }

func validate(doc any) error {
	if err := requestSchema.Validate(doc); err != nil {
		var ve *jsonschema.ValidationError
		if errors.As(err, &ve) {
			return &ValidationError{err: ve}
		}
		return err
	}
	return nil
}
