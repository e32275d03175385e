package main

import (
	"encoding/json"
	"fmt"
	"io"
	"text/template"

	"github.com/Masterminds/sprig/v3"
	"sigs.k8s.io/yaml"

	"github.com/camel-workshop/tester/internal/checks"
)

type renderer func(io.Writer, *checks.Report) error

var reportTmpl = template.Must(template.New("report").Funcs(sprig.TxtFuncMap()).Parse(
	`{{- range .Outcomes }}
{{ if .Result.Passed }}PASS{{ else }}FAIL{{ end }}  {{ .Name | trimPrefix "test_" | replace "_" " " | printf "%-16s" }}  {{ .Result }}
{{- end }}
{{ len .Failed }} of {{ len .Outcomes }} checks failed (run {{ .RunID | trunc 8 }})
`))

func rendererFor(format string) (renderer, error) {
	switch format {
	case "text", "":
		return func(w io.Writer, r *checks.Report) error { return reportTmpl.Execute(w, r) }, nil
	case "json":
		return func(w io.Writer, r *checks.Report) error {
			b, err := json.MarshalIndent(r, "", "  ")
			if err != nil {
				return err
			}
			_, err = fmt.Fprintln(w, string(b))
			return err
		}, nil
	case "yaml":
		return func(w io.Writer, r *checks.Report) error {
			b, err := yaml.Marshal(r)
			if err != nil {
				return err
			}
			_, err = w.Write(b)
			return err
		}, nil
	}
	return nil, fmt.Errorf("unknown output format %q", format)
}
