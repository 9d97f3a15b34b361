package config

import (
	"bytes"
	"os"
	"strings"
	"text/template"
)

// ExpandEnv substitutes {{.VAR_NAME}} references in raw config bytes
// with environment variable values. Template syntax is used instead of
// $VAR so literal dollar signs in the YAML (regexes, passwords) survive
// untouched.
//
// Unset variables render as empty strings and are caught later by field
// validation. Any parse or render failure returns the input unchanged,
// which keeps template-free files working.
func ExpandEnv(data []byte) []byte {
	tmpl, err := template.New("config").Option("missingkey=zero").Parse(string(data))
	if err != nil {
		return data
	}

	var out bytes.Buffer
	if err := tmpl.Execute(&out, environMap()); err != nil {
		return data
	}
	return out.Bytes()
}

func environMap() map[string]string {
	env := make(map[string]string)
	for _, kv := range os.Environ() {
		name, value, ok := strings.Cut(kv, "=")
		if ok && name != "" {
			env[name] = value
		}
	}
	return env
}
