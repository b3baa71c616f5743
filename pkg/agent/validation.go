package agent

import (
	"bytes"
	"encoding/json"
	"errors"
	"strings"

	jsonschema "github.com/santhosh-tekuri/jsonschema/v6"
)

// compileSchema compiles an in-memory action schema. Schemas are package
// constants, so a failure is a programming error.
func compileSchema(name, schema string) *jsonschema.Schema {
	doc, err := jsonschema.UnmarshalJSON(strings.NewReader(schema))
	if err != nil {
		panic("agent: schema " + name + ": " + err.Error())
	}
	url := "mem://" + name + ".json"
	c := jsonschema.NewCompiler()
	if err := c.AddResource(url, doc); err != nil {
		panic("agent: schema " + name + ": " + err.Error())
	}
	return c.MustCompile(url)
}

// violations validates data and returns one message per failed keyword.
// Valid data gives nil.
func violations(sch *jsonschema.Schema, data any) []string {
	if sch == nil {
		return nil
	}
	// Round-trip through JSON so typed values validate like decoded ones.
	b, err := json.Marshal(data)
	if err != nil {
		return []string{err.Error()}
	}
	v, err := jsonschema.UnmarshalJSON(bytes.NewReader(b))
	if err != nil {
		return []string{err.Error()}
	}
	err = sch.Validate(v)
	if err == nil {
		return nil
	}
	var ve *jsonschema.ValidationError
	if !errors.As(err, &ve) {
		return []string{err.Error()}
	}
	var out []string
	for _, line := range strings.Split(ve.Error(), "\n") {
		line = strings.TrimSpace(line)
		if line == "" || strings.HasPrefix(line, "jsonschema validation failed") {
			continue
		}
		out = append(out, strings.TrimPrefix(line, "- "))
	}
	if len(out) == 0 {
		out = []string{ve.Error()}
	}
	return out
}
