package extraction

import (
	"bytes"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/santhosh-tekuri/jsonschema/v5"
)

var (
	schemaMu    sync.Mutex
	schemaCache = make(map[Family]*jsonschema.Schema)
)

// BuildSchema returns the JSON schema the LLM is asked to follow for fam.
func BuildSchema(fam Family) map[string]any {
	props := make(map[string]any)
	for _, f := range fam.profile().fields {
		props[f] = fieldSchema(f)
	}
	return map[string]any{
		"$schema":    "https://json-schema.org/draft/2020-12/schema",
		"type":       "object",
		"properties": props,
		"required":   fam.Required(),
	}
}

func fieldSchema(field string) map[string]any {
	switch field {
	case FieldHasAnnualSurvey:
		return map[string]any{"type": []string{"boolean", "null"}}
	case FieldConfidenceScore:
		return map[string]any{"type": []string{"number", "null"}, "minimum": 0, "maximum": 1}
	case FieldIMONumber:
		return map[string]any{"type": []string{"string", "null"}, "pattern": `^(\D*\d){7}\D*$|^$`}
	default:
		return map[string]any{"type": []string{"string", "null"}}
	}
}

func compiledSchema(fam Family) (*jsonschema.Schema, error) {
	schemaMu.Lock()
	defer schemaMu.Unlock()

	if s, ok := schemaCache[fam]; ok {
		return s, nil
	}

	b, err := json.Marshal(BuildSchema(fam))
	if err != nil {
		return nil, fmt.Errorf("marshal schema: %w", err)
	}
	url := string(fam) + ".json"
	compiler := jsonschema.NewCompiler()
	if err := compiler.AddResource(url, bytes.NewReader(b)); err != nil {
		return nil, fmt.Errorf("add schema: %w", err)
	}
	s, err := compiler.Compile(url)
	if err != nil {
		return nil, fmt.Errorf("compile schema: %w", err)
	}
	schemaCache[fam] = s
	return s, nil
}

// Validate checks a decoded LLM object against the family schema.
func Validate(fam Family, obj map[string]any) error {
	s, err := compiledSchema(fam)
	if err != nil {
		return err
	}
	// jsonschema wants the generic decoding of the document, not map[string]any
	// with typed slices, so round-trip once.
	b, err := json.Marshal(obj)
	if err != nil {
		return fmt.Errorf("marshal data: %w", err)
	}
	var doc any
	if err := json.Unmarshal(b, &doc); err != nil {
		return fmt.Errorf("unmarshal data: %w", err)
	}
	if err := s.Validate(doc); err != nil {
		return fmt.Errorf("json does not match schema: %w", err)
	}
	return nil
}

func schemaJSON(fam Family) string {
	b, err := json.MarshalIndent(BuildSchema(fam)["properties"], "", "  ")
	if err != nil {
		return "{}"
	}
	return string(b)
}
