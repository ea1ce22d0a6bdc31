package loader

import (
	"bytes"
	_ "embed"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/santhosh-tekuri/jsonschema/v5"
)

const schemaURL = "https://shortwatch.local/schema/dashboard.schema.json"

//go:embed schema/dashboard.schema.json
var schemaDocument []byte

var compiledSchema = sync.OnceValues(func() (*jsonschema.Schema, error) {
	c := jsonschema.NewCompiler()
	c.Draft = jsonschema.Draft2020
	if err := c.AddResource(schemaURL, bytes.NewReader(schemaDocument)); err != nil {
		return nil, fmt.Errorf("dashboard schema load failed: %w", err)
	}
	schema, err := c.Compile(schemaURL)
	if err != nil {
		return nil, fmt.Errorf("dashboard schema compile failed: %w", err)
	}
	return schema, nil
})

// SchemaDocument returns the embedded JSON schema of the snapshot
func SchemaDocument() []byte {
	return bytes.Clone(schemaDocument)
}

// checkSchema validates raw against the embedded schema
func checkSchema(raw []byte) error {
	schema, err := compiledSchema()
	if err != nil {
		return err
	}
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()
	var doc interface{}
	if err := dec.Decode(&doc); err != nil {
		return fmt.Errorf("snapshot is not valid JSON: %w", err)
	}
	return schema.Validate(doc)
}
