package store

import (
	"encoding/json"
	"fmt"

	"github.com/invopop/jsonschema"
)

//go:generate go run ./internal/schema ../../schema.json

// Document is the top level of a job data file, the list of records
type Document []JobRecord

// Schema generates JSON schema for the job data document
func Schema() ([]byte, error) {
	r := jsonschema.Reflector{RequiredFromJSONSchemaTags: true}
	schema := r.Reflect(&Document{})
	schema.Title = "Job board data schema"
	schema.Description = "Schema for the job postings data file"

	data, err := json.MarshalIndent(schema, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("failed to marshal schema: %w", err)
	}
	return data, nil
}
