package extraction

import (
	"github.com/santhosh-tekuri/jsonschema/v5"
)

// candidateSchemaJSON is the structural contract for a single candidate
// object in the model response. Validation here is deliberately loose about
// optional fields and strict about types: a hallucinated object shape must
// never reach the field normalizer.
const candidateSchemaJSON = `{
  "type": "object",
  "properties": {
    "name":            {"type": "string"},
    "father_name":     {"type": "string"},
    "education_level": {"type": "string"},
    "degree_name":     {"type": "string"},
    "major":           {"type": "string"},
    "school":          {"type": "string"},
    "exam_year":       {"type": ["integer", "string", "null"]},
    "average_grade":   {"type": "string"},
    "percentage":      {"type": ["string", "number", "null"]},
    "graduated":       {"type": "string"},
    "country_code":    {"type": "string"},
    "confidence":      {"type": ["number", "string", "null"]},
    "page_index":      {"type": ["integer", "null"]}
  },
  "required": ["name", "education_level"]
}`

var candidateSchema = jsonschema.MustCompileString("candidate.json", candidateSchemaJSON)

// validateCandidate checks one decoded response object against the schema.
func validateCandidate(obj any) error {
	return candidateSchema.Validate(obj)
}
