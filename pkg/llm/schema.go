package llm

import (
	"encoding/json"
	"sort"

	"github.com/sashabaranov/go-openai/jsonschema"
	"google.golang.org/genai"
)

// SchemaType is a JSON schema primitive.
type SchemaType string

const (
	TypeObject  SchemaType = "object"
	TypeArray   SchemaType = "array"
	TypeString  SchemaType = "string"
	TypeInteger SchemaType = "integer"
	TypeNumber  SchemaType = "number"
	TypeBoolean SchemaType = "boolean"
)

// Schema is a provider-neutral description of the JSON a request expects back.
// It is translated to each provider's structured-output format.
type Schema struct {
	Type        SchemaType         `json:"type"`
	Description string             `json:"description,omitempty"`
	Properties  map[string]*Schema `json:"properties,omitempty"`
	Required    []string           `json:"required,omitempty"`
	Items       *Schema            `json:"items,omitempty"`
	Enum        []string           `json:"enum,omitempty"`
}

// Object builds an object schema. Listed required names must be keys of props.
func Object(props map[string]*Schema, required ...string) *Schema {
	return &Schema{Type: TypeObject, Properties: props, Required: required}
}

// ArrayOf builds an array schema.
func ArrayOf(items *Schema, description string) *Schema {
	return &Schema{Type: TypeArray, Items: items, Description: description}
}

// String builds a string schema.
func String(description string) *Schema {
	return &Schema{Type: TypeString, Description: description}
}

// Enum builds a string schema restricted to values.
func Enum(description string, values ...string) *Schema {
	return &Schema{Type: TypeString, Description: description, Enum: values}
}

// Integer builds an integer schema.
func Integer(description string) *Schema {
	return &Schema{Type: TypeInteger, Description: description}
}

// Number builds a number schema.
func Number(description string) *Schema {
	return &Schema{Type: TypeNumber, Description: description}
}

// Boolean builds a boolean schema.
func Boolean(description string) *Schema {
	return &Schema{Type: TypeBoolean, Description: description}
}

// sortedKeys gives property order a stable value; Gemini emits properties in
// this order.
func (s *Schema) sortedKeys() []string {
	keys := make([]string, 0, len(s.Properties))
	for k := range s.Properties {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// ToGenai converts the schema to Gemini's response schema.
func (s *Schema) ToGenai() *genai.Schema {
	if s == nil {
		return nil
	}
	out := &genai.Schema{
		Description: s.Description,
		Enum:        s.Enum,
		Required:    s.Required,
	}
	switch s.Type {
	case TypeObject:
		out.Type = genai.TypeObject
	case TypeArray:
		out.Type = genai.TypeArray
	case TypeInteger:
		out.Type = genai.TypeInteger
	case TypeNumber:
		out.Type = genai.TypeNumber
	case TypeBoolean:
		out.Type = genai.TypeBoolean
	default:
		out.Type = genai.TypeString
	}
	if len(s.Properties) > 0 {
		out.Properties = make(map[string]*genai.Schema, len(s.Properties))
		out.PropertyOrdering = s.sortedKeys()
		for name, prop := range s.Properties {
			out.Properties[name] = prop.ToGenai()
		}
	}
	if s.Items != nil {
		out.Items = s.Items.ToGenai()
	}
	return out
}

// ToJSONSchema converts the schema to the OpenAI response_format definition.
func (s *Schema) ToJSONSchema() jsonschema.Definition {
	if s == nil {
		return jsonschema.Definition{}
	}
	out := jsonschema.Definition{
		Description: s.Description,
		Enum:        s.Enum,
		Required:    s.Required,
	}
	switch s.Type {
	case TypeObject:
		out.Type = jsonschema.Object
	case TypeArray:
		out.Type = jsonschema.Array
	case TypeInteger:
		out.Type = jsonschema.Integer
	case TypeNumber:
		out.Type = jsonschema.Number
	case TypeBoolean:
		out.Type = jsonschema.Boolean
	default:
		out.Type = jsonschema.String
	}
	if len(s.Properties) > 0 {
		out.Properties = make(map[string]jsonschema.Definition, len(s.Properties))
		for name, prop := range s.Properties {
			out.Properties[name] = prop.ToJSONSchema()
		}
	}
	if s.Items != nil {
		items := s.Items.ToJSONSchema()
		out.Items = &items
	}
	return out
}

// PromptInstructions renders the schema as an instruction appended to the
// prompt, for providers or modes that cannot enforce a response schema.
func (s *Schema) PromptInstructions() string {
	if s == nil {
		return ""
	}
	b, err := json.MarshalIndent(s, "", "  ")
	if err != nil {
		return ""
	}
	return "\n\nRespond with a single JSON value and nothing else. It must match this JSON schema:\n" + string(b)
}
