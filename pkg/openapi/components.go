package openapi

import (
	"maps"
	"strconv"
)

const jsonMedia = "application/json"

// NewComponents returns the shared error responses and the page request
// schema.
func NewComponents() *Components {
	errorBody := map[string]*MediaType{
		jsonMedia: {Schema: &Schema{
			Type:       "object",
			Properties: map[string]*Schema{"error": {Type: "string"}},
			Required:   []string{"error"},
		}},
	}

	return &Components{
		Schemas: map[string]*Schema{
			"PageRequest": {
				Type: "object",
				Properties: map[string]*Schema{
					"page":      {Type: "integer", Example: 1},
					"page_size": {Type: "integer", Example: 25},
					"search":    {Type: "string"},
					"sort":      {Type: "string", Description: "Comma separated fields, - prefix for descending.", Example: "-ArchivedAt"},
				},
			},
		},
		Responses: map[string]*Response{
			"BadRequest":   {Description: "Invalid request", Content: errorBody},
			"Unauthorized": {Description: "Missing or invalid bearer token", Content: errorBody},
			"NotFound":     {Description: "Not found", Content: errorBody},
			"BadGateway":   {Description: "Archive backend failure", Content: errorBody},
		},
	}
}

// AddSchemas merges schemas into the component schemas.
func (c *Components) AddSchemas(schemas map[string]*Schema) {
	maps.Copy(c.Schemas, schemas)
}

func SchemaRef(name string) *Schema {
	return &Schema{Ref: "#/components/schemas/" + name}
}

func ResponseRef(name string) *Response {
	return &Response{Ref: "#/components/responses/" + name}
}

func RequestBodyJSON(schema string) *RequestBody {
	return &RequestBody{
		Required: true,
		Content:  map[string]*MediaType{jsonMedia: {Schema: SchemaRef(schema)}},
	}
}

func ResponseJSON(description string, schema *Schema) *Response {
	return &Response{
		Description: description,
		Content:     map[string]*MediaType{jsonMedia: {Schema: schema}},
	}
}

// PathParam is a required string path parameter.
func PathParam(name, format, description string) *Parameter {
	return &Parameter{Name: name, In: "path", Required: true, Description: description, Schema: &Schema{Type: "string", Format: format}}
}

func QueryParam(name, typ, description string, required bool) *Parameter {
	return &Parameter{Name: name, In: "query", Required: required, Description: description, Schema: &Schema{Type: typ}}
}

// Responses builds an operation response map keyed by status code.
func Responses(byStatus map[int]*Response) map[string]*Response {
	out := make(map[string]*Response, len(byStatus))
	for status, r := range byStatus {
		out[strconv.Itoa(status)] = r
	}
	return out
}
