package records

import (
	"net/http"

	"github.com/JaimeStill/docket/pkg/openapi"
)

// Schemas returns the component schemas referenced by the record routes.
func Schemas() map[string]*openapi.Schema {
	str := func(desc string) *openapi.Schema { return &openapi.Schema{Type: "string", Description: desc} }
	nullable := func(typ string) *openapi.Schema { return &openapi.Schema{Type: []string{typ, "null"}} }

	return map[string]*openapi.Schema{
		"Record": {
			Type: "object",
			Properties: map[string]*openapi.Schema{
				"id":            {Type: "string", Format: "uuid"},
				"run_id":        {Type: "string", Format: "uuid"},
				"record_id":     str("Canonical BEO number"),
				"record_date":   str("MM/DD/YYYY"),
				"folder":        str("Event folder name"),
				"path":          str("Archive tree path of the document"),
				"locator":       str("Public locator of the document"),
				"backend":       str("Storage backend"),
				"filename":      {Type: "string"},
				"size_bytes":    {Type: "integer"},
				"page_count":    nullable("integer"),
				"renamed":       {Type: "boolean"},
				"review_reason": nullable("string"),
				"message_id":    {Type: "string"},
				"attachment_id": {Type: "string"},
				"archived_at":   {Type: "string", Format: "date-time"},
			},
		},
		"RecordPage": {
			Type: "object",
			Properties: map[string]*openapi.Schema{
				"data":        {Type: "array", Items: openapi.SchemaRef("Record")},
				"total":       {Type: "integer"},
				"page":        {Type: "integer"},
				"page_size":   {Type: "integer"},
				"total_pages": {Type: "integer"},
			},
		},
		"RecordSearch": {
			Type: "object",
			Properties: map[string]*openapi.Schema{
				"page":      {Type: "integer"},
				"page_size": {Type: "integer"},
				"search":    {Type: "string"},
				"sort":      {Type: "string"},
				"record_id": {Type: "string"},
				"folder":    {Type: "string"},
				"reason":    {Type: "string"},
				"review":    {Type: "boolean"},
				"backend":   {Type: "string"},
				"run_id":    {Type: "string"},
			},
		},
	}
}

var docs = struct {
	list, find, search *openapi.Operation
}{
	list: &openapi.Operation{
		Summary: "List archived records",
		Tags:    []string{"records"},
		Parameters: []*openapi.Parameter{
			openapi.QueryParam("page", "integer", "1-based page", false),
			openapi.QueryParam("page_size", "integer", "Results per page", false),
			openapi.QueryParam("search", "string", "Matches record id, folder, or filename", false),
			openapi.QueryParam("sort", "string", "e.g. -ArchivedAt", false),
			openapi.QueryParam("record_id", "string", "Exact BEO number", false),
			openapi.QueryParam("folder", "string", "Folder contains", false),
			openapi.QueryParam("reason", "string", "Exact review reason", false),
			openapi.QueryParam("review", "boolean", "Only records with (true) or without (false) a review reason", false),
			openapi.QueryParam("backend", "string", "Storage backend", false),
			openapi.QueryParam("run_id", "string", "Batch run", false),
		},
		Responses: openapi.Responses(map[int]*openapi.Response{
			http.StatusOK: openapi.ResponseJSON("Page of records", openapi.SchemaRef("RecordPage")),
		}),
	},
	find: &openapi.Operation{
		Summary:    "Find a record",
		Tags:       []string{"records"},
		Parameters: []*openapi.Parameter{openapi.PathParam("id", "uuid", "Record id")},
		Responses: openapi.Responses(map[int]*openapi.Response{
			http.StatusOK:         openapi.ResponseJSON("Record", openapi.SchemaRef("Record")),
			http.StatusBadRequest: openapi.ResponseRef("BadRequest"),
			http.StatusNotFound:   openapi.ResponseRef("NotFound"),
		}),
	},
	search: &openapi.Operation{
		Summary:     "Search records",
		Tags:        []string{"records"},
		RequestBody: openapi.RequestBodyJSON("RecordSearch"),
		Responses: openapi.Responses(map[int]*openapi.Response{
			http.StatusOK:         openapi.ResponseJSON("Page of records", openapi.SchemaRef("RecordPage")),
			http.StatusBadRequest: openapi.ResponseRef("BadRequest"),
		}),
	},
}
