package mcp

import (
	"context"

	sdkmcp "github.com/modelcontextprotocol/go-sdk/mcp"
)

const serverInstructions = `arcview browses archaeological sherd data in two views.

Views:
- Project view: a project tree (study area > strat unit > container > group > object) flattened into one row per object, with totals.
- Universal view: the flat sherd collection, searched by project id and filtered by diagnostic type.

Each caller gets its own views, keyed by _meta.view_id when sent, else the Mcp-Session-Id header (HTTP).
Only the latest request of a view updates it; an older request that finishes late returns SUPERSEDED.

Typical flow:
1) list_projects, then select_project(project_id) and view_project_row(row_id).
2) search_sherds(project_id), apply_filters(diagnostics) with at most 10 types, view_sherd(id).
3) get_view_state reads the views without fetching.

query_sherds and aggregate_project run once without touching any view.

Docs:
- arcview://docs/index
- arcview://docs/fields
`

type docResource struct {
	URI         string
	Name        string
	Title       string
	Description string
	Content     string
}

var docResources = []docResource{
	{
		URI:         "arcview://docs/index",
		Name:        "docs_index",
		Title:       "arcview docs index",
		Description: "Tools, error codes and view behaviour.",
		Content: `# arcview

## Tools

| Tool | Touches view | Purpose |
|------|--------------|---------|
| list_projects | project | selectable projects with display ids |
| select_project | project | flatten one project into rows and totals |
| view_project_row | project | one row of the current table |
| search_sherds | universal | match by project id, keep filters |
| apply_filters | universal | match any of up to 10 diagnostic types |
| clear_filters | universal | drop diagnostic filter |
| clear_all | universal | drop project search and filter |
| view_sherd | universal | one record of the current rows |
| get_view_state | both | read without fetching |
| query_sherds | none | one-off filtered query |
| aggregate_project | none | one-off flatten |
| get_recent_activity | none | settled fetches, newest first |

## Errors

Errors come back as a tool result with ` + "`isError`" + ` set and a JSON body:

- VALIDATION_ERROR: more than 10 diagnostic types. Rows are cleared.
- FETCH_ERROR: the store failed. Rows are cleared, filters are kept.
- NOT_FOUND: the id is not in the current rows.
- NO_ROWS: nothing is loaded yet.
- SUPERSEDED: a newer request on the same view replaced this one.
- INVALID_INPUT: an argument is malformed.

## Project ids

Searches match the id upper-cased and trimmed. Ids are shown padded to five
characters, so ` + "`42`" + ` displays as ` + "`00042`" + ` but only matches records stored as ` + "`42`" + `.
`,
	},
	{
		URI:         "arcview://docs/fields",
		Name:        "docs_fields",
		Title:       "Row and record fields",
		Description: "Field meaning and defaults for flattened rows and sherd records.",
		Content: `# Fields

## Project rows

- weight: grams, missing or negative reads as 0.
- count: missing or below 1 reads as 1. Total sherds sums counts.
- group: the group label, "Unknown" when the group has none.
- source: "AI Analysis" when the object came from an image, else "Manual Entry".
- confidence: one decimal with a percent sign, "-" when absent or outside 0..1.
- sherd_id: "-" when absent.

## Sherd records

- diagnostic_type: "Unspecified" when absent. Records without a stored tag are not offered as a filter choice.
- created_at: rows are sorted newest first. Records without a time sort last.
- bounding_box: x, y, width and height, missing values read as 0.

## Distribution

Diagnostic counts sorted by count, then name.
`,
	},
}

func registerDocResources(server *sdkmcp.Server) {
	for _, doc := range docResources {
		doc := doc

		server.AddResource(&sdkmcp.Resource{
			URI:         doc.URI,
			Name:        doc.Name,
			Title:       doc.Title,
			Description: doc.Description,
			MIMEType:    "text/markdown",
			Size:        int64(len(doc.Content)),
		}, func(_ context.Context, req *sdkmcp.ReadResourceRequest) (*sdkmcp.ReadResourceResult, error) {
			uri := doc.URI
			if req != nil && req.Params != nil && req.Params.URI != "" {
				uri = req.Params.URI
			}
			return &sdkmcp.ReadResourceResult{
				Contents: []*sdkmcp.ResourceContents{{
					URI:      uri,
					MIMEType: "text/markdown",
					Text:     doc.Content,
				}},
			}, nil
		})
	}
}
