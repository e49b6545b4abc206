package api

import (
	"github.com/danielgtaylor/huma/v2"

	"github.com/joeblew999/agromind/internal/humastar"
)

// links maps operation paths to their RFC 8288 Link header values.
var links = map[string][]string{
	"/health": {
		`</api/v1/info>; rel="info"`,
		`</api/v1/fields>; rel="fields"`,
		`</api/v1/map/features>; rel="features"`,
	},
	"/api/v1/info": {
		`</health>; rel="health"`,
		`</api/v1/fields>; rel="fields"`,
	},
	"/api/v1/fields": {
		`</api/v1/map/features>; rel="features"`,
		`</api/v1/map/viewport>; rel="viewport"`,
	},
	"/api/v1/fields/{id}": {
		`</api/v1/fields>; rel="collection"`,
	},
	"/api/v1/fields/{id}/geometry": {
		`</api/v1/fields>; rel="collection"`,
	},
	"/api/v1/map/features": {
		`</api/v1/fields>; rel="fields"`,
		`</api/v1/map/viewport>; rel="viewport"`,
		`</api/v1/map/events>; rel="events"`,
	},
	"/api/v1/map/viewport": {
		`</api/v1/map/features>; rel="features"`,
	},
	"/api/v1/tables": {
		`</api/v1/query>; rel="query"`,
	},
}

// LinkTransformer returns a Huma Transformer that injects RFC 8288 Link headers.
func LinkTransformer() huma.Transformer {
	return humastar.LinkTransformer(links)
}
