package geometry

import (
	"reflect"

	"github.com/danielgtaylor/huma/v2"
)

// Schema lets Huma document and validate every accepted Location form.
func (Location) Schema(r huma.Registry) *huma.Schema {
	coord := r.Schema(reflect.TypeOf(Coordinate{}), true, "Coordinate")
	return &huma.Schema{
		Description: "Field geometry: a single {lat,lng}, an ordered list of them, or lat,lng text",
		Nullable:    true,
		OneOf: []*huma.Schema{
			{Type: huma.TypeArray, Items: coord},
			coord,
			{Type: huma.TypeString},
		},
	}
}
