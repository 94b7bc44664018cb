package echoapi

import (
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/trezcool/partnerships/core"
)

const orderingParam = "ordering"

// bindOrdering parses `?ordering=name,-created_at`, ignoring fields not in allowed.
func bindOrdering(ctx echo.Context, allowed ...string) []core.DBOrdering {
	val := ctx.QueryParam(orderingParam)
	if val == "" {
		return nil
	}

	var orderings []core.DBOrdering
	for _, field := range strings.Split(val, ",") {
		field = strings.TrimSpace(field)
		descending := strings.HasPrefix(field, "-")
		if descending {
			field = field[1:] // drop "-"
		}
		for _, a := range allowed {
			if field == a {
				orderings = append(orderings, core.DBOrdering{Field: field, Ascending: !descending})
				break
			}
		}
	}
	return orderings
}

// DestroyMultipleRequest binds `?id=..&id=..`.
type DestroyMultipleRequest struct {
	IDs []string `query:"id"`
}
