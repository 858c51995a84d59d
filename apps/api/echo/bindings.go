package echoapi

import (
	"strings"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/mwalimu/somo/core"
)

const orderingParam = "ordering"

// Ordering binds the "ordering" query parameter: a comma-separated list of
// field names, each optionally prefixed with "-" for descending.
type Ordering struct {
	Orderings []core.DBOrdering
}

func (ord *Ordering) Bind(ctx echo.Context) error {
	raw := ctx.QueryParam(orderingParam)
	if raw == "" {
		return nil
	}

	for _, term := range strings.Split(raw, ",") {
		term = strings.TrimSpace(term)
		field, descending := strings.CutPrefix(term, "-")
		if field == "" {
			return core.NewValidationError(
				errors.New("invalid ordering"),
				core.FieldError{Field: orderingParam, Error: "empty ordering field"},
			)
		}
		ord.Orderings = append(ord.Orderings, core.DBOrdering{Field: field, Ascending: !descending})
	}
	return nil
}
