package echoapi

import (
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/trezcool/partnerships/core/coverage"
)

type coverageApi struct {
	validate *validator.Validate
}

func registerCoverageAPI(g *echo.Group, jwt echo.MiddlewareFunc, validate *validator.Validate) {
	api := coverageApi{validate: validate}

	cg := g.Group("/coverage", jwt)
	cg.POST("/merge", api.merge)
	cg.POST("/check", api.check)
}

type (
	MergeRequest struct {
		Ranges []coverage.Range `json:"ranges" validate:"dive"`
	}

	CheckRequest struct {
		Span   *coverage.YearSpan `json:"span" validate:"required"`
		Ranges []coverage.Range   `json:"ranges" validate:"dive"`
	}
)

func (api *coverageApi) merge(ctx echo.Context) error {
	var data MergeRequest
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to MergeRequest")
	}
	if err := api.validate.Struct(data); err != nil {
		return err
	}

	merged, err := coverage.MergeRanges(data.Ranges)
	if err != nil {
		return errors.Wrap(err, "merging ranges")
	}
	return ctx.JSON(http.StatusOK, merged)
}

func (api *coverageApi) check(ctx echo.Context) error {
	var data CheckRequest
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to CheckRequest")
	}
	if err := api.validate.Struct(data); err != nil {
		return err
	}

	report, err := coverage.Analyze(*data.Span, data.Ranges)
	if err != nil {
		return errors.Wrap(err, "checking coverage")
	}
	return ctx.JSON(http.StatusOK, report)
}
