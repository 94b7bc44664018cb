package echoapi

import (
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/trezcool/partnerships/core/partnership"
)

type partnershipApi struct {
	svc      *partnership.Service
	validate *validator.Validate
}

func registerPartnershipAPI(g *echo.Group, jwt echo.MiddlewareFunc, api partnershipApi) {
	pg := g.Group("/partnerships", jwt)
	pg.GET("", api.queryPartnerships)
	pg.POST("", api.createPartnership, roleMiddleware(editorRoles...))
	pg.GET("/gaps", api.queryGaps)

	// detail endpoints
	dg := pg.Group("/:id", api.partnershipMiddleware)
	dg.GET("", api.retrievePartnership)
	dg.DELETE("", api.destroyPartnership, roleMiddleware(editorRoles...))
	dg.PUT("/years", api.setPartnershipYears, roleMiddleware(editorRoles...))
	dg.GET("/coverage", api.partnershipCoverage)
	dg.GET("/agreements", api.queryAgreements)
	dg.POST("/agreements", api.createAgreement, roleMiddleware(editorRoles...))
}

func (api *partnershipApi) createPartnership(ctx echo.Context) error {
	var data partnership.NewPartnership
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewPartnership")
	}
	if err := data.Validate(api.validate); err != nil {
		return err
	}

	p, err := api.svc.CreatePartnership(ctx.Request().Context(), data)
	if err != nil {
		return errors.Wrap(err, "creating partnership")
	}
	return ctx.JSON(http.StatusCreated, p)
}

func (api *partnershipApi) queryPartnerships(ctx echo.Context) error {
	filter := new(partnership.PartnershipFilter)
	if err := ctx.Bind(filter); err != nil {
		return ctx.JSON(http.StatusOK, []partnership.Partnership{})
	}
	filter.Clean()

	partnerships, err := api.svc.QueryPartnerships(ctx.Request().Context(), *filter)
	if err != nil {
		return errors.Wrap(err, "querying partnerships")
	}
	return ctx.JSON(http.StatusOK, partnerships)
}

func (api *partnershipApi) queryGaps(ctx echo.Context) error {
	filter := new(partnership.PartnershipFilter)
	if err := ctx.Bind(filter); err != nil {
		return ctx.JSON(http.StatusOK, []partnership.Coverage{})
	}
	filter.Clean()

	gaps, err := api.svc.Gaps(ctx.Request().Context(), *filter)
	if err != nil {
		return errors.Wrap(err, "querying coverage gaps")
	}
	return ctx.JSON(http.StatusOK, gaps)
}

func (api *partnershipApi) retrievePartnership(ctx echo.Context) error {
	p, ok := ctx.Get(contextObjectKey).(partnership.Partnership)
	if !ok {
		return errors.Wrap(errObjNotFoundInCtx, "retrieving partnership from context")
	}
	return ctx.JSON(http.StatusOK, p)
}

func (api *partnershipApi) destroyPartnership(ctx echo.Context) error {
	p, ok := ctx.Get(contextObjectKey).(partnership.Partnership)
	if !ok {
		return errors.Wrap(errObjNotFoundInCtx, "retrieving partnership from context")
	}
	if err := api.svc.DeletePartnership(ctx.Request().Context(), p.ID); err != nil {
		return errors.Wrap(err, "deleting partnership")
	}
	return ctx.NoContent(http.StatusNoContent)
}

func (api *partnershipApi) setPartnershipYears(ctx echo.Context) error {
	p, ok := ctx.Get(contextObjectKey).(partnership.Partnership)
	if !ok {
		return errors.Wrap(errObjNotFoundInCtx, "retrieving partnership from context")
	}

	var data partnership.PartnershipYears
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to PartnershipYears")
	}
	if err := data.Validate(api.validate); err != nil {
		return err
	}

	p, err := api.svc.SetYears(ctx.Request().Context(), p.ID, data)
	if err != nil {
		return errors.Wrap(err, "setting partnership years")
	}
	return ctx.JSON(http.StatusOK, p)
}

func (api *partnershipApi) partnershipCoverage(ctx echo.Context) error {
	p, ok := ctx.Get(contextObjectKey).(partnership.Partnership)
	if !ok {
		return errors.Wrap(errObjNotFoundInCtx, "retrieving partnership from context")
	}

	cov, err := api.svc.Coverage(ctx.Request().Context(), p.ID)
	if err != nil {
		return errors.Wrap(err, "computing partnership coverage")
	}
	return ctx.JSON(http.StatusOK, cov)
}

func (api *partnershipApi) partnershipMiddleware(next echo.HandlerFunc) echo.HandlerFunc {
	return func(ctx echo.Context) error {
		p, err := api.svc.GetPartnership(ctx.Request().Context(), ctx.Param("id"))
		if err != nil {
			if errors.Cause(err) == partnership.ErrPartnershipNotFound {
				return errHttpNotFound
			}
			return errors.Wrap(err, "finding partnership by ID")
		}
		ctx.Set(contextObjectKey, p)
		return next(ctx)
	}
}
