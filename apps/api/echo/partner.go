package echoapi

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/trezcool/partnerships/core/partnership"
)

var (
	errObjNotFoundInCtx = errors.New("object not found in echo.Context")

	partnerOrderingFields = []string{"name", "code", "country", "type", "created_at", "updated_at"}
)

const contextObjectKey = "object"

func registerPartnerAPI(g *echo.Group, jwt echo.MiddlewareFunc, api partnershipApi) {
	pg := g.Group("/partners", jwt)
	pg.GET("", api.queryPartners)
	pg.POST("", api.createPartner, roleMiddleware(editorRoles...))
	pg.DELETE("", api.destroyPartners, roleMiddleware(editorRoles...))

	// detail endpoints
	dg := pg.Group("/:id", api.partnerMiddleware)
	dg.GET("", api.retrievePartner)
	dg.PUT("", api.updatePartner, roleMiddleware(editorRoles...))
	dg.DELETE("", api.destroyPartner, roleMiddleware(editorRoles...))
}

func (api *partnershipApi) createPartner(ctx echo.Context) error {
	var data partnership.NewPartner
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewPartner")
	}
	if err := data.Validate(ctx.Request().Context(), api.validate, api.svc); err != nil {
		return err
	}

	p, err := api.svc.CreatePartner(ctx.Request().Context(), data)
	if err != nil {
		return errors.Wrap(err, "creating partner")
	}
	return ctx.JSON(http.StatusCreated, p)
}

func (api *partnershipApi) queryPartners(ctx echo.Context) error {
	filter := new(partnership.PartnerFilter)
	if err := ctx.Bind(filter); err != nil {
		return ctx.JSON(http.StatusOK, []partnership.Partner{})
	}
	filter.Clean()

	partners, err := api.svc.QueryPartners(ctx.Request().Context(), *filter, bindOrdering(ctx, partnerOrderingFields...)...)
	if err != nil {
		return errors.Wrap(err, "querying partners")
	}
	return ctx.JSON(http.StatusOK, partners)
}

func (api *partnershipApi) retrievePartner(ctx echo.Context) error {
	p, ok := ctx.Get(contextObjectKey).(partnership.Partner)
	if !ok {
		return errors.Wrap(errObjNotFoundInCtx, "retrieving partner from context")
	}
	return ctx.JSON(http.StatusOK, p)
}

func (api *partnershipApi) updatePartner(ctx echo.Context) error {
	p, ok := ctx.Get(contextObjectKey).(partnership.Partner)
	if !ok {
		return errors.Wrap(errObjNotFoundInCtx, "retrieving partner from context")
	}

	var data partnership.UpdatePartner
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to UpdatePartner")
	}
	if err := data.Validate(ctx.Request().Context(), p, api.validate, api.svc); err != nil {
		return err
	}

	p, err := api.svc.UpdatePartner(ctx.Request().Context(), p, data)
	if err != nil {
		return errors.Wrap(err, "updating partner")
	}
	return ctx.JSON(http.StatusOK, p)
}

func (api *partnershipApi) destroyPartner(ctx echo.Context) error {
	p, ok := ctx.Get(contextObjectKey).(partnership.Partner)
	if !ok {
		return errors.Wrap(errObjNotFoundInCtx, "retrieving partner from context")
	}
	if err := api.svc.DeletePartners(ctx.Request().Context(), p.ID); err != nil {
		return errors.Wrap(err, "deleting partner")
	}
	return ctx.NoContent(http.StatusNoContent)
}

func (api *partnershipApi) destroyPartners(ctx echo.Context) error {
	var query DestroyMultipleRequest
	if err := ctx.Bind(&query); err != nil {
		return errors.Wrap(err, "binding to DestroyMultipleRequest")
	}
	if len(query.IDs) == 0 {
		return ctx.NoContent(http.StatusNoContent)
	}
	if err := api.svc.DeletePartners(ctx.Request().Context(), query.IDs...); err != nil {
		return errors.Wrap(err, "deleting partners")
	}
	return ctx.NoContent(http.StatusNoContent)
}

func (api *partnershipApi) partnerMiddleware(next echo.HandlerFunc) echo.HandlerFunc {
	return func(ctx echo.Context) error {
		p, err := api.svc.GetPartner(ctx.Request().Context(), ctx.Param("id"))
		if err != nil {
			if errors.Cause(err) == partnership.ErrPartnerNotFound {
				return errHttpNotFound
			}
			return errors.Wrap(err, "finding partner by ID")
		}
		ctx.Set(contextObjectKey, p)
		return next(ctx)
	}
}
