package echoapi

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/trezcool/partnerships/core/partnership"
)

func registerAgreementAPI(g *echo.Group, jwt echo.MiddlewareFunc, api partnershipApi) {
	ag := g.Group("/agreements/:id", jwt, roleMiddleware(editorRoles...), api.agreementMiddleware)
	ag.PUT("/status", api.setAgreementStatus)
	ag.DELETE("", api.destroyAgreement)
}

func (api *partnershipApi) createAgreement(ctx echo.Context) error {
	p, ok := ctx.Get(contextObjectKey).(partnership.Partnership)
	if !ok {
		return errors.Wrap(errObjNotFoundInCtx, "retrieving partnership from context")
	}

	var data partnership.NewAgreement
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewAgreement")
	}
	if err := data.Validate(api.validate); err != nil {
		return err
	}
	if err := checkCanSetStatus(ctx, data.Status); err != nil {
		return err
	}

	agr, err := api.svc.CreateAgreement(ctx.Request().Context(), p.ID, data)
	if err != nil {
		return errors.Wrap(err, "creating agreement")
	}
	return ctx.JSON(http.StatusCreated, agr)
}

func (api *partnershipApi) queryAgreements(ctx echo.Context) error {
	p, ok := ctx.Get(contextObjectKey).(partnership.Partnership)
	if !ok {
		return errors.Wrap(errObjNotFoundInCtx, "retrieving partnership from context")
	}

	agreements, err := api.svc.QueryAgreements(ctx.Request().Context(), p.ID)
	if err != nil {
		return errors.Wrap(err, "querying agreements")
	}
	return ctx.JSON(http.StatusOK, agreements)
}

func (api *partnershipApi) setAgreementStatus(ctx echo.Context) error {
	agr, ok := ctx.Get(contextObjectKey).(partnership.Agreement)
	if !ok {
		return errors.Wrap(errObjNotFoundInCtx, "retrieving agreement from context")
	}

	var data partnership.AgreementStatusUpdate
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to AgreementStatusUpdate")
	}
	if err := data.Validate(api.validate); err != nil {
		return err
	}
	if data.Status != agr.Status {
		if err := checkCanSetStatus(ctx, agr.Status, data.Status); err != nil {
			return err
		}
	}

	agr, err := api.svc.SetAgreementStatus(ctx.Request().Context(), agr, data)
	if err != nil {
		return errors.Wrap(err, "setting agreement status")
	}
	return ctx.JSON(http.StatusOK, agr)
}

func (api *partnershipApi) destroyAgreement(ctx echo.Context) error {
	agr, ok := ctx.Get(contextObjectKey).(partnership.Agreement)
	if !ok {
		return errors.Wrap(errObjNotFoundInCtx, "retrieving agreement from context")
	}
	if err := checkCanSetStatus(ctx, agr.Status); err != nil {
		return err
	}
	if err := api.svc.DeleteAgreement(ctx.Request().Context(), agr.ID); err != nil {
		return errors.Wrap(err, "deleting agreement")
	}
	return ctx.NoContent(http.StatusNoContent)
}

// checkCanSetStatus requires validatorRoles as soon as one of statuses is validated or refused.
func checkCanSetStatus(ctx echo.Context, statuses ...string) error {
	decided := false
	for _, status := range statuses {
		if status != "" && status != partnership.StatusWaiting {
			decided = true
		}
	}
	if !decided {
		return nil
	}
	claims, err := getContextClaims(ctx)
	if err != nil {
		return errors.Wrap(err, "getting context claims")
	}
	if !claims.HasAnyRole(validatorRoles...) {
		return errHttpForbidden
	}
	return nil
}

func (api *partnershipApi) agreementMiddleware(next echo.HandlerFunc) echo.HandlerFunc {
	return func(ctx echo.Context) error {
		agr, err := api.svc.GetAgreement(ctx.Request().Context(), ctx.Param("id"))
		if err != nil {
			if errors.Cause(err) == partnership.ErrAgreementNotFound {
				return errHttpNotFound
			}
			return errors.Wrap(err, "finding agreement by ID")
		}
		ctx.Set(contextObjectKey, agr)
		return next(ctx)
	}
}
