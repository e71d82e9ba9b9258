package echoapi

import (
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/trezcool/masomo-lessons/core/lessonplan"
)

type lessonPlanApi struct {
	directions *lessonplan.Repository
	validate   *validator.Validate
}

func registerLessonPlanAPI(g *echo.Group, jwt echo.MiddlewareFunc, directions *lessonplan.Repository, validate *validator.Validate) {
	api := lessonPlanApi{directions: directions, validate: validate}

	pg := g.Group("/lesson-plans/:plan/directions", jwt)
	pg.GET("", api.query)
	pg.POST("", api.create, editorMiddleware())
}

func (api *lessonPlanApi) query(ctx echo.Context) error {
	dirs, err := api.directions.ByLessonPlan(ctx.Request().Context(), ctx.Param("plan"))
	if err != nil {
		return errors.Wrap(err, "listing directions")
	}
	return ctx.JSON(http.StatusOK, dirs)
}

func (api *lessonPlanApi) create(ctx echo.Context) error {
	var data lessonplan.NewDirection
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewDirection")
	}
	data.LessonPlanID = ctx.Param("plan")
	if err := api.validate.Struct(data); err != nil {
		return err
	}

	dir, err := api.directions.Create(ctx.Request().Context(), data)
	if err != nil {
		return errors.Wrap(err, "creating direction")
	}
	return ctx.JSON(http.StatusCreated, dir)
}
