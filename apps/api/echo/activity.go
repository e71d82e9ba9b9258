package echoapi

import (
	"io/ioutil"
	"net/http"
	"strconv"

	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/trezcool/masomo-lessons/core"
	"github.com/trezcool/masomo-lessons/core/activity"
	"github.com/trezcool/masomo-lessons/core/lessonplan"
)

type activityApi struct {
	svc        *activity.Service
	directions *lessonplan.Repository
	validate   *validator.Validate
	translator ut.Translator
}

func registerActivityAPI(
	g *echo.Group,
	jwt echo.MiddlewareFunc,
	svc *activity.Service,
	directions *lessonplan.Repository,
	validate *validator.Validate,
	translator ut.Translator,
) {
	api := activityApi{
		svc:        svc,
		directions: directions,
		validate:   validate,
		translator: translator,
	}
	edit := editorMiddleware()

	ag := g.Group("", jwt)
	ag.GET("/activity-types", api.queryTypes)

	lg := ag.Group("/lessons/:lesson/activities")
	lg.GET("", api.query)
	lg.POST("", api.create, edit)
	lg.POST("/renumber", api.renumber, edit)

	dg := ag.Group("/activities/:id")
	dg.GET("", api.retrieve)
	dg.PATCH("", api.update, edit)
	dg.DELETE("", api.destroy, edit)
	dg.PUT("/move", api.move, edit)
	dg.GET("/payload", api.retrievePayload)
	dg.PUT("/payload", api.updatePayload, edit)
	dg.GET("/directions", api.queryDirections)
	dg.POST("/vocabulary/move", api.moveVocabularyItem, edit)
	dg.POST("/questions/move", api.moveQuestion, edit)
	dg.POST("/questions/:question/choices/move", api.moveChoice, edit)
}

type (
	moveRequest struct {
		Index int `json:"index" validate:"min=0"`
	}

	nestedMoveRequest struct {
		Index     int    `json:"index" validate:"min=0"`
		Direction string `json:"direction" validate:"required,oneof=up down"`
	}

	// policyRequiredResponse lists what a deletion would affect when no policy was given.
	policyRequiredResponse struct {
		Error      string                 `json:"error"`
		Directions []lessonplan.Direction `json:"directions"`
	}
)

// Handlers

func (api *activityApi) queryTypes(ctx echo.Context) error {
	return ctx.JSON(http.StatusOK, activity.Kinds())
}

func (api *activityApi) query(ctx echo.Context) error {
	acts, err := api.svc.List(ctx.Request().Context(), ctx.Param("lesson"))
	if err != nil {
		return errors.Wrap(err, "listing activities")
	}
	return ctx.JSON(http.StatusOK, acts)
}

func (api *activityApi) create(ctx echo.Context) error {
	var data activity.NewActivity
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewActivity")
	}
	data.LessonID = ctx.Param("lesson")
	if err := api.validate.Struct(data); err != nil {
		return err
	}

	act, err := api.svc.Insert(ctx.Request().Context(), data)
	if err != nil {
		return errors.Wrap(err, "inserting activity")
	}
	return ctx.JSON(http.StatusCreated, act)
}

func (api *activityApi) renumber(ctx echo.Context) error {
	acts, err := api.svc.Renumber(ctx.Request().Context(), ctx.Param("lesson"))
	if err != nil {
		return errors.Wrap(err, "renumbering activities")
	}
	return ctx.JSON(http.StatusOK, acts)
}

func (api *activityApi) retrieve(ctx echo.Context) error {
	act, err := api.svc.Get(ctx.Request().Context(), ctx.Param("id"))
	if err != nil {
		return errors.Wrap(err, "getting activity")
	}
	return ctx.JSON(http.StatusOK, act)
}

func (api *activityApi) update(ctx echo.Context) error {
	var data activity.UpdateActivity
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to UpdateActivity")
	}
	if err := api.validate.Struct(data); err != nil {
		return err
	}

	act, err := api.svc.Update(ctx.Request().Context(), ctx.Param("id"), data)
	if err != nil {
		return errors.Wrap(err, "updating activity")
	}
	return ctx.JSON(http.StatusOK, act)
}

func (api *activityApi) destroy(ctx echo.Context) error {
	decision, err := activity.ParseDecision(ctx.QueryParam("policy"))
	if err != nil {
		return core.NewValidationError(err, core.FieldError{Field: "policy", Error: err.Error()})
	}

	out, err := api.svc.Remove(ctx.Request().Context(), ctx.Param("id"), activity.Policy(decision))
	if errors.Cause(err) == activity.ErrPolicyRequired {
		return ctx.JSON(http.StatusConflict, policyRequiredResponse{
			Error:      activity.ErrPolicyRequired.Error(),
			Directions: out.Directions,
		})
	}
	if err != nil {
		return errors.Wrap(err, "removing activity")
	}
	return ctx.JSON(http.StatusOK, out)
}

func (api *activityApi) move(ctx echo.Context) error {
	var data moveRequest
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to moveRequest")
	}
	if err := api.validate.Struct(data); err != nil {
		return err
	}

	acts, err := api.svc.Move(ctx.Request().Context(), ctx.Param("id"), data.Index)
	if err != nil {
		return errors.Wrap(err, "moving activity")
	}
	return ctx.JSON(http.StatusOK, acts)
}

func (api *activityApi) retrievePayload(ctx echo.Context) error {
	c := ctx.Request().Context()
	act, err := api.svc.Get(c, ctx.Param("id"))
	if err != nil {
		return errors.Wrap(err, "getting activity")
	}
	p, err := api.svc.LoadPayload(c, act)
	if err != nil {
		return errors.Wrap(err, "loading payload")
	}
	return ctx.JSON(http.StatusOK, p)
}

func (api *activityApi) updatePayload(ctx echo.Context) error {
	c := ctx.Request().Context()
	act, err := api.svc.Get(c, ctx.Param("id"))
	if err != nil {
		return errors.Wrap(err, "getting activity")
	}

	body, err := ioutil.ReadAll(ctx.Request().Body)
	if err != nil {
		return errors.Wrap(err, "reading payload")
	}
	p, err := activity.DecodePayload(act.Type, body)
	if err != nil {
		return err
	}
	if err = activity.ValidatePayload(api.validate, p); err != nil {
		return err
	}

	saved, err := api.svc.SavePayload(c, act, p)
	if err != nil {
		return errors.Wrap(err, "saving payload")
	}
	return ctx.JSON(http.StatusOK, saved)
}

func (api *activityApi) queryDirections(ctx echo.Context) error {
	dirs, err := api.directions.ByActivity(ctx.Request().Context(), ctx.Param("id"))
	if err != nil {
		return errors.Wrap(err, "listing directions")
	}
	return ctx.JSON(http.StatusOK, dirs)
}

func (api *activityApi) bindNestedMove(ctx echo.Context) (activity.Activity, nestedMoveRequest, activity.MoveDirection, error) {
	var data nestedMoveRequest
	if err := ctx.Bind(&data); err != nil {
		return activity.Activity{}, data, 0, errors.Wrap(err, "binding to nestedMoveRequest")
	}
	if err := api.validate.Struct(data); err != nil {
		return activity.Activity{}, data, 0, err
	}
	dir, err := activity.ParseMoveDirection(data.Direction)
	if err != nil {
		return activity.Activity{}, data, 0, core.NewValidationError(err, core.FieldError{Field: "direction", Error: err.Error()})
	}
	act, err := api.svc.Get(ctx.Request().Context(), ctx.Param("id"))
	if err != nil {
		return activity.Activity{}, data, 0, errors.Wrap(err, "getting activity")
	}
	return act, data, dir, nil
}

func (api *activityApi) moveVocabularyItem(ctx echo.Context) error {
	act, data, dir, err := api.bindNestedMove(ctx)
	if err != nil {
		return err
	}
	voc, err := api.svc.EditVocabulary(ctx.Request().Context(), act, func(e *activity.VocabularyEditor) error {
		return e.MoveItem(data.Index, dir)
	})
	if err != nil {
		return errors.Wrap(err, "moving vocabulary item")
	}
	return ctx.JSON(http.StatusOK, voc)
}

func (api *activityApi) moveQuestion(ctx echo.Context) error {
	act, data, dir, err := api.bindNestedMove(ctx)
	if err != nil {
		return err
	}
	quiz, err := api.svc.EditQuiz(ctx.Request().Context(), act, func(e *activity.QuizEditor) error {
		return e.MoveQuestion(data.Index, dir)
	})
	if err != nil {
		return errors.Wrap(err, "moving question")
	}
	return ctx.JSON(http.StatusOK, quiz)
}

func (api *activityApi) moveChoice(ctx echo.Context) error {
	q, err := strconv.Atoi(ctx.Param("question"))
	if err != nil || q < 0 {
		return core.NewValidationError(errors.New("invalid question index"), core.FieldError{Field: "question", Error: "must be a question index"})
	}
	act, data, dir, err := api.bindNestedMove(ctx)
	if err != nil {
		return err
	}
	quiz, err := api.svc.EditQuiz(ctx.Request().Context(), act, func(e *activity.QuizEditor) error {
		return e.MoveChoice(q, data.Index, dir)
	})
	if err != nil {
		return errors.Wrap(err, "moving choice")
	}
	return ctx.JSON(http.StatusOK, quiz)
}
