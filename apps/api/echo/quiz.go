package echoapi

import (
	"net/http"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/trezcool/shule/core"
	"github.com/trezcool/shule/core/quiz"
	"github.com/trezcool/shule/core/user"
)

type quizApi struct {
	svc      quiz.ServiceInterface
	subjects []core.Subject
}

func registerQuizAPI(g *echo.Group, jwt echo.MiddlewareFunc, deps ServerDeps) {
	api := quizApi{svc: deps.QuizSvc, subjects: deps.Conf.Quiz.Subjects}

	sg := g.Group("/subjects", jwt, stateMiddleware(user.StateLoggedIn))
	sg.GET("", api.querySubjects)
	sg.GET("/:code/form", api.form)
	sg.POST("/:code/submissions", api.submit)

	g.GET("/admin/bank", api.bank, jwt, adminMiddleware())
}

// Handlers

func (api *quizApi) querySubjects(ctx echo.Context) error {
	subjects, err := api.svc.Subjects(ctx.Request().Context(), ctx.QueryParam("group"))
	if err != nil {
		return errors.Wrap(err, "querying subjects")
	}
	return ctx.JSON(http.StatusOK, subjects)
}

func (api *quizApi) form(ctx echo.Context) error {
	group := core.NormalizeGroup(ctx.QueryParam("group"))
	form, err := api.svc.Form(ctx.Request().Context(), ctx.Param("code"), group)
	if err != nil {
		return errors.Wrap(err, "building form")
	}

	res := FormResponse{
		Subject:   form.Subject,
		Group:     group,
		Token:     uuid.New().String(),
		Total:     form.Total(),
		Questions: make([]QuestionView, 0, len(form.Questions)),
	}
	for _, q := range form.Questions {
		res.Questions = append(res.Questions, newQuestionView(q))
	}
	return ctx.JSON(http.StatusOK, res)
}

func (api *quizApi) submit(ctx echo.Context) error {
	claims, err := getContextClaims(ctx)
	if err != nil {
		return errors.Wrap(err, "getting context claims")
	}

	var req quiz.SubmitRequest
	if err = ctx.Bind(&req); err != nil {
		return errors.Wrap(err, "binding to SubmitRequest")
	}
	req.Email = claims.Email
	req.Subject = ctx.Param("code")

	rec, err := api.svc.Submit(ctx.Request().Context(), req)
	if err != nil {
		return errors.Wrap(err, "submitting answers")
	}
	return ctx.JSON(http.StatusCreated, SubmissionResponse{Subject: rec.Subject, Score: rec.Score, Total: rec.Total})
}

// bank reports how the question table loads: useful to admins editing the spreadsheet.
func (api *quizApi) bank(ctx echo.Context) error {
	bank, report, err := api.svc.LoadBank(ctx.Request().Context(), ctx.QueryParam("group"))
	if err != nil {
		return errors.Wrap(err, "loading bank")
	}

	res := BankResponse{
		Rows:     report.Rows,
		Kept:     report.Kept,
		Filtered: report.Filtered,
		Skipped:  make([]string, 0, len(report.Skipped)),
		Subjects: make([]BankSubject, 0, len(api.subjects)),
	}
	for _, e := range report.Skipped {
		res.Skipped = append(res.Skipped, e.Error())
	}
	for _, sub := range api.subjects {
		res.Subjects = append(res.Subjects, BankSubject{Code: sub.Code, Questions: bank.Count(sub.Code), Configured: true})
	}
	for _, u := range bank.Unconfigured(api.subjects) {
		res.Subjects = append(res.Subjects, BankSubject{Code: u.Code, Questions: u.Questions, Suggestion: u.Suggestion})
	}
	return ctx.JSON(http.StatusOK, res)
}
