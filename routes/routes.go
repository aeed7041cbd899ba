package routes

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/perfboard/perfboard/app"
	"github.com/perfboard/perfboard/routes/middlewares"
)

func Wire(app app.App) http.Handler {
	root := chi.NewRouter()
	root.Use(middleware.Logger, middleware.Recoverer)

	root.Mount("/api", apiRouter(app))

	return root
}

func apiRouter(app app.App) http.Handler {
	api := chi.NewRouter()

	api.Route("/questionnaires", func(r chi.Router) {
		r.Use(middlewares.Authenticated(app.TokenSecret))

		r.Get(`/{id:^\d+$}`, GetQuestionnaire(app))
		r.Post(`/{id:^\d+$}/preview`, PreviewResponse(app))
		r.Put(`/{id:^\d+$}/responses`, SaveDraft(app))
		r.Post(`/{id:^\d+$}/responses`, SubmitResponse(app))
	})

	api.Route("/admin", func(r chi.Router) {
		r.Use(middlewares.Admin(app.TokenSecret))

		// CRUD questionnaire definitions
		r.Post("/questionnaires", CreateQuestionnaire(app))
		r.Get("/questionnaires", ListQuestionnaires(app))
		r.Get(`/questionnaires/{id:^\d+$}`, GetQuestionnaireDefinition(app))
		r.Put(`/questionnaires/{id:^\d+$}`, UpdateQuestionnaire(app))
		r.Delete(`/questionnaires/{id:^\d+$}`, DeleteQuestionnaire(app))

		// dashboards
		r.Get(`/questionnaires/{id:^\d+$}/responses`, ListResponses(app))
		r.Get("/responses/{uid}/sections", SectionBreakdown(app))

		// training-course matching
		r.Post("/courses", CreateCourse(app))
		r.Get("/courses", ListCourses(app))
	})

	api.Post("/login", Login(app))
	api.Post("/refresh", Refresh(app))

	return api
}
