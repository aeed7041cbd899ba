package routes

import (
	"database/sql"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"

	"github.com/perfboard/perfboard/app"
	"github.com/perfboard/perfboard/engine"
	"github.com/perfboard/perfboard/httpx"
)

// SectionBreakdown reports per-section percentages for one stored response.
// The stored answers are re-evaluated through the same engine pass used at
// submission time; responses without any scorable item fall back to their
// stored overall score so legacy questionnaires keep a dashboard row.
func SectionBreakdown(app app.App) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		uid := chi.URLParam(r, "uid")

		var responseId, questionnaireId int
		var score *int
		err := app.QueryRowContext(r.Context(), `
			SELECT id, questionnaire_id, score
			FROM response
			WHERE uid = ?`,
			uid,
		).Scan(&responseId, &questionnaireId, &score)
		if errors.Is(err, sql.ErrNoRows) {
			httpx.LogNotFound(w, "get_breakdown", uid)
			return
		}
		if err != nil {
			httpx.LogInternalError(w, "db.get_breakdown", err)
			return
		}

		cat, err := loadCatalog(r.Context(), app.DB, questionnaireId)
		if err != nil {
			httpx.LogInternalError(w, "db.get_breakdown.catalog", err)
			return
		}

		stored, err := loadResponseAnswers(r.Context(), app.DB, responseId)
		if err != nil {
			httpx.LogInternalError(w, "db.get_breakdown.answers", err)
			return
		}

		ev := engine.Evaluate(cat, engine.StateFromEntries(cat.Items, stored))
		sections := engine.Breakdown(cat.Items, cat.Sections, ev.Visibility, ev.Results, score)
		if sections == nil {
			sections = []engine.SectionScore{}
		}

		render.JSON(w, r, map[string]any{
			"response": uid,
			"score":    score,
			"sections": sections,
		})
	}
}
