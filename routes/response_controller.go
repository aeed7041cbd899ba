package routes

import (
	"database/sql"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"
	"github.com/gofrs/uuid"

	"github.com/perfboard/perfboard/app"
	"github.com/perfboard/perfboard/engine"
	"github.com/perfboard/perfboard/httpx"
	"github.com/perfboard/perfboard/log"
	"github.com/perfboard/perfboard/model"
	"github.com/perfboard/perfboard/routes/middlewares"
)

// responsePayload is the entry surface's save/preview body. Answers are keyed
// by form field name ("item_<linkId>", multi-select "item_<linkId>[]").
type responsePayload struct {
	Period  string              `json:"period"`
	Answers map[string][]string `json:"answers"`
}

// GetQuestionnaire serves the catalog for the entry surface, along with any
// draft answers previously saved for the requested performance period.
func GetQuestionnaire(app app.App) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		questionnaireId, err := strconv.Atoi(chi.URLParam(r, "id"))
		if err != nil {
			httpx.LogStatus(w, http.StatusBadRequest, log.DebugLevel, "request.get_url_param.id")
			return
		}

		q := model.Questionnaire{ID: questionnaireId}
		err = app.QueryRowContext(r.Context(), `
			SELECT version, title, description, active
			FROM questionnaire
			WHERE id = ?`,
			questionnaireId,
		).Scan(&q.Version, &q.Title, &q.Description, &q.Active)
		if errors.Is(err, sql.ErrNoRows) || err == nil && !q.Active {
			httpx.LogNotFound(w, "get_questionnaire", questionnaireId)
			return
		}
		if err != nil {
			httpx.LogInternalError(w, "db.get_questionnaire", err)
			return
		}

		cat, err := loadCatalog(r.Context(), app.DB, questionnaireId)
		if err != nil {
			httpx.LogInternalError(w, "db.get_questionnaire.catalog", err)
			return
		}
		q.Sections = cat.Sections
		q.Items = cat.Items

		body := map[string]any{"questionnaire": q}

		period := r.URL.Query().Get("period")
		if period != "" {
			var draftId int
			err = app.QueryRowContext(r.Context(), `
				SELECT r.id
				FROM response r
				JOIN assessor a ON (a.id = r.assessor_id)
				WHERE r.questionnaire_id = ?
					AND a.username = ?
					AND r.period = ?
					AND r.status = 'draft'`,
				questionnaireId,
				middlewares.Username(r),
				period,
			).Scan(&draftId)
			if err != nil && !errors.Is(err, sql.ErrNoRows) {
				httpx.LogInternalError(w, "db.get_questionnaire.draft", err)
				return
			}
			if err == nil {
				answers, err := loadResponseAnswers(r.Context(), app.DB, draftId)
				if err != nil {
					httpx.LogInternalError(w, "db.get_questionnaire.draft_answers", err)
					return
				}
				body["draft"] = answers
			}
		}

		render.JSON(w, r, body)
	}
}

// PreviewResponse runs the live evaluation pass for the entry surface: the
// exact same engine call the final submission uses, with nothing persisted.
// The surface re-posts current answers as the assessor types and toggles
// fields off the returned visibility.
func PreviewResponse(app app.App) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		questionnaireId, err := strconv.Atoi(chi.URLParam(r, "id"))
		if err != nil {
			httpx.LogStatus(w, http.StatusBadRequest, log.DebugLevel, "request.get_url_param.id")
			return
		}

		payload := responsePayload{}
		err = render.DecodeJSON(r.Body, &payload)
		if err != nil {
			httpx.LogStatus(w, http.StatusBadRequest, log.DebugLevel, "request.parse_body")
			return
		}

		cat, err := loadCatalog(r.Context(), app.DB, questionnaireId)
		if err != nil {
			httpx.LogInternalError(w, "db.preview.catalog", err)
			return
		}
		if len(cat.Items) == 0 {
			httpx.LogNotFound(w, "preview", questionnaireId)
			return
		}

		ev := engine.Evaluate(cat, engine.StateFromForm(payload.Answers))

		render.JSON(w, r, map[string]any{
			"visible":  ev.Visibility.Visible,
			"required": ev.Visibility.Required,
			"missing":  ev.Missing,
			"weights":  ev.Weights,
			"results":  ev.Results,
			"score":    ev.Score,
		})
	}
}

// SaveDraft upserts the draft response for (assessor, questionnaire, period).
// Drafts keep the raw values of currently visible items; no score is computed
// and completeness is not enforced.
func SaveDraft(app app.App) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		questionnaireId, err := strconv.Atoi(chi.URLParam(r, "id"))
		if err != nil {
			httpx.LogStatus(w, http.StatusBadRequest, log.DebugLevel, "request.get_url_param.id")
			return
		}

		payload := responsePayload{}
		err = render.DecodeJSON(r.Body, &payload)
		if err != nil || payload.Period == "" {
			httpx.LogStatus(w, http.StatusBadRequest, log.DebugLevel, "request.parse_body")
			return
		}

		tx, err := app.BeginTx(r.Context(), nil)
		if err != nil {
			httpx.LogInternalError(w, "db.begin_tx", err)
			return
		}
		defer tx.Rollback()

		session, err := openSession(r, tx, questionnaireId, payload.Period)
		if err != nil {
			session.renderError(w, "save_draft", err)
			return
		}

		state := engine.StateFromForm(payload.Answers)
		ev := engine.Evaluate(session.catalog, state)

		responseId := session.draftId
		if responseId == 0 {
			uid := uuid.Must(uuid.NewV4()).String()
			err = tx.QueryRowContext(r.Context(), `
				INSERT INTO response (uid, questionnaire_id, assessor_id, period, status, time)
				VALUES (?, ?, ?, ?, 'draft', ?)
				RETURNING id`,
				uid,
				questionnaireId,
				session.assessorId,
				payload.Period,
				time.Now(),
			).Scan(&responseId)
			if err != nil {
				httpx.LogInternalError(w, "db.save_draft.insert", err)
				return
			}
		} else {
			_, err = tx.ExecContext(r.Context(),
				"UPDATE response SET time = ? WHERE id = ?", time.Now(), responseId)
			if err != nil {
				httpx.LogInternalError(w, "db.save_draft.touch", err)
				return
			}
		}

		err = storeAnswers(r, tx, responseId, session.catalog, ev, func(linkID string) []model.AnswerEntry {
			var entries []model.AnswerEntry
			for _, v := range state.Values(linkID) {
				entries = append(entries, model.StringEntry(v))
			}
			return entries
		})
		if err != nil {
			httpx.LogInternalError(w, "db.save_draft.answers", err)
			return
		}

		err = tx.Commit()
		if err != nil {
			httpx.LogInternalError(w, "db.save_draft.commit", err)
			return
		}

		render.JSON(w, r, map[string]any{
			"id":     responseId,
			"status": model.StatusDraft,
		})
	}
}

// SubmitResponse is the authoritative save: weights, visibility, answers and
// the aggregate score are recomputed from scratch inside one transaction.
// A missing visible required item aborts the whole submission; nothing is
// persisted and the missing labels are returned for highlighting. On success
// the course recommendations for the response are cleared and rebuilt.
func SubmitResponse(app app.App) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		questionnaireId, err := strconv.Atoi(chi.URLParam(r, "id"))
		if err != nil {
			httpx.LogStatus(w, http.StatusBadRequest, log.DebugLevel, "request.get_url_param.id")
			return
		}

		payload := responsePayload{}
		err = render.DecodeJSON(r.Body, &payload)
		if err != nil || payload.Period == "" {
			httpx.LogStatus(w, http.StatusBadRequest, log.DebugLevel, "request.parse_body")
			return
		}

		tx, err := app.BeginTx(r.Context(), nil)
		if err != nil {
			httpx.LogInternalError(w, "db.begin_tx", err)
			return
		}
		defer tx.Rollback()

		session, err := openSession(r, tx, questionnaireId, payload.Period)
		if err != nil {
			session.renderError(w, "submit", err)
			return
		}

		ev := engine.Evaluate(session.catalog, engine.StateFromForm(payload.Answers))

		if len(ev.Missing) > 0 {
			log.Debugf("submit.missing_required: %v", ev.Missing)
			w.WriteHeader(http.StatusUnprocessableEntity)
			render.JSON(w, r, map[string]any{
				"missing": ev.Missing,
			})
			return
		}

		responseId := session.draftId
		if responseId == 0 {
			uid := uuid.Must(uuid.NewV4()).String()
			err = tx.QueryRowContext(r.Context(), `
				INSERT INTO response (uid, questionnaire_id, assessor_id, period, status, score, time)
				VALUES (?, ?, ?, ?, 'submitted', ?, ?)
				RETURNING id`,
				uid,
				questionnaireId,
				session.assessorId,
				payload.Period,
				nullableScore(ev.Score),
				time.Now(),
			).Scan(&responseId)
			if err != nil {
				httpx.LogInternalError(w, "db.submit.insert", err)
				return
			}
		} else {
			_, err = tx.ExecContext(r.Context(), `
				UPDATE response
				SET status = 'submitted', score = ?, time = ?
				WHERE id = ?`,
				nullableScore(ev.Score),
				time.Now(),
				responseId,
			)
			if err != nil {
				httpx.LogInternalError(w, "db.submit.finalize", err)
				return
			}
		}

		err = storeAnswers(r, tx, responseId, session.catalog, ev, func(linkID string) []model.AnswerEntry {
			return ev.Results[linkID].Answer
		})
		if err != nil {
			httpx.LogInternalError(w, "db.submit.answers", err)
			return
		}

		err = rebuildRecommendations(r, tx, responseId, middlewares.WorkFunction(r), ev.Score)
		if err != nil {
			httpx.LogInternalError(w, "db.submit.recommendations", err)
			return
		}

		err = tx.Commit()
		if err != nil {
			httpx.LogInternalError(w, "db.submit.commit", err)
			return
		}

		w.WriteHeader(http.StatusCreated)
		render.JSON(w, r, map[string]any{
			"id":     responseId,
			"status": model.StatusSubmitted,
			"score":  ev.Score,
		})
	}
}

var (
	errNotFound     = errors.New("questionnaire not found")
	errAlreadyFinal = errors.New("response already finalized")
)

// session carries the per-request state every save path needs: who is
// answering, the questionnaire's catalog, and their open draft, if any.
type session struct {
	assessorId int
	catalog    engine.Catalog
	draftId    int
}

func openSession(r *http.Request, tx *sql.Tx, questionnaireId int, period string) (s session, err error) {
	err = tx.QueryRowContext(r.Context(),
		"SELECT id FROM assessor WHERE username = ?", middlewares.Username(r),
	).Scan(&s.assessorId)
	if err != nil {
		return s, err
	}

	var active bool
	err = tx.QueryRowContext(r.Context(),
		"SELECT active FROM questionnaire WHERE id = ?", questionnaireId,
	).Scan(&active)
	if errors.Is(err, sql.ErrNoRows) || err == nil && !active {
		return s, errNotFound
	}
	if err != nil {
		return s, err
	}

	s.catalog, err = loadCatalog(r.Context(), tx, questionnaireId)
	if err != nil {
		return s, err
	}

	var status string
	err = tx.QueryRowContext(r.Context(), `
		SELECT id, status
		FROM response
		WHERE questionnaire_id = ?
			AND assessor_id = ?
			AND period = ?
		ORDER BY id DESC
		LIMIT 1`,
		questionnaireId,
		s.assessorId,
		period,
	).Scan(&s.draftId, &status)
	if errors.Is(err, sql.ErrNoRows) {
		return s, nil
	}
	if err != nil {
		s.draftId = 0
		return s, err
	}
	if status != model.StatusDraft {
		s.draftId = 0
		return s, errAlreadyFinal
	}
	return s, nil
}

func (s session) renderError(w http.ResponseWriter, code string, err error) {
	switch {
	case errors.Is(err, errNotFound):
		httpx.LogNotFound(w, code, "questionnaire")
	case errors.Is(err, errAlreadyFinal):
		httpx.LogStatus(w, http.StatusConflict, log.DebugLevel, code+".already_finalized")
	default:
		httpx.LogInternalError(w, "db."+code+".session", err)
	}
}

// storeAnswers replaces the response's stored items with one row per visible
// item that captured at least one entry. Hidden items are discarded here even
// if the surface posted stale values for them.
func storeAnswers(r *http.Request, tx *sql.Tx, responseId int, cat engine.Catalog, ev engine.Evaluation, entries func(linkID string) []model.AnswerEntry) error {
	_, err := tx.ExecContext(r.Context(),
		"DELETE FROM response_item WHERE response_id = ?", responseId)
	if err != nil {
		return err
	}

	stmt, err := tx.PrepareContext(r.Context(), `
		INSERT INTO response_item (response_id, link_id, answer)
		VALUES (?, ?, ?)`)
	if err != nil {
		return err
	}
	defer stmt.Close()

	for _, it := range cat.Items {
		if !ev.Visibility.Visible[it.LinkID] {
			continue
		}
		answer := entries(it.LinkID)
		if len(answer) == 0 {
			continue
		}
		answerJson, err := json.Marshal(answer)
		if err != nil {
			return err
		}
		_, err = stmt.ExecContext(r.Context(), responseId, it.LinkID, string(answerJson))
		if err != nil {
			return err
		}
	}
	return nil
}

// rebuildRecommendations clears and recreates the training-course matches for
// a finalized response. Always a full rebuild, never an incremental patch.
func rebuildRecommendations(r *http.Request, tx *sql.Tx, responseId int, workFunction string, score *int) error {
	_, err := tx.ExecContext(r.Context(),
		"DELETE FROM recommendation WHERE response_id = ?", responseId)
	if err != nil {
		return err
	}
	if score == nil {
		return nil
	}

	_, err = tx.ExecContext(r.Context(), `
		INSERT INTO recommendation (response_id, course_id)
		SELECT ?, c.id
		FROM course c
		WHERE c.work_function = ?
			AND ? BETWEEN c.min_score AND c.max_score`,
		responseId,
		workFunction,
		*score,
	)
	return err
}

func nullableScore(score *int) any {
	if score == nil {
		return nil
	}
	return *score
}
