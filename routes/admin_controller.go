package routes

import (
	"database/sql"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"
	"github.com/hashicorp/go-multierror"

	"github.com/perfboard/perfboard/app"
	"github.com/perfboard/perfboard/httpx"
	"github.com/perfboard/perfboard/log"
	"github.com/perfboard/perfboard/model"
)

func CreateQuestionnaire(app app.App) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		q := model.Questionnaire{}
		err := render.DecodeJSON(r.Body, &q)
		if err != nil {
			httpx.LogStatus(w, http.StatusBadRequest, log.DebugLevel, "request.parse_body")
			return
		}

		if err := validateQuestionnaire(q); err != nil {
			httpx.LogStatusMsg(w, http.StatusBadRequest, log.DebugLevel, "questionnaire.validate", "%s", err)
			return
		}

		tx, err := app.BeginTx(r.Context(), nil)
		if err != nil {
			httpx.LogInternalError(w, "db.begin_tx", err)
			return
		}
		defer tx.Rollback()

		var questionnaireId int
		err = tx.QueryRowContext(r.Context(), `
			INSERT INTO questionnaire (title, description, active) VALUES (?, ?, TRUE)
			RETURNING id`,
			q.Title,
			q.Description,
		).Scan(&questionnaireId)
		if err != nil {
			httpx.LogInternalError(w, "db.insert_questionnaire", err)
			return
		}

		err = insertDefinition(r, tx, questionnaireId, q)
		if err != nil {
			httpx.LogInternalError(w, "db.insert_questionnaire.definition", err)
			return
		}

		err = tx.Commit()
		if err != nil {
			httpx.LogInternalError(w, "db.insert_questionnaire.commit", err)
			return
		}

		w.WriteHeader(http.StatusCreated)
		render.JSON(w, r, map[string]any{
			"id": questionnaireId,
		})
	}
}

func ListQuestionnaires(app app.App) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		rows, err := app.QueryContext(r.Context(), `
			SELECT q.id, q.version, q.title, q.description, q.active
			FROM questionnaire q`)
		if err != nil {
			httpx.LogInternalError(w, "db.get_questionnaires", err)
			return
		}
		defer rows.Close()

		questionnaires := []model.Questionnaire{}
		for rows.Next() {
			q := model.Questionnaire{}
			err = rows.Scan(&q.ID, &q.Version, &q.Title, &q.Description, &q.Active)
			if err != nil {
				httpx.LogInternalError(w, "db.get_questionnaires.scan", err)
				return
			}

			questionnaires = append(questionnaires, q)
		}

		render.JSON(w, r, map[string]any{
			"questionnaires": questionnaires,
		})
	}
}

// GetQuestionnaireDefinition serves the full definition, inactive items
// included, for the admin surface.
func GetQuestionnaireDefinition(app app.App) http.HandlerFunc {
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
		if errors.Is(err, sql.ErrNoRows) {
			httpx.LogNotFound(w, "get_questionnaire_definition", questionnaireId)
			return
		}
		if err != nil {
			httpx.LogInternalError(w, "db.get_questionnaire_definition", err)
			return
		}

		cat, err := loadDefinition(r.Context(), app.DB, questionnaireId)
		if err != nil {
			httpx.LogInternalError(w, "db.get_questionnaire_definition.items", err)
			return
		}
		q.Sections = cat.Sections
		q.Items = cat.Items

		render.JSON(w, r, q)
	}
}

// UpdateQuestionnaire replaces the whole definition and bumps the version.
// Once any response references the questionnaire its linkIds are frozen, so
// the update is refused outright.
func UpdateQuestionnaire(app app.App) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		questionnaireId, err := strconv.Atoi(chi.URLParam(r, "id"))
		if err != nil {
			httpx.LogStatus(w, http.StatusBadRequest, log.DebugLevel, "request.get_url_param.id")
			return
		}

		q := model.Questionnaire{}
		err = render.DecodeJSON(r.Body, &q)
		if err != nil {
			httpx.LogStatus(w, http.StatusBadRequest, log.DebugLevel, "request.parse_body")
			return
		}

		if err := validateQuestionnaire(q); err != nil {
			httpx.LogStatusMsg(w, http.StatusBadRequest, log.DebugLevel, "questionnaire.validate", "%s", err)
			return
		}

		tx, err := app.BeginTx(r.Context(), nil)
		if err != nil {
			httpx.LogInternalError(w, "db.begin_tx", err)
			return
		}
		defer tx.Rollback()

		var answered bool
		err = tx.QueryRowContext(r.Context(), `
			SELECT EXISTS (SELECT 1 FROM response WHERE questionnaire_id = ?)`,
			questionnaireId,
		).Scan(&answered)
		if err != nil {
			httpx.LogInternalError(w, "db.update_questionnaire.responses", err)
			return
		}
		if answered {
			httpx.LogStatus(w, http.StatusConflict, log.DebugLevel, "update_questionnaire.has_responses")
			return
		}

		res, err := tx.ExecContext(r.Context(), `
			UPDATE questionnaire
			SET title = ?, description = ?, active = ?, version = version + 1
			WHERE id = ?`,
			q.Title,
			q.Description,
			q.Active,
			questionnaireId,
		)
		if err != nil {
			httpx.LogInternalError(w, "db.update_questionnaire", err)
			return
		}
		if n, _ := res.RowsAffected(); n == 0 {
			httpx.LogNotFound(w, "update_questionnaire", questionnaireId)
			return
		}

		_, err = tx.ExecContext(r.Context(),
			"DELETE FROM item WHERE questionnaire_id = ?", questionnaireId)
		if err != nil {
			httpx.LogInternalError(w, "db.update_questionnaire.clear_items", err)
			return
		}
		_, err = tx.ExecContext(r.Context(),
			"DELETE FROM section WHERE questionnaire_id = ?", questionnaireId)
		if err != nil {
			httpx.LogInternalError(w, "db.update_questionnaire.clear_sections", err)
			return
		}

		err = insertDefinition(r, tx, questionnaireId, q)
		if err != nil {
			httpx.LogInternalError(w, "db.update_questionnaire.definition", err)
			return
		}

		err = tx.Commit()
		if err != nil {
			httpx.LogInternalError(w, "db.update_questionnaire.commit", err)
			return
		}

		w.WriteHeader(http.StatusNoContent)
	}
}

func DeleteQuestionnaire(app app.App) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		questionnaireId, err := strconv.Atoi(chi.URLParam(r, "id"))
		if err != nil {
			httpx.LogStatus(w, http.StatusBadRequest, log.DebugLevel, "request.get_url_param.id")
			return
		}

		res, err := app.ExecContext(r.Context(),
			"DELETE FROM questionnaire WHERE id = ?", questionnaireId)
		if err != nil {
			httpx.LogInternalError(w, "db.delete_questionnaire", err)
			return
		}
		if n, _ := res.RowsAffected(); n == 0 {
			httpx.LogNotFound(w, "delete_questionnaire", questionnaireId)
			return
		}

		w.WriteHeader(http.StatusNoContent)
	}
}

func ListResponses(app app.App) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		questionnaireId, err := strconv.Atoi(chi.URLParam(r, "id"))
		if err != nil {
			httpx.LogStatus(w, http.StatusBadRequest, log.DebugLevel, "request.get_url_param.id")
			return
		}

		rows, err := app.QueryContext(r.Context(), `
			SELECT r.id, r.uid, a.username, r.period, r.status, r.score, r.time
			FROM response r
			JOIN assessor a ON (a.id = r.assessor_id)
			WHERE r.questionnaire_id = ?
			ORDER BY r.time DESC`,
			questionnaireId,
		)
		if err != nil {
			httpx.LogInternalError(w, "db.get_responses", err)
			return
		}
		defer rows.Close()

		type responseRow struct {
			model.Response
			Username string `json:"username"`
		}
		responses := []responseRow{}
		for rows.Next() {
			row := responseRow{}
			err = rows.Scan(&row.ID, &row.UID, &row.Username, &row.Period, &row.Status, &row.Score, &row.Time)
			if err != nil {
				httpx.LogInternalError(w, "db.get_responses.scan", err)
				return
			}
			row.QuestionnaireID = questionnaireId
			responses = append(responses, row)
		}

		render.JSON(w, r, map[string]any{
			"responses": responses,
		})
	}
}

func CreateCourse(app app.App) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		course := model.Course{MaxScore: 100}
		err := render.DecodeJSON(r.Body, &course)
		if err != nil {
			httpx.LogStatus(w, http.StatusBadRequest, log.DebugLevel, "request.parse_body")
			return
		}
		if strings.TrimSpace(course.Title) == "" || strings.TrimSpace(course.WorkFunction) == "" {
			httpx.LogStatusMsg(w, http.StatusBadRequest, log.DebugLevel, "course.validate",
				"title and workFunction are required")
			return
		}

		var courseId int
		err = app.QueryRowContext(r.Context(), `
			INSERT INTO course (title, work_function, min_score, max_score)
			VALUES (?, ?, ?, ?)
			RETURNING id`,
			course.Title,
			course.WorkFunction,
			course.MinScore,
			course.MaxScore,
		).Scan(&courseId)
		if err != nil {
			httpx.LogInternalError(w, "db.insert_course", err)
			return
		}

		w.WriteHeader(http.StatusCreated)
		render.JSON(w, r, map[string]any{
			"id": courseId,
		})
	}
}

func ListCourses(app app.App) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		rows, err := app.QueryContext(r.Context(), `
			SELECT id, title, work_function, min_score, max_score
			FROM course
			ORDER BY work_function, min_score`)
		if err != nil {
			httpx.LogInternalError(w, "db.get_courses", err)
			return
		}
		defer rows.Close()

		courses := []model.Course{}
		for rows.Next() {
			c := model.Course{}
			err = rows.Scan(&c.ID, &c.Title, &c.WorkFunction, &c.MinScore, &c.MaxScore)
			if err != nil {
				httpx.LogInternalError(w, "db.get_courses.scan", err)
				return
			}
			courses = append(courses, c)
		}

		render.JSON(w, r, map[string]any{
			"courses": courses,
		})
	}
}

var itemTypes = map[string]bool{
	model.TypeChoice:   true,
	model.TypeLikert:   true,
	model.TypeBoolean:  true,
	model.TypeText:     true,
	model.TypeTextarea: true,
	model.TypeDisplay:  true,
	model.TypeGroup:    true,
	model.TypeSection:  true,
}

var condOperators = map[string]bool{
	"":                true,
	model.OpEquals:    true,
	model.OpNotEquals: true,
	model.OpContains:  true,
}

func validateQuestionnaire(q model.Questionnaire) error {
	var errs *multierror.Error

	if strings.TrimSpace(q.Title) == "" {
		errs = multierror.Append(errs, errors.New("title is required"))
	}

	seen := map[string]bool{}
	for i, it := range q.Items {
		label := fmt.Sprintf("item %d", i+1)
		if strings.TrimSpace(it.LinkID) == "" {
			errs = multierror.Append(errs, fmt.Errorf("%s: linkId is required", label))
		} else if seen[it.LinkID] {
			errs = multierror.Append(errs, fmt.Errorf("%s: duplicate linkId %q", label, it.LinkID))
		}
		seen[it.LinkID] = true

		if !itemTypes[it.Type] {
			errs = multierror.Append(errs, fmt.Errorf("%s: unknown type %q", label, it.Type))
		}
		if !condOperators[it.CondOperator] {
			errs = multierror.Append(errs, fmt.Errorf("%s: unknown condition operator %q", label, it.CondOperator))
		}
		if it.CondOperator != "" && it.CondSource == "" {
			errs = multierror.Append(errs, fmt.Errorf("%s: condition operator without source linkId", label))
		}

		switch it.Type {
		case model.TypeChoice, model.TypeLikert:
			if len(it.Options) == 0 {
				errs = multierror.Append(errs, fmt.Errorf("%s: %s items need options", label, it.Type))
			}
			for j, opt := range it.Options {
				if strings.TrimSpace(opt.Value) == "" {
					errs = multierror.Append(errs, fmt.Errorf("%s: option %d has an empty value", label, j+1))
				}
			}
		}

		if it.SectionID != nil && (*it.SectionID < 1 || *it.SectionID > len(q.Sections)) {
			errs = multierror.Append(errs, fmt.Errorf("%s: sectionId %d out of range", label, *it.SectionID))
		}
	}

	return errs.ErrorOrNil()
}

// insertDefinition stores sections, items and options. Incoming items address
// their section by 1-based position in the submitted sections list; the real
// row ids are assigned here.
func insertDefinition(r *http.Request, tx *sql.Tx, questionnaireId int, q model.Questionnaire) error {
	sectionIds := make([]int, len(q.Sections))
	for i, s := range q.Sections {
		err := tx.QueryRowContext(r.Context(), `
			INSERT INTO section (questionnaire_id, title, scored, position)
			VALUES (?, ?, ?, ?)
			RETURNING id`,
			questionnaireId,
			s.Title,
			s.Scored,
			i,
		).Scan(&sectionIds[i])
		if err != nil {
			return err
		}
	}

	stmt, err := tx.PrepareContext(r.Context(), `
		INSERT INTO item (
			questionnaire_id, section_id, link_id, text, type,
			allow_multiple, required, requires_correct, weight, active,
			cond_source, cond_operator, cond_value, position)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		RETURNING id`)
	if err != nil {
		return err
	}
	defer stmt.Close()

	optStmt, err := tx.PrepareContext(r.Context(), `
		INSERT INTO item_option (item_id, value, correct, position)
		VALUES (?, ?, ?, ?)`)
	if err != nil {
		return err
	}
	defer optStmt.Close()

	for i, it := range q.Items {
		var sectionId any
		if it.SectionID != nil {
			sectionId = sectionIds[*it.SectionID-1]
		}

		// requiresCorrect only applies to single-select choice items
		requiresCorrect := it.RequiresCorrect && it.Type == model.TypeChoice && !it.AllowMultiple

		var itemId int
		err = stmt.QueryRowContext(r.Context(),
			questionnaireId, sectionId, it.LinkID, it.Text, it.Type,
			it.AllowMultiple, it.Required, requiresCorrect, it.Weight, true,
			it.CondSource, it.CondOperator, it.CondValue, i,
		).Scan(&itemId)
		if err != nil {
			return err
		}

		for j, opt := range it.Options {
			_, err = optStmt.ExecContext(r.Context(), itemId, opt.Value, opt.Correct, j)
			if err != nil {
				return err
			}
		}
	}
	return nil
}
