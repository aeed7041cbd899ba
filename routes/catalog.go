package routes

import (
	"context"
	"database/sql"
	"encoding/json"

	"github.com/perfboard/perfboard/engine"
	"github.com/perfboard/perfboard/model"
)

// querier is satisfied by both *sql.DB and *sql.Tx, so the catalog can be
// loaded inside or outside the submission transaction.
type querier interface {
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// loadCatalog reads the ordered item catalog of one questionnaire: active
// items with their options, plus the declared sections. The engine only ever
// sees this filtered view; loadDefinition returns the unfiltered one for the
// admin surface.
func loadCatalog(ctx context.Context, db querier, questionnaireID int) (engine.Catalog, error) {
	return loadItems(ctx, db, questionnaireID, true)
}

func loadDefinition(ctx context.Context, db querier, questionnaireID int) (engine.Catalog, error) {
	return loadItems(ctx, db, questionnaireID, false)
}

func loadItems(ctx context.Context, db querier, questionnaireID int, activeOnly bool) (cat engine.Catalog, err error) {
	rows, err := db.QueryContext(ctx, `
		SELECT id, title, scored
		FROM section
		WHERE questionnaire_id = ?
		ORDER BY position, id`,
		questionnaireID,
	)
	if err != nil {
		return cat, err
	}
	defer rows.Close()

	for rows.Next() {
		s := model.Section{}
		err = rows.Scan(&s.ID, &s.Title, &s.Scored)
		if err != nil {
			return cat, err
		}
		cat.Sections = append(cat.Sections, s)
	}
	if err = rows.Err(); err != nil {
		return cat, err
	}

	itemRows, err := db.QueryContext(ctx, `
		SELECT
			i.id, i.link_id, i.section_id, i.text, i.type,
			i.allow_multiple, i.required, i.requires_correct, i.weight, i.active,
			i.cond_source, i.cond_operator, i.cond_value
		FROM item i
		WHERE i.questionnaire_id = ?
			AND (i.active OR NOT ?)
		ORDER BY i.position, i.id`,
		questionnaireID,
		activeOnly,
	)
	if err != nil {
		return cat, err
	}
	defer itemRows.Close()

	index := map[int]int{}
	for itemRows.Next() {
		it := model.Item{}
		err = itemRows.Scan(
			&it.ID, &it.LinkID, &it.SectionID, &it.Text, &it.Type,
			&it.AllowMultiple, &it.Required, &it.RequiresCorrect, &it.Weight, &it.Active,
			&it.CondSource, &it.CondOperator, &it.CondValue,
		)
		if err != nil {
			return cat, err
		}
		// requiresCorrect is only meaningful on single-select choice items
		if it.Type != model.TypeChoice || it.AllowMultiple {
			it.RequiresCorrect = false
		}
		index[it.ID] = len(cat.Items)
		cat.Items = append(cat.Items, it)
	}
	if err = itemRows.Err(); err != nil {
		return cat, err
	}

	optRows, err := db.QueryContext(ctx, `
		SELECT o.item_id, o.value, o.correct, o.position
		FROM item_option o
		JOIN item i ON (i.id = o.item_id)
		WHERE i.questionnaire_id = ?
		ORDER BY o.item_id, o.position, o.id`,
		questionnaireID,
	)
	if err != nil {
		return cat, err
	}
	defer optRows.Close()

	for optRows.Next() {
		var itemID int
		opt := model.Option{}
		err = optRows.Scan(&itemID, &opt.Value, &opt.Correct, &opt.Order)
		if err != nil {
			return cat, err
		}
		if i, ok := index[itemID]; ok {
			cat.Items[i].Options = append(cat.Items[i].Options, opt)
		}
	}
	return cat, optRows.Err()
}

// loadResponseAnswers reads the stored answer entries of one response,
// keyed by linkId.
func loadResponseAnswers(ctx context.Context, db querier, responseID int) (map[string][]model.AnswerEntry, error) {
	rows, err := db.QueryContext(ctx, `
		SELECT link_id, answer
		FROM response_item
		WHERE response_id = ?`,
		responseID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	answers := map[string][]model.AnswerEntry{}
	for rows.Next() {
		var linkID, answerJson string
		err = rows.Scan(&linkID, &answerJson)
		if err != nil {
			return nil, err
		}

		var entries []model.AnswerEntry
		err = json.Unmarshal([]byte(answerJson), &entries)
		if err != nil {
			return nil, err
		}
		answers[linkID] = entries
	}
	return answers, rows.Err()
}
