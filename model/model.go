package model

import "time"

// Item types. Only choice/likert/boolean/text/textarea items accept answers;
// display/group/section are structural and never scored.
const (
	TypeChoice   = "choice"
	TypeLikert   = "likert"
	TypeBoolean  = "boolean"
	TypeText     = "text"
	TypeTextarea = "textarea"
	TypeDisplay  = "display"
	TypeGroup    = "group"
	TypeSection  = "section"
)

// Condition operators for item visibility.
const (
	OpEquals    = "equals"
	OpNotEquals = "not_equals"
	OpContains  = "contains"
)

// Response statuses.
const (
	StatusDraft     = "draft"
	StatusSubmitted = "submitted"
	StatusApproved  = "approved"
	StatusRejected  = "rejected"
)

type Questionnaire struct {
	ID          int       `json:"id,omitempty"`
	Version     int       `json:"version,omitempty"`
	Title       string    `json:"title"`
	Description string    `json:"description"`
	Active      bool      `json:"active"`
	Sections    []Section `json:"sections,omitempty"`
	Items       []Item    `json:"items"`
}

type Section struct {
	ID     int    `json:"id,omitempty"`
	Title  string `json:"title"`
	Scored bool   `json:"includeInScoring"`
}

type Item struct {
	ID              int      `json:"id,omitempty"`
	LinkID          string   `json:"linkId"`
	SectionID       *int     `json:"sectionId,omitempty"`
	Text            string   `json:"text"`
	Type            string   `json:"type"`
	AllowMultiple   bool     `json:"allowMultiple"`
	Required        bool     `json:"required"`
	RequiresCorrect bool     `json:"requiresCorrect"`
	Weight          *float64 `json:"weight,omitempty"`
	Active          bool     `json:"active"`
	CondSource      string   `json:"conditionSourceLinkId,omitempty"`
	CondOperator    string   `json:"conditionOperator,omitempty"`
	CondValue       string   `json:"conditionValue,omitempty"`
	Options         []Option `json:"options,omitempty"`
}

type Option struct {
	Value   string `json:"value"`
	Correct bool   `json:"correct"`
	Order   int    `json:"order"`
}

// AnswerEntry carries exactly one of its value fields, mirroring the FHIR
// QuestionnaireResponse item.answer shape used on the wire and in storage.
type AnswerEntry struct {
	ValueString  *string `json:"valueString,omitempty"`
	ValueBoolean *bool   `json:"valueBoolean,omitempty"`
	ValueInteger *int    `json:"valueInteger,omitempty"`
}

func StringEntry(s string) AnswerEntry { return AnswerEntry{ValueString: &s} }
func BooleanEntry(b bool) AnswerEntry  { return AnswerEntry{ValueBoolean: &b} }
func IntegerEntry(i int) AnswerEntry   { return AnswerEntry{ValueInteger: &i} }

type Response struct {
	ID              int            `json:"id,omitempty"`
	UID             string         `json:"uid,omitempty"`
	QuestionnaireID int            `json:"questionnaireId"`
	AssessorID      int            `json:"assessorId,omitempty"`
	Period          string         `json:"period"`
	Status          string         `json:"status"`
	Score           *int           `json:"score"`
	Time            time.Time      `json:"time,omitempty"`
	Items           []ResponseItem `json:"items"`
}

type ResponseItem struct {
	LinkID string        `json:"linkId"`
	Answer []AnswerEntry `json:"answer"`
}

type Course struct {
	ID           int    `json:"id,omitempty"`
	Title        string `json:"title"`
	WorkFunction string `json:"workFunction"`
	MinScore     int    `json:"minScore"`
	MaxScore     int    `json:"maxScore"`
}
