package youtrack

import (
	"bytes"
	"strconv"
	"strings"

	"github.com/goccy/go-json"
)

// PageSize is the number of issues requested per page.
const PageSize = 50

// PinnedFoldersPageSize limits the pinned folder listing unless all folders are requested.
const PinnedFoldersPageSize = 100

// Issue is one row of the issue list. Issues are replaced wholesale on every
// load and never patched in place.
type Issue struct {
	ID         string       `json:"id"`
	IDReadable string       `json:"idReadable"`
	Summary    string       `json:"summary"`
	Resolved   *int64       `json:"resolved,omitempty"`
	Fields     []IssueField `json:"fields,omitempty"`
}

// IsResolved reports whether the issue carries a resolution timestamp.
func (i Issue) IsResolved() bool {
	return i.Resolved != nil && *i.Resolved > 0
}

// IssueField is a custom field value attached to an issue.
type IssueField struct {
	ID                 string              `json:"id"`
	Value              FieldValues         `json:"value"`
	ProjectCustomField *ProjectCustomField `json:"projectCustomField,omitempty"`
}

// ValueType returns the field's declared value type ("enum[1]", "date", "text", ...).
func (f IssueField) ValueType() string {
	if f.ProjectCustomField == nil || f.ProjectCustomField.Field == nil || f.ProjectCustomField.Field.FieldType == nil {
		return ""
	}
	return f.ProjectCustomField.Field.FieldType.ValueType
}

// Name returns the localized field name when available.
func (f IssueField) Name() string {
	if f.ProjectCustomField == nil || f.ProjectCustomField.Field == nil {
		return ""
	}
	return f.ProjectCustomField.Field.DisplayName()
}

// ProjectCustomField binds a custom field to a project.
type ProjectCustomField struct {
	ID     string       `json:"id"`
	Bundle *Bundle      `json:"bundle,omitempty"`
	Field  *CustomField `json:"field,omitempty"`
}

// Bundle is the value set backing an enumerated custom field.
type Bundle struct {
	ID string `json:"id"`
}

// CustomField describes a field independent of any project.
type CustomField struct {
	ID            string     `json:"id"`
	Name          string     `json:"name"`
	LocalizedName string     `json:"localizedName,omitempty"`
	FieldType     *FieldType `json:"fieldType,omitempty"`
}

// DisplayName prefers the localized name.
func (f CustomField) DisplayName() string {
	if f.LocalizedName != "" {
		return f.LocalizedName
	}
	return f.Name
}

// FieldType carries the value type of a custom field.
type FieldType struct {
	ID        string `json:"id"`
	ValueType string `json:"valueType"`
}

// Color is a YouTrack palette entry. Id "0" means no colour.
type Color struct {
	ID         string `json:"id"`
	Foreground string `json:"foreground,omitempty"`
	Background string `json:"background,omitempty"`
}

// UnmarshalJSON accepts both numeric and string colour ids.
func (c *Color) UnmarshalJSON(data []byte) error {
	type alias struct {
		ID         json.RawMessage `json:"id"`
		Foreground string          `json:"foreground"`
		Background string          `json:"background"`
	}
	var a alias
	if err := json.Unmarshal(data, &a); err != nil {
		return err
	}
	c.ID = strings.Trim(string(a.ID), `"`)
	if c.ID == "null" {
		c.ID = ""
	}
	c.Foreground = a.Foreground
	c.Background = a.Background
	return nil
}

// IsSet reports whether the colour id is a positive palette index.
func (c *Color) IsSet() bool {
	if c == nil {
		return false
	}
	n, err := strconv.Atoi(c.ID)
	return err == nil && n > 0
}

// FieldValue is one value of an issue field. Enumerated, user and period
// values are objects; dates and plain numbers arrive as JSON scalars and are
// kept verbatim in Scalar.
type FieldValue struct {
	ID            string `json:"id,omitempty"`
	Name          string `json:"name,omitempty"`
	LocalizedName string `json:"localizedName,omitempty"`
	Login         string `json:"login,omitempty"`
	AvatarURL     string `json:"avatarUrl,omitempty"`
	Presentation  string `json:"presentation,omitempty"`
	Minutes       *int   `json:"minutes,omitempty"`
	Color         *Color `json:"color,omitempty"`

	Scalar json.RawMessage `json:"-"`
}

type fieldValueObject FieldValue

// UnmarshalJSON decodes either an object or a bare scalar.
func (v *FieldValue) UnmarshalJSON(data []byte) error {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) > 0 && trimmed[0] == '{' {
		var obj fieldValueObject
		if err := json.Unmarshal(trimmed, &obj); err != nil {
			return err
		}
		*v = FieldValue(obj)
		return nil
	}
	*v = FieldValue{Scalar: append(json.RawMessage(nil), trimmed...)}
	return nil
}

// MarshalJSON writes scalars back verbatim.
func (v FieldValue) MarshalJSON() ([]byte, error) {
	if len(v.Scalar) > 0 {
		return v.Scalar, nil
	}
	return json.Marshal(fieldValueObject(v))
}

// DisplayName prefers the localized name.
func (v FieldValue) DisplayName() string {
	if v.LocalizedName != "" {
		return v.LocalizedName
	}
	return v.Name
}

// Millis returns the scalar as an epoch-millisecond timestamp.
func (v FieldValue) Millis() (int64, bool) {
	if len(v.Scalar) == 0 {
		return 0, false
	}
	n, err := strconv.ParseInt(string(v.Scalar), 10, 64)
	if err != nil {
		f, ferr := strconv.ParseFloat(string(v.Scalar), 64)
		if ferr != nil {
			return 0, false
		}
		return int64(f), true
	}
	return n, true
}

// FieldValues normalises the single, multi and null shapes of an issue field
// value into a slice.
type FieldValues []FieldValue

// UnmarshalJSON accepts null, an array, an object or a scalar.
func (vs *FieldValues) UnmarshalJSON(data []byte) error {
	trimmed := bytes.TrimSpace(data)
	switch {
	case len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")):
		*vs = nil
		return nil
	case trimmed[0] == '[':
		var many []FieldValue
		if err := json.Unmarshal(trimmed, &many); err != nil {
			return err
		}
		*vs = many
		return nil
	default:
		var one FieldValue
		if err := json.Unmarshal(trimmed, &one); err != nil {
			return err
		}
		*vs = FieldValues{one}
		return nil
	}
}

// FolderKind classifies a folder by its $type.
type FolderKind int

const (
	KindUnknown FolderKind = iota
	KindProject
	KindTag
	KindSavedSearch
)

// Folder is a saved search, project or tag used to scope an issue query.
type Folder struct {
	ID        string `json:"id"`
	Type      string `json:"$type,omitempty"`
	Name      string `json:"name,omitempty"`
	ShortName string `json:"shortName,omitempty"`
	Query     string `json:"query,omitempty"`
}

// Kind derives the folder kind from its $type.
func (f Folder) Kind() FolderKind {
	t := strings.ToLower(f.Type)
	switch {
	case strings.Contains(t, "project"):
		return KindProject
	case strings.Contains(t, "tag"):
		return KindTag
	case strings.Contains(t, "savedquery"), strings.Contains(t, "savedsearch"):
		return KindSavedSearch
	default:
		return KindUnknown
	}
}

// SameFolder compares folder identity. Two nil folders match.
func SameFolder(a, b *Folder) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return a.ID == b.ID
}

// Count is a total issue count, or Unknown while the backend is still
// computing it.
type Count struct {
	Value   int
	Unknown bool
}

// KnownCount wraps a resolved count.
func KnownCount(n int) Count { return Count{Value: n} }

// UnknownCount is the "not yet computable" sentinel.
func UnknownCount() Count { return Count{Value: -1, Unknown: true} }

// DateFormats holds presentation patterns for date and date-time fields.
type DateFormats struct {
	DatePattern     string `json:"datePattern"`
	DateTimePattern string `json:"dateTimePattern"`
}

// Default date patterns used when the user profile has none.
const (
	DefaultDatePattern     = "YYYY-MM-DD"
	DefaultDateTimePattern = "YYYY-MM-DD'T'HH:mm:ss"
)

// DefaultDateFormats returns the fallback patterns.
func DefaultDateFormats() DateFormats {
	return DateFormats{DatePattern: DefaultDatePattern, DateTimePattern: DefaultDateTimePattern}
}

// Assist is the query-assist response for a search string.
type Assist struct {
	Query       string       `json:"query"`
	Caret       int          `json:"caret"`
	StyleRanges []StyleRange `json:"styleRanges,omitempty"`
	Suggestions []Suggestion `json:"suggestions,omitempty"`
}

// StyleRange highlights part of the query.
type StyleRange struct {
	Start  int    `json:"start"`
	Length int    `json:"length"`
	Style  string `json:"style"`
}

// Suggestion is one completion candidate.
type Suggestion struct {
	Prefix          string `json:"prefix,omitempty"`
	Option          string `json:"option"`
	Suffix          string `json:"suffix,omitempty"`
	Description     string `json:"description,omitempty"`
	MatchingStart   int    `json:"matchingStart"`
	MatchingEnd     int    `json:"matchingEnd"`
	Caret           int    `json:"caret"`
	CompletionStart int    `json:"completionStart"`
	CompletionEnd   int    `json:"completionEnd"`
	Group           string `json:"group,omitempty"`
	Icon            string `json:"icon,omitempty"`
}

// Apply replaces the completion range of query with the suggestion and
// returns the new query and caret.
func (s Suggestion) Apply(query string) (string, int) {
	start := clamp(s.CompletionStart, 0, len(query))
	end := clamp(s.CompletionEnd, start, len(query))
	insert := s.Prefix + s.Option + s.Suffix
	next := query[:start] + insert + query[end:]
	caret := s.Caret
	if caret <= 0 || caret > len(next) {
		caret = start + len(insert)
	}
	return next, caret
}

func clamp(n, lo, hi int) int {
	if n < lo {
		return lo
	}
	if n > hi {
		return hi
	}
	return n
}
