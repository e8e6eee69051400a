package youtrack

import (
	"strconv"
	"strings"
	"time"

	"github.com/goccy/go-json"
)

// ValuableFields returns the fields worth showing in an expanded issue line:
// those with at least one value and a non-text type.
func ValuableFields(issue Issue) []IssueField {
	var out []IssueField
	for _, f := range issue.Fields {
		if len(f.Value) == 0 || f.ValueType() == "text" {
			continue
		}
		out = append(out, f)
	}
	return out
}

// FieldPresentation joins the display text of every value of field.
func FieldPresentation(field IssueField, formats DateFormats, loc *time.Location) string {
	valueType := field.ValueType()
	isDate := strings.Contains(valueType, "date")
	withTime := strings.Contains(valueType, "time")

	parts := make([]string, 0, len(field.Value))
	for _, v := range field.Value {
		if isDate {
			if ms, ok := v.Millis(); ok {
				pattern := formats.DatePattern
				if withTime {
					pattern = formats.DateTimePattern
				}
				parts = append(parts, FormatDate(ms, pattern, loc))
				continue
			}
		}
		parts = append(parts, valueText(v))
	}
	return strings.Join(parts, ", ")
}

func valueText(v FieldValue) string {
	switch {
	case v.DisplayName() != "":
		return v.DisplayName()
	case v.Presentation != "":
		return v.Presentation
	case v.Minutes != nil && *v.Minutes != 0:
		return strconv.Itoa(*v.Minutes)
	case v.Login != "":
		return v.Login
	case len(v.Scalar) > 0:
		var s string
		if err := json.Unmarshal(v.Scalar, &s); err == nil {
			return s
		}
		return string(v.Scalar)
	}
	return ""
}

// FirstLetter is the upper-case initial drawn inside a coloured square.
func FirstLetter(v FieldValue) string {
	name := v.DisplayName()
	if name == "" {
		name = "c"
	}
	r := []rune(name)
	return strings.ToUpper(string(r[0]))
}

// Square is the coloured marker drawn in front of an issue.
type Square struct {
	Letter     string
	Title      string
	Foreground string
	Background string
	FieldID    string
}

// ColoredSquare picks the marker for an issue: the priority field when the
// issue has one, otherwise the first field with a coloured value.
func ColoredSquare(issue Issue) *Square {
	for _, f := range issue.Fields {
		pcf := f.ProjectCustomField
		if pcf == nil || pcf.Bundle == nil || pcf.Field == nil {
			continue
		}
		if strings.EqualFold(pcf.Field.Name, "priority") {
			return squareFor(f)
		}
	}
	for _, f := range issue.Fields {
		for _, v := range f.Value {
			if v.Color.IsSet() {
				return squareFor(f)
			}
		}
	}
	return nil
}

func squareFor(f IssueField) *Square {
	for _, v := range f.Value {
		if !v.Color.IsSet() {
			continue
		}
		return &Square{
			Letter:     FirstLetter(v),
			Title:      f.Name() + ": " + v.DisplayName(),
			Foreground: v.Color.Foreground,
			Background: v.Color.Background,
			FieldID:    f.ID,
		}
	}
	return nil
}

// IssueURL links to an issue on the service at homeURL.
func IssueURL(homeURL, idReadable string) string {
	return strings.TrimRight(homeURL, "/") + "/issue/" + idReadable
}
