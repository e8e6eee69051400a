package widget

import (
	"net/url"
	"strconv"
	"strings"

	"ytissues/internal/youtrack"
)

var superscriptDigits = [10]rune{'⁰', '¹', '²', '³', '⁴', '⁵', '⁶', '⁷', '⁸', '⁹'}

// Superscript renders a non-negative number with superscript digits.
func Superscript(n int) string {
	var b strings.Builder
	for _, d := range strconv.Itoa(n) {
		if d < '0' || d > '9' {
			b.WriteRune(d)
			continue
		}
		b.WriteRune(superscriptDigits[d-'0'])
	}
	return b.String()
}

// FullSearchPresentation describes a query as "#{Context} search", falling
// back to "#<issuesLabel>" when both are empty.
func FullSearchPresentation(context *youtrack.Folder, search, issuesLabel string) string {
	var parts []string
	if context != nil && context.Name != "" {
		parts = append(parts, "#{"+context.Name+"}")
	}
	if search != "" {
		parts = append(parts, search)
	}
	if len(parts) == 0 {
		return "#" + issuesLabel
	}
	return strings.Join(parts, " ")
}

// DisplayTitle is the widget title: the configured title or the query
// presentation, followed by the count in superscript when positive.
func DisplayTitle(title string, context *youtrack.Folder, search string, count int, issuesLabel string) string {
	text := title
	if text == "" {
		text = FullSearchPresentation(context, search, issuesLabel)
	}
	if count > 0 {
		text += " " + Superscript(count)
	}
	return text
}

// IssueListLink links to the issue list for a query on the service.
func IssueListLink(homeURL string, context *youtrack.Folder, search string) string {
	link := strings.TrimRight(homeURL, "/") + "/"
	switch {
	case context != nil && context.ShortName != "":
		link += "issues/" + strings.ToLower(context.ShortName)
	case context != nil && context.Type != "":
		kind := "search/"
		if strings.Contains(strings.ToLower(context.Type), "tag") {
			kind = "tag/"
		}
		link += kind + strings.ToLower(context.Name) + "-" + idSuffix(context.ID)
	default:
		link += "issues"
	}
	if search != "" {
		link += "?q=" + escapeComponent(search)
	}
	return link
}

// componentUnescaper undoes the escapes url.QueryEscape applies to characters
// that browsers leave alone in a URI component.
var componentUnescaper = strings.NewReplacer(
	"+", "%20",
	"%21", "!",
	"%27", "'",
	"%28", "(",
	"%29", ")",
	"%2A", "*",
)

// escapeComponent escapes s the way browsers do for a URI component.
func escapeComponent(s string) string {
	return componentUnescaper.Replace(url.QueryEscape(s))
}

func idSuffix(id string) string {
	if i := strings.LastIndexByte(id, '-'); i >= 0 {
		return id[i+1:]
	}
	return id
}
