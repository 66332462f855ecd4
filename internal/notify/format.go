package notify

import (
	"fmt"
	"strings"
	"text/template"

	"comics_mailer/internal/model"
)

var (
	updateSubject = template.Must(template.New("update_subject").Parse(
		`{{.Count}} new comic{{if ne .Count 1}}s{{end}} on your watchlist`))
	updateBody = template.Must(template.New("update_body").Parse(
		`The following comics from your watchlist ship this week:
{{range .Titles}}
  * {{.}}{{end}}
`))

	errorSubject = template.Must(template.New("error_subject").Parse(
		`Comics mailer error {{.Code}}`))
	errorBody = template.Must(template.New("error_body").Parse(
		`{{.Message}}
{{with .Detail}}
Details: {{.}}
{{end}}`))
)

var errorMessages = map[model.FailureReason]string{
	model.ReasonNoFeed:          "Could not retrieve the feed contents. Is the feed URL working?",
	model.ReasonParseFailure:    "The feed entry did not have the expected layout. The comic list page format may have changed.",
	model.ReasonMalformedRecord: "A matching comic list line had fewer fields than expected.",
	model.ReasonInvalidConfig:   "The configuration is missing required parameters.",
	model.ReasonNoConfigFile:    "The configuration file could not be found.",
	model.ReasonNoWatchlist:     "The watchlist file is missing or has no entries.",
}

const unknownErrorMessage = "An unknown error occurred while checking for new comics."

// ErrorText returns the fixed human-readable explanation of a failure reason.
func ErrorText(reason model.FailureReason) string {
	if msg, ok := errorMessages[reason]; ok {
		return msg
	}
	return unknownErrorMessage
}

// UpdateMessage renders the notification for a set of matched comics.
func UpdateMessage(titles []string) (Message, error) {
	data := struct {
		Count  int
		Titles []string
	}{Count: len(titles), Titles: titles}
	return render(updateSubject, updateBody, data)
}

// ErrorMessage renders the notification for a failed run.
func ErrorMessage(reason model.FailureReason, detail string) (Message, error) {
	data := struct {
		Code    int
		Message string
		Detail  string
	}{
		Code:    reason.ExitCode(),
		Message: ErrorText(reason),
		Detail:  strings.TrimSpace(detail),
	}
	return render(errorSubject, errorBody, data)
}

func render(subject, body *template.Template, data any) (Message, error) {
	var s, b strings.Builder
	if err := subject.Execute(&s, data); err != nil {
		return Message{}, fmt.Errorf("render %s: %w", subject.Name(), err)
	}
	if err := body.Execute(&b, data); err != nil {
		return Message{}, fmt.Errorf("render %s: %w", body.Name(), err)
	}
	return Message{Subject: s.String(), Body: b.String()}, nil
}
