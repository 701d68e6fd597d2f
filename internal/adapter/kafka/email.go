package kafka

import (
	"fmt"
	"strings"
	"text/template"
	"time"

	"github.com/couchcryptid/disaster-feed-sync/internal/domain"
)

// EmailRequest is the payload consumed by the mailer.
type EmailRequest struct {
	DisasterID  string    `json:"disaster_id"`
	AlertLevel  string    `json:"alert_level"`
	Subject     string    `json:"subject"`
	Body        string    `json:"body"`
	RequestedAt time.Time `json:"requested_at"`
}

var emailBody = template.Must(template.New("email").Parse(`{{.Title}}

Type:        {{.Type}}
Alert level: {{.AlertLevel}}
Status:      {{.Status}}
Location:    {{.Location}}
{{- if .Severity}}
Severity:    {{.Severity}}
{{- end}}
Started:     {{.EventDate.Format "2006-01-02 15:04 MST"}}

{{.Description}}

Details: {{.URL}}
`))

type emailView struct {
	domain.DisasterRecord
	Location string
	Severity string
}

func renderEmail(rec domain.DisasterRecord, now time.Time) (EmailRequest, error) {
	view := emailView{DisasterRecord: rec, Location: "Unknown location"}
	if rec.Country != nil {
		view.Location = *rec.Country
	}
	if rec.Severity != nil {
		view.Severity = *rec.Severity
	}

	var b strings.Builder
	if err := emailBody.Execute(&b, view); err != nil {
		return EmailRequest{}, fmt.Errorf("render email for %s: %w", rec.ID, err)
	}

	return EmailRequest{
		DisasterID:  rec.ID,
		AlertLevel:  rec.AlertLevel,
		Subject:     fmt.Sprintf("[%s alert] %s in %s", rec.AlertLevel, rec.Type, view.Location),
		Body:        b.String(),
		RequestedAt: now.UTC(),
	}, nil
}
