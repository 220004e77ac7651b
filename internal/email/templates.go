package email

import (
	"bytes"
	"embed"
	"fmt"
	"html/template"
)

//go:embed templates/*.html
var templateFS embed.FS

func renderEscalation(data EscalationData) (string, error) {
	tmpl, err := template.ParseFS(templateFS, "templates/alert_escalation.html")
	if err != nil {
		return "", fmt.Errorf("parse escalation template: %w", err)
	}
	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, data); err != nil {
		return "", fmt.Errorf("render escalation template: %w", err)
	}
	return buf.String(), nil
}
