package services

import (
	"bytes"
	"fmt"
	"html/template"
	"log"
	"strings"
	textTemplate "text/template"

	"claims_app_go/config"

	"github.com/resend/resend-go/v2"
)

// Email represents an email message
type Email struct {
	To       []string
	Subject  string
	HTMLBody string
	TextBody string
}

// SendEmail sends an email using Resend API
func SendEmail(cfg *config.Config, email *Email) error {
	// In development mode, log the email instead of sending
	if cfg.EmailTestMode {
		logEmailToConsole(email)
		log.Printf("Email logged successfully (development mode - not actually sent)")
		return nil
	}

	if cfg.ResendAPIKey == "" {
		return fmt.Errorf("RESEND_API_KEY not configured")
	}
	if len(email.To) == 0 {
		return fmt.Errorf("email has no recipients")
	}

	client := resend.NewClient(cfg.ResendAPIKey)

	params := &resend.SendEmailRequest{
		From:    fmt.Sprintf("%s <%s>", cfg.EmailFromName, cfg.EmailFrom),
		To:      email.To,
		Subject: email.Subject,
		Html:    email.HTMLBody,
		Text:    email.TextBody,
	}
	if params.Html == "" && params.Text == "" {
		return fmt.Errorf("email must have either HTMLBody or TextBody")
	}

	sent, err := client.Emails.Send(params)
	if err != nil {
		return fmt.Errorf("failed to send email via Resend: %v", err)
	}

	log.Printf("Email sent successfully via Resend (ID: %s) to: %v", sent.Id, email.To)
	return nil
}

// logEmailToConsole logs email details to console in development mode
func logEmailToConsole(email *Email) {
	separator := strings.Repeat("=", 80)
	log.Printf("\n%s\nEMAIL (Development Mode - Not Actually Sent)\n%s", separator, separator)
	log.Printf("To: %v", email.To)
	log.Printf("Subject: %s", email.Subject)
	log.Printf("\n--- TEXT BODY ---\n%s", email.TextBody)
	log.Printf("\n--- HTML BODY (first 500 chars) ---\n%s...", truncate(email.HTMLBody, 500))
	log.Printf("%s\n", separator)
}

// truncate truncates a string to a maximum length
func truncate(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	return s[:maxLen]
}

// SendEmailAsync sends an email in a goroutine so callers never wait on the provider
func SendEmailAsync(cfg *config.Config, email *Email) {
	emailCopy := &Email{
		To:       append([]string{}, email.To...),
		Subject:  email.Subject,
		HTMLBody: email.HTMLBody,
		TextBody: email.TextBody,
	}

	go func(cfg *config.Config, email *Email) {
		if err := SendEmail(cfg, email); err != nil {
			log.Printf("Error sending async email: %v", err)
		}
	}(cfg, emailCopy)
}

// AssignmentEmailData contains data for the correspondence assignment email
type AssignmentEmailData struct {
	ClaimNumber string
	CaseTitle   string
	Subject     string
	From        string
	Direction   string
	CaseURL     string
}

var assignmentHTML = template.Must(template.New("assignment_html").Parse(`<p>A message was assigned to claim <strong>{{.ClaimNumber}}</strong>{{if .CaseTitle}} ({{.CaseTitle}}){{end}}.</p>
<table>
<tr><td>Subject</td><td>{{.Subject}}</td></tr>
<tr><td>From</td><td>{{.From}}</td></tr>
<tr><td>Direction</td><td>{{.Direction}}</td></tr>
</table>
<p><a href="{{.CaseURL}}">Open the claim</a></p>`))

var assignmentText = textTemplate.Must(textTemplate.New("assignment_txt").Parse(`A message was assigned to claim {{.ClaimNumber}}{{if .CaseTitle}} ({{.CaseTitle}}){{end}}.

Subject: {{.Subject}}
From: {{.From}}
Direction: {{.Direction}}

{{.CaseURL}}
`))

// BuildAssignmentEmail notifies a case handler about newly assigned correspondence
func BuildAssignmentEmail(handlerEmail string, data AssignmentEmailData) *Email {
	var htmlBuf, textBuf bytes.Buffer
	if err := assignmentHTML.Execute(&htmlBuf, data); err != nil {
		log.Printf("Error rendering assignment email (html): %v", err)
	}
	if err := assignmentText.Execute(&textBuf, data); err != nil {
		log.Printf("Error rendering assignment email (text): %v", err)
	}

	return &Email{
		To:       []string{handlerEmail},
		Subject:  fmt.Sprintf("[%s] New correspondence: %s", data.ClaimNumber, truncate(data.Subject, 120)),
		HTMLBody: htmlBuf.String(),
		TextBody: textBuf.String(),
	}
}
