package services

import (
	"bytes"
	"context"
	"fmt"
	"html/template"
	"time"

	"claims_app_go/models"

	"gorm.io/gorm"
)

// renderPDF is swapped in tests that run without a browser
var renderPDF = GeneratePDF

var reportFuncs = template.FuncMap{
	"money": func(amount int64, currency string) string {
		return fmt.Sprintf("%.2f %s", float64(amount)/100, currency)
	},
	"date": func(t *time.Time) string {
		if t == nil {
			return "-"
		}
		return t.Format("2006-01-02")
	},
	"str": func(s *string) string {
		if s == nil || *s == "" {
			return "-"
		}
		return *s
	},
}

var caseReportTemplate = template.Must(template.New("case_report").Funcs(reportFuncs).Parse(`
<h1>Claim {{.Case.ClaimNumber}}</h1>
<p class="muted">{{.Case.DisplayTitle}} &middot; status {{.Case.Status}} &middot; version {{.Case.Version}} &middot; generated {{.GeneratedAt}}</p>

<table>
<tr><th>Policy</th><td>{{str .Case.PolicyNumber}}</td><th>Event date</th><td>{{date .Case.EventDate}}</td></tr>
<tr><th>Handler</th><td>{{str .Case.HandlerID}}</td><th>Reported</th><td>{{date .Case.ReportedAt}}</td></tr>
<tr><th>Claimed</th><td class="amount">{{money .Case.ClaimedAmount .Case.Currency}}</td><th>Reserve</th><td class="amount">{{money .Case.ReserveAmount .Case.Currency}}</td></tr>
</table>
{{if .Case.Description}}<p>{{.Case.Description}}</p>{{end}}

{{if .Case.Participants}}<h2>Participants</h2>
<table><tr><th>Role</th><th>Name</th><th>Vehicle</th><th>Drivers</th></tr>
{{range .Case.Participants}}<tr><td>{{.Role}}</td><td>{{.Name}}</td><td>{{str .VehiclePlate}}</td>
<td>{{range .Drivers}}{{.Name}} ({{.Role}})<br>{{end}}</td></tr>{{end}}
</table>{{end}}

{{if .Case.Damages}}<h2>Damages</h2>
<table><tr><th>Kind</th><th>Description</th><th class="amount">Estimated</th></tr>
{{range .Case.Damages}}<tr><td>{{.Kind}}</td><td>{{.Description}}</td><td class="amount">{{money .EstimatedAmount $.Case.Currency}}</td></tr>{{end}}
</table>{{end}}

{{if .Case.Decisions}}<h2>Decisions</h2>
<table><tr><th>Date</th><th>Outcome</th><th class="amount">Amount</th><th>Justification</th></tr>
{{range .Case.Decisions}}<tr><td>{{date .DecidedAt}}</td><td>{{.Outcome}}</td><td class="amount">{{money .Amount $.Case.Currency}}</td><td>{{.Justification}}</td></tr>{{end}}
</table>{{end}}

{{if .Case.Appeals}}<h2>Appeals</h2>
<table><tr><th>Filed</th><th>Reason</th><th>Resolution</th></tr>
{{range .Case.Appeals}}<tr><td>{{date .FiledAt}}</td><td>{{.Reason}}</td><td>{{str .Resolution}}</td></tr>{{end}}
</table>{{end}}

{{if .Case.Settlements}}<h2>Settlements</h2>
<table><tr><th>Date</th><th>Payee</th><th class="amount">Amount</th></tr>
{{range .Case.Settlements}}<tr><td>{{date .SettledAt}}</td><td>{{.Payee}}</td><td class="amount">{{money .Amount $.Case.Currency}}</td></tr>{{end}}
</table>{{end}}

{{if .Case.Recourses}}<h2>Recourses</h2>
<table><tr><th>Against</th><th class="amount">Amount</th><th class="amount">Recovered</th><th>Status</th></tr>
{{range .Case.Recourses}}<tr><td>{{.AgainstParty}}</td><td class="amount">{{money .Amount $.Case.Currency}}</td><td class="amount">{{money .RecoveredAmount $.Case.Currency}}</td><td>{{.Status}}</td></tr>{{end}}
</table>{{end}}

{{if .Case.Documents}}<h2>Documents</h2>
<table><tr><th>File</th><th>Category</th><th class="amount">Size</th></tr>
{{range .Case.Documents}}<tr><td>{{.FileOriginalName}}</td><td>{{.Category}}</td><td class="amount">{{.FileSize}}</td></tr>{{end}}
</table>{{end}}
`))

// RenderCaseReportHTML renders the full case graph as a printable page
func RenderCaseReportHTML(c *models.Case) (string, error) {
	var buf bytes.Buffer
	err := caseReportTemplate.Execute(&buf, map[string]interface{}{
		"Case":        c,
		"GeneratedAt": time.Now().Format("2006-01-02 15:04"),
	})
	if err != nil {
		return "", fmt.Errorf("failed to render case report: %w", err)
	}
	return WrapHTMLForPDF(buf.String()), nil
}

// GenerateCaseReport renders the case to PDF and stores it as a report document
func GenerateCaseReport(ctx context.Context, db *gorm.DB, storage StorageProvider, caseID string) (*models.CaseDocument, error) {
	caseRecord, err := loadCase(db.WithContext(ctx), caseID)
	if err != nil {
		return nil, err
	}

	html, err := RenderCaseReportHTML(caseRecord)
	if err != nil {
		return nil, err
	}
	pdf, err := renderPDF(ctx, html, DefaultPDFOptions())
	if err != nil {
		return nil, err
	}

	description := fmt.Sprintf("Case report at version %d", caseRecord.Version)
	doc, err := createDocumentWithBytes(ctx, db, storage, NewDocumentInput{
		CaseID:      caseID,
		FileName:    fmt.Sprintf("%s-report-%s.pdf", caseRecord.ClaimNumber, time.Now().Format("20060102-150405")),
		ContentType: "application/pdf",
		Category:    models.DocumentCategoryReport,
		Description: &description,
		Data:        pdf,
		UploadedBy:  ptrIfNotEmpty(AuditContextFrom(ctx).ActorID),
	})
	if err != nil {
		return nil, err
	}

	LogAuditEvent(db, AuditContextFrom(ctx), AuditEvent{
		Action:       models.AuditActionCreate,
		ResourceType: "CaseDocument",
		ResourceID:   doc.ID,
		ResourceName: doc.FileOriginalName,
		CaseID:       caseID,
		Description:  description,
	})
	return doc, nil
}
