package handlers

import (
	"fmt"
	"net/http"
	"strconv"
	"time"

	"claims_app_go/db"
	"claims_app_go/models"
	"claims_app_go/services"

	"github.com/labstack/echo/v4"
)

// CreateCaseHandler creates a case from a minimal seed
func CreateCaseHandler(c echo.Context) error {
	var seed services.CaseSeed
	if err := bindJSON(c, &seed); err != nil {
		return err
	}

	caseRecord, err := caseService(c).CreateCase(ctxOf(c), seed)
	if err != nil {
		return respondError(err)
	}
	return c.JSON(http.StatusCreated, caseRecord)
}

func caseFilterFromQuery(c echo.Context) services.CaseFilter {
	filter := services.CaseFilter{
		Status:    c.QueryParam("status"),
		HandlerID: c.QueryParam("handler_id"),
		Search:    c.QueryParam("q"),
	}
	if limit, err := strconv.Atoi(c.QueryParam("limit")); err == nil && limit > 0 {
		filter.Limit = limit
	}
	if offset, err := strconv.Atoi(c.QueryParam("offset")); err == nil && offset > 0 {
		filter.Offset = offset
	}
	return filter
}

// ListCasesHandler returns case summaries
func ListCasesHandler(c echo.Context) error {
	summaries, err := caseService(c).ListCaseSummaries(ctxOf(c), caseFilterFromQuery(c))
	if err != nil {
		return respondError(err)
	}
	return c.JSON(http.StatusOK, summaries)
}

// ExportCasesHandler streams the filtered summaries as an XLSX workbook
func ExportCasesHandler(c echo.Context) error {
	filter := caseFilterFromQuery(c)
	filter.Limit = 0
	filter.Offset = 0

	summaries, err := caseService(c).ListCaseSummaries(ctxOf(c), filter)
	if err != nil {
		return respondError(err)
	}

	buf, err := services.ExportCaseSummariesXLSX(summaries)
	if err != nil {
		return respondError(err)
	}

	filename := fmt.Sprintf("cases-%s.xlsx", time.Now().Format("20060102"))
	c.Response().Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	return c.Blob(http.StatusOK, "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet", buf.Bytes())
}

// ImportCasesHandler creates cases from an uploaded XLSX workbook
func ImportCasesHandler(c echo.Context) error {
	fileHeader, err := c.FormFile("file")
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "File is required")
	}
	file, err := fileHeader.Open()
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Failed to open file")
	}
	defer file.Close()

	result, err := caseService(c).ImportCasesXLSX(ctxOf(c), file)
	if err != nil {
		return respondError(err)
	}
	return c.JSON(http.StatusOK, result)
}

// GetCaseHandler returns the full case graph
func GetCaseHandler(c echo.Context) error {
	caseRecord, err := caseService(c).GetCase(ctxOf(c), c.Param("id"))
	if err != nil {
		return respondError(err)
	}
	return c.JSON(http.StatusOK, caseRecord)
}

// UpsertCaseHandler replaces a case graph.
// A version in the body or an If-Match header enables the stale-write check.
func UpsertCaseHandler(c echo.Context) error {
	var graph models.Case
	if err := bindJSON(c, &graph); err != nil {
		return err
	}
	if ifMatch := c.Request().Header.Get("If-Match"); ifMatch != "" && graph.Version == 0 {
		if v, err := strconv.Atoi(ifMatch); err == nil {
			graph.Version = v
		}
	}

	caseRecord, err := caseService(c).UpsertCase(ctxOf(c), c.Param("id"), &graph)
	if err != nil {
		return respondError(err)
	}
	return c.JSON(http.StatusOK, caseRecord)
}

type statusRequest struct {
	Status string `json:"status"`
}

// UpdateCaseStatusHandler writes a free-form case status
func UpdateCaseStatusHandler(c echo.Context) error {
	var req statusRequest
	if err := bindJSON(c, &req); err != nil {
		return err
	}

	caseRecord, err := caseService(c).UpdateCaseStatus(ctxOf(c), c.Param("id"), req.Status)
	if err != nil {
		return respondError(err)
	}
	return c.JSON(http.StatusOK, caseRecord)
}

// DeleteCaseHandler removes a case and everything it owns
func DeleteCaseHandler(c echo.Context) error {
	if err := caseService(c).DeleteCase(ctxOf(c), c.Param("id")); err != nil {
		return respondError(err)
	}
	return c.NoContent(http.StatusNoContent)
}

// CaseHistoryHandler returns paginated audit entries recorded against a case
func CaseHistoryHandler(c echo.Context) error {
	caseID := c.Param("id")
	if _, err := caseService(c).GetCase(ctxOf(c), caseID); err != nil {
		return respondError(err)
	}

	page, _ := strconv.Atoi(c.QueryParam("page"))
	pageSize, _ := strconv.Atoi(c.QueryParam("page_size"))
	filters := services.AuditLogFilters{
		ActorID:      c.QueryParam("actor_id"),
		ResourceType: c.QueryParam("resource_type"),
		Action:       c.QueryParam("action"),
	}
	if from, err := time.Parse("2006-01-02", c.QueryParam("from")); err == nil {
		filters.DateFrom = from
	}
	if to, err := time.Parse("2006-01-02", c.QueryParam("to")); err == nil {
		filters.DateTo = to.Add(24*time.Hour - time.Nanosecond)
	}

	logs, total, err := services.GetCaseAuditLogs(db.DB.WithContext(ctxOf(c)), caseID, filters, page, pageSize)
	if err != nil {
		return respondError(err)
	}
	entries := make([]historyEntry, len(logs))
	for i := range logs {
		entries[i] = historyEntry{AuditLog: logs[i], Changes: logs[i].Changes()}
	}
	return c.JSON(http.StatusOK, map[string]interface{}{
		"entries": entries,
		"total":   total,
	})
}

// historyEntry is an audit row with its field-level diff expanded
type historyEntry struct {
	models.AuditLog
	Changes []models.AuditChange `json:"changes,omitempty"`
}

// GenerateCaseReportHandler renders the case to PDF and stores it as a document
func GenerateCaseReportHandler(c echo.Context) error {
	doc, err := services.GenerateCaseReport(ctxOf(c), db.DB, services.Storage, c.Param("id"))
	if err != nil {
		return respondError(err)
	}
	return c.JSON(http.StatusCreated, doc)
}
