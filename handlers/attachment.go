package handlers

import (
	"fmt"
	"net/http"

	"claims_app_go/services"

	"github.com/labstack/echo/v4"
)

// DownloadAttachmentHandler streams an attachment's bytes
func DownloadAttachmentHandler(c echo.Context) error {
	attachment, data, err := correspondenceService(c).OpenAttachment(ctxOf(c), c.Param("id"))
	if err != nil {
		return respondError(err)
	}

	contentType := attachment.MimeType
	if contentType == "" {
		contentType = "application/octet-stream"
	}
	c.Response().Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", attachment.FileName))
	return c.Blob(http.StatusOK, contentType, data)
}

type transferRequest struct {
	CaseID      string  `json:"case_id"`
	Category    string  `json:"category"`
	Description *string `json:"description"`
	Move        bool    `json:"move"`
}

// TransferAttachmentHandler copies or moves an attachment into a case's documents
func TransferAttachmentHandler(c echo.Context) error {
	var req transferRequest
	if err := bindJSON(c, &req); err != nil {
		return err
	}
	if req.CaseID == "" {
		return echo.NewHTTPError(http.StatusUnprocessableEntity, "case_id is required")
	}

	doc, err := transferService().TransferAttachment(ctxOf(c), services.TransferRequest{
		AttachmentID: c.Param("id"),
		CaseID:       req.CaseID,
		Category:     req.Category,
		Description:  req.Description,
		Move:         req.Move,
	})
	if err != nil {
		return respondError(err)
	}
	return c.JSON(http.StatusCreated, doc)
}
