package handlers

import (
	"fmt"
	"net/http"

	"claims_app_go/services"

	"github.com/labstack/echo/v4"
)

// ListCaseDocumentsHandler lists the documents of a case
func ListCaseDocumentsHandler(c echo.Context) error {
	documents, err := documentService().GetCaseDocuments(ctxOf(c), c.Param("id"))
	if err != nil {
		return respondError(err)
	}
	return c.JSON(http.StatusOK, documents)
}

// UploadCaseDocumentHandler stores a multipart file as a case document
func UploadCaseDocumentHandler(c echo.Context) error {
	fileHeader, err := c.FormFile("file")
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "File is required")
	}

	upload, err := services.ReadUpload(fileHeader, getConfig(c).MaxUploadBytes())
	if err != nil {
		return respondError(err)
	}

	var description *string
	if d := c.FormValue("description"); d != "" {
		description = &d
	}
	actor := services.AuditContextFrom(ctxOf(c))

	var uploadedBy *string
	if actor.ActorID != "" {
		uploadedBy = &actor.ActorID
	}

	document, err := documentService().UploadCaseDocument(ctxOf(c), services.NewDocumentInput{
		CaseID:      c.Param("id"),
		FileName:    upload.FileName,
		ContentType: upload.ContentType,
		Category:    c.FormValue("category"),
		Description: description,
		Data:        upload.Data,
		UploadedBy:  uploadedBy,
	})
	if err != nil {
		return respondError(err)
	}
	return c.JSON(http.StatusCreated, document)
}

// DownloadCaseDocumentHandler streams a document's bytes
func DownloadCaseDocumentHandler(c echo.Context) error {
	document, data, err := documentService().OpenCaseDocument(ctxOf(c), c.Param("id"), c.Param("docId"))
	if err != nil {
		return respondError(err)
	}

	c.Response().Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", document.FileOriginalName))
	return c.Blob(http.StatusOK, document.MimeType, data)
}

// DeleteCaseDocumentHandler removes a document and its bytes
func DeleteCaseDocumentHandler(c echo.Context) error {
	if err := documentService().DeleteCaseDocument(ctxOf(c), c.Param("id"), c.Param("docId")); err != nil {
		return respondError(err)
	}
	return c.NoContent(http.StatusNoContent)
}
