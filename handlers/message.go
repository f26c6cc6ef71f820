package handlers

import (
	"net/http"

	"claims_app_go/models"
	"claims_app_go/services"

	"github.com/labstack/echo/v4"
)

// CreateMessageHandler stores a message with its attachments
func CreateMessageHandler(c echo.Context) error {
	var input services.CreateMessageInput
	if err := bindJSON(c, &input); err != nil {
		return err
	}

	maxSize := getConfig(c).MaxUploadBytes()
	for _, a := range input.Attachments {
		if int64(len(a.Data)) > maxSize {
			return echo.NewHTTPError(http.StatusRequestEntityTooLarge, "Attachment "+a.FileName+" is too large")
		}
	}

	message, err := correspondenceService(c).CreateMessage(ctxOf(c), input)
	if err != nil {
		return respondError(err)
	}
	return c.JSON(http.StatusCreated, message)
}

// ListMessagesHandler lists one folder, inbox by default
func ListMessagesHandler(c echo.Context) error {
	folder := models.FolderInbox
	if raw := c.QueryParam("folder"); raw != "" {
		parsed, err := models.ParseFolder(raw)
		if err != nil {
			return echo.NewHTTPError(http.StatusBadRequest, err.Error())
		}
		folder = parsed
	}

	messages, err := correspondenceService(c).ListFolder(ctxOf(c), folder)
	if err != nil {
		return respondError(err)
	}
	return c.JSON(http.StatusOK, messages)
}

// FolderCountsHandler returns the size of every folder from a single load
func FolderCountsHandler(c echo.Context) error {
	folders, err := correspondenceService(c).ListFolders(ctxOf(c))
	if err != nil {
		return respondError(err)
	}

	counts := make(map[models.Folder]int, len(folders))
	for f, messages := range folders {
		counts[f] = len(messages)
	}
	return c.JSON(http.StatusOK, counts)
}

// GetMessageHandler returns a message with attachments and assignments
func GetMessageHandler(c echo.Context) error {
	message, err := correspondenceService(c).GetMessage(ctxOf(c), c.Param("id"))
	if err != nil {
		return respondError(err)
	}
	return c.JSON(http.StatusOK, map[string]interface{}{
		"message": message,
		"folders": models.Classify(message),
	})
}

type flagRequest struct {
	Flag  string `json:"flag"`
	Value bool   `json:"value"`
}

// UpdateMessageFlagsHandler sets or clears one flag
func UpdateMessageFlagsHandler(c echo.Context) error {
	var req flagRequest
	if err := bindJSON(c, &req); err != nil {
		return err
	}

	message, err := correspondenceService(c).UpdateFlags(ctxOf(c), c.Param("id"), req.Flag, req.Value)
	if err != nil {
		return respondError(err)
	}
	return c.JSON(http.StatusOK, message)
}

// UpdateMessageStatusHandler moves an outbound message between draft, sent and failed
func UpdateMessageStatusHandler(c echo.Context) error {
	var req statusRequest
	if err := bindJSON(c, &req); err != nil {
		return err
	}

	message, err := correspondenceService(c).UpdateMessageStatus(ctxOf(c), c.Param("id"), req.Status)
	if err != nil {
		return respondError(err)
	}
	return c.JSON(http.StatusOK, message)
}

// DeleteMessageHandler removes a message, its attachments and its assignments
func DeleteMessageHandler(c echo.Context) error {
	if err := correspondenceService(c).DeleteMessage(ctxOf(c), c.Param("id")); err != nil {
		return respondError(err)
	}
	return c.NoContent(http.StatusNoContent)
}

type assignRequest struct {
	CaseIDs []string `json:"case_ids"`
}

// AssignMessageHandler links a message to one or more cases
func AssignMessageHandler(c echo.Context) error {
	var req assignRequest
	if err := bindJSON(c, &req); err != nil {
		return err
	}

	svc := correspondenceService(c)
	added, err := svc.AssignToCase(ctxOf(c), c.Param("id"), req.CaseIDs)
	if err != nil {
		return respondError(err)
	}
	message, err := svc.GetMessage(ctxOf(c), c.Param("id"))
	if err != nil {
		return respondError(err)
	}
	return c.JSON(http.StatusOK, map[string]interface{}{
		"added":   added,
		"message": message,
	})
}

// UnassignMessageHandler removes one message-case link
func UnassignMessageHandler(c echo.Context) error {
	if err := correspondenceService(c).UnassignFromCase(ctxOf(c), c.Param("id"), c.Param("caseId")); err != nil {
		return respondError(err)
	}
	return c.NoContent(http.StatusNoContent)
}

// ListCaseMessagesHandler lists the correspondence assigned to a case
func ListCaseMessagesHandler(c echo.Context) error {
	messages, err := correspondenceService(c).ListCaseMessages(ctxOf(c), c.Param("id"))
	if err != nil {
		return respondError(err)
	}
	return c.JSON(http.StatusOK, messages)
}
