package handlers

import (
	"net/http"
	"testing"

	"claims_app_go/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCaseNotificationHandlers(t *testing.T) {
	database := setupTestDB(t)
	caseRecord := createCase(t, database, "NOTE-1")
	other := createCase(t, database, "NOTE-2")

	for _, title := range []string{"Test 1", "Test 2", "Test 3"} {
		require.NoError(t, database.Create(&models.Notification{
			CaseID: stringToPtr(caseRecord.ID),
			Type:   models.NotificationTypeDocumentAdded,
			Title:  title,
		}).Error)
	}
	foreign := &models.Notification{CaseID: stringToPtr(other.ID), Type: models.NotificationTypeDocumentAdded, Title: "Other"}
	require.NoError(t, database.Create(foreign).Error)

	list := func() ([]models.Notification, int64) {
		c, rec := jsonContext(t, http.MethodGet, "/", nil, map[string]string{"id": caseRecord.ID})
		require.NoError(t, ListCaseNotificationsHandler(c))
		var payload struct {
			Notifications []models.Notification `json:"notifications"`
			Unread        int64                 `json:"unread"`
		}
		decodeJSON(t, rec, &payload)
		return payload.Notifications, payload.Unread
	}

	notifications, unread := list()
	require.Len(t, notifications, 3)
	assert.Equal(t, int64(3), unread)

	t.Run("Mark one", func(t *testing.T) {
		c, rec := jsonContext(t, http.MethodPost, "/", nil, map[string]string{"id": caseRecord.ID, "notificationId": notifications[0].ID})
		require.NoError(t, MarkNotificationReadHandler(c))
		assert.Equal(t, http.StatusNoContent, rec.Code)

		_, unread := list()
		assert.Equal(t, int64(2), unread)
	})

	t.Run("Another case's notification", func(t *testing.T) {
		c, _ := jsonContext(t, http.MethodPost, "/", nil, map[string]string{"id": caseRecord.ID, "notificationId": foreign.ID})
		assertHTTPError(t, MarkNotificationReadHandler(c), http.StatusNotFound)
	})

	t.Run("Mark all", func(t *testing.T) {
		c, rec := jsonContext(t, http.MethodPost, "/", nil, map[string]string{"id": caseRecord.ID})
		require.NoError(t, MarkAllNotificationsReadHandler(c))
		assert.Equal(t, http.StatusNoContent, rec.Code)

		remaining, unread := list()
		assert.Empty(t, remaining)
		assert.Equal(t, int64(0), unread)

		var stillUnread models.Notification
		require.NoError(t, database.First(&stillUnread, "id = ?", foreign.ID).Error)
		assert.Nil(t, stillUnread.ReadAt)
	})
}
