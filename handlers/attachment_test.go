package handlers

import (
	"net/http"
	"testing"

	"claims_app_go/models"
	"claims_app_go/services"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDownloadAttachmentHandler(t *testing.T) {
	database := setupTestDB(t)
	message := createInboundMessage(t, database, "Scan", []byte("%PDF scan"))
	attachment := message.Attachments[0]

	c, rec := jsonContext(t, http.MethodGet, "/api/attachments/"+attachment.ID, nil, map[string]string{"id": attachment.ID})
	require.NoError(t, DownloadAttachmentHandler(c))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "%PDF scan", rec.Body.String())
	assert.Equal(t, "application/pdf", rec.Header().Get("Content-Type"))
	assert.Contains(t, rec.Header().Get("Content-Disposition"), "scan.pdf")

	c, _ = jsonContext(t, http.MethodGet, "/api/attachments/missing", nil, map[string]string{"id": "missing"})
	assertHTTPError(t, DownloadAttachmentHandler(c), http.StatusNotFound)
}

func TestTransferAttachmentHandler(t *testing.T) {
	database := setupTestDB(t)
	caseRecord := createCase(t, database, "TRH-1")

	t.Run("Copy", func(t *testing.T) {
		message := createInboundMessage(t, database, "Invoice", []byte("%PDF invoice"))
		attachment := message.Attachments[0]

		c, rec := jsonContext(t, http.MethodPost, "/api/attachments/"+attachment.ID+"/transfer",
			map[string]interface{}{"case_id": caseRecord.ID, "category": models.DocumentCategoryEvidence},
			map[string]string{"id": attachment.ID})
		require.NoError(t, TransferAttachmentHandler(c))
		assert.Equal(t, http.StatusCreated, rec.Code)

		var doc models.CaseDocument
		decodeJSON(t, rec, &doc)
		assert.Equal(t, caseRecord.ID, doc.CaseID)
		assert.Equal(t, models.DocumentCategoryEvidence, doc.Category)
		assert.Equal(t, attachment.Checksum, doc.Checksum)

		var count int64
		database.Model(&models.Attachment{}).Where("id = ?", attachment.ID).Count(&count)
		assert.Equal(t, int64(1), count)
	})

	t.Run("Move", func(t *testing.T) {
		message := createInboundMessage(t, database, "Photos", []byte("jpeg bytes"))
		attachment := message.Attachments[0]

		c, rec := jsonContext(t, http.MethodPost, "/api/attachments/"+attachment.ID+"/transfer",
			map[string]interface{}{"case_id": caseRecord.ID, "move": true},
			map[string]string{"id": attachment.ID})
		require.NoError(t, TransferAttachmentHandler(c))
		assert.Equal(t, http.StatusCreated, rec.Code)

		var count int64
		database.Model(&models.Attachment{}).Where("id = ?", attachment.ID).Count(&count)
		assert.Equal(t, int64(0), count)
	})

	t.Run("Missing case id", func(t *testing.T) {
		c, _ := jsonContext(t, http.MethodPost, "/api/attachments/x/transfer",
			map[string]interface{}{"move": true}, map[string]string{"id": "x"})
		assertHTTPError(t, TransferAttachmentHandler(c), http.StatusUnprocessableEntity)
	})

	t.Run("Unknown case", func(t *testing.T) {
		message := createInboundMessage(t, database, "Orphan", []byte("bytes"))
		attachment := message.Attachments[0]

		c, _ := jsonContext(t, http.MethodPost, "/api/attachments/"+attachment.ID+"/transfer",
			map[string]interface{}{"case_id": "missing"}, map[string]string{"id": attachment.ID})
		assertHTTPError(t, TransferAttachmentHandler(c), http.StatusNotFound)
	})

	t.Run("Checksum mismatch", func(t *testing.T) {
		message := createInboundMessage(t, database, "Tampered", []byte("original"))
		attachment := message.Attachments[0]

		var stored models.Attachment
		require.NoError(t, database.First(&stored, "id = ?", attachment.ID).Error)
		_, err := services.StoreBytes(t.Context(), services.Storage, stored.StorageKey, "application/pdf", []byte("changed"))
		require.NoError(t, err)

		c, _ := jsonContext(t, http.MethodPost, "/api/attachments/"+attachment.ID+"/transfer",
			map[string]interface{}{"case_id": caseRecord.ID, "move": true}, map[string]string{"id": attachment.ID})
		assertHTTPError(t, TransferAttachmentHandler(c), http.StatusBadGateway)
	})
}
