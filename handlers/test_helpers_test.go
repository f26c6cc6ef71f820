package handlers

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http/httptest"
	"testing"

	"claims_app_go/config"
	"claims_app_go/db"
	"claims_app_go/models"
	"claims_app_go/services"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func setupTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	// Use unique shared memory name to isolate tests while allowing shared cache for async tasks
	dbName := "mem_" + uuid.New().String()
	testDB, err := gorm.Open(sqlite.Open("file:"+dbName+"?mode=memory&cache=shared&_foreign_keys=on&_busy_timeout=5000"), &gorm.Config{
		Logger:         logger.Default.LogMode(logger.Silent),
		TranslateError: true,
	})
	require.NoError(t, err)

	sqlDB, err := testDB.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)

	require.NoError(t, testDB.AutoMigrate(models.All()...))

	// Set globals, restored when the test ends
	previousDB, previousStorage := db.DB, services.Storage
	db.DB = testDB
	services.Storage = services.NewLocalStorage(t.TempDir())
	t.Cleanup(func() {
		services.WaitForAuditWrites()
		db.DB, services.Storage = previousDB, previousStorage
		sqlDB.Close()
	})

	return testDB
}

func setupEcho(method, path string, body io.Reader) (*echo.Echo, echo.Context, *httptest.ResponseRecorder) {
	e := echo.New()
	req := httptest.NewRequest(method, path, body)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	// Add config to context
	c.Set("config", &config.Config{
		Environment:       "test",
		ClaimNumberPrefix: "TST",
		MaxUploadMB:       1,
		EmailTestMode:     true,
	})

	return e, c, rec
}

// jsonContext builds a context with a JSON body and path params
func jsonContext(t *testing.T, method, path string, body interface{}, params map[string]string) (echo.Context, *httptest.ResponseRecorder) {
	t.Helper()
	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	}
	_, c, rec := setupEcho(method, path, reader)
	if body != nil {
		c.Request().Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	}
	for name, value := range params {
		c.SetParamNames(append(c.ParamNames(), name)...)
		c.SetParamValues(append(c.ParamValues(), value)...)
	}
	return c, rec
}

func assertHTTPError(t *testing.T, err error, code int) *echo.HTTPError {
	t.Helper()
	require.Error(t, err)
	he, ok := err.(*echo.HTTPError)
	require.True(t, ok, "expected *echo.HTTPError, got %T: %v", err, err)
	assert.Equal(t, code, he.Code)
	return he
}

func decodeJSON(t *testing.T, rec *httptest.ResponseRecorder, dst interface{}) {
	t.Helper()
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), dst))
}

func createCase(t *testing.T, testDB *gorm.DB, claimNumber string) *models.Case {
	t.Helper()
	svc := services.NewCaseService(testDB, services.Storage)
	c, err := svc.CreateCase(t.Context(), services.CaseSeed{ClaimNumber: claimNumber})
	require.NoError(t, err)
	return c
}

func createInboundMessage(t *testing.T, testDB *gorm.DB, subject string, attachment []byte) *models.Message {
	t.Helper()
	in := services.CreateMessageInput{Direction: models.MessageDirectionInbound, Subject: subject}
	if attachment != nil {
		in.Attachments = []services.AttachmentInput{{FileName: "scan.pdf", Data: attachment}}
	}
	msg, err := services.NewCorrespondenceService(testDB, services.Storage, nil).CreateMessage(t.Context(), in)
	require.NoError(t, err)
	return msg
}

func stringToPtr(s string) *string {
	return &s
}
