package services

import (
	"context"
	"io"
	"testing"
	"time"

	"claims_app_go/models"

	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// setupServiceTestDB opens an isolated shared-memory database.
// A single connection serialises transactions the way a file database would.
func setupServiceTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	dbName := "mem_" + uuid.New().String()
	testDB, err := gorm.Open(sqlite.Open("file:"+dbName+"?mode=memory&cache=shared&_foreign_keys=on&_busy_timeout=5000"), &gorm.Config{
		Logger:         logger.Default.LogMode(logger.Silent),
		TranslateError: true,
	})
	require.NoError(t, err)

	sqlDB, err := testDB.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() {
		WaitForAuditWrites()
		sqlDB.Close()
	})

	require.NoError(t, testDB.AutoMigrate(models.All()...))
	return testDB
}

func newTestStorage(t *testing.T) *LocalStorage {
	t.Helper()
	return NewLocalStorage(t.TempDir())
}

func stringToPtr(s string) *string {
	return &s
}

func timePtr(t time.Time) *time.Time {
	return &t
}

func createTestCase(t *testing.T, db *gorm.DB, claimNumber string) *models.Case {
	t.Helper()
	c := &models.Case{
		ClaimNumber: claimNumber,
		EventDate:   timePtr(time.Date(2026, 3, 14, 0, 0, 0, 0, time.UTC)),
	}
	require.NoError(t, db.Create(c).Error)
	return c
}

// storedAttachment writes bytes to storage and creates a message with one attachment
func storedAttachment(t *testing.T, db *gorm.DB, storage StorageProvider, name string, data []byte) (*models.Message, *models.Attachment) {
	t.Helper()
	msg := &models.Message{
		Direction: models.MessageDirectionInbound,
		Status:    models.MessageStatusReceived,
		Subject:   "Claim correspondence",
	}
	require.NoError(t, db.Create(msg).Error)

	key := GenerateAttachmentKey(msg.ID, name)
	_, err := StoreBytes(context.Background(), storage, key, ContentTypeForName(name), data)
	require.NoError(t, err)

	att := &models.Attachment{
		MessageID:  msg.ID,
		FileName:   name,
		MimeType:   ContentTypeForName(name),
		FileSize:   int64(len(data)),
		StorageKey: key,
		Checksum:   Checksum(data),
	}
	require.NoError(t, db.Create(att).Error)
	return msg, att
}

func countRows(t *testing.T, db *gorm.DB, model interface{}, where string, args ...interface{}) int64 {
	t.Helper()
	var n int64
	q := db.Model(model)
	if where != "" {
		q = q.Where(where, args...)
	}
	require.NoError(t, q.Count(&n).Error)
	return n
}

// MockStorageProvider is a mock implementation of StorageProvider
type MockStorageProvider struct {
	mock.Mock
}

func (m *MockStorageProvider) UploadReader(ctx context.Context, reader io.Reader, key string, contentType string, size int64) (*StorageResult, error) {
	args := m.Called(ctx, reader, key, contentType, size)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*StorageResult), args.Error(1)
}

func (m *MockStorageProvider) Delete(ctx context.Context, key string) error {
	args := m.Called(ctx, key)
	return args.Error(0)
}

func (m *MockStorageProvider) Get(ctx context.Context, key string) (io.ReadCloser, string, error) {
	args := m.Called(ctx, key)
	if args.Get(0) == nil {
		return nil, args.String(1), args.Error(2)
	}
	return args.Get(0).(io.ReadCloser), args.String(1), args.Error(2)
}

// failingDeleteStorage wraps a real store and fails every Delete
type failingDeleteStorage struct {
	StorageProvider
	err error
}

func (f *failingDeleteStorage) Delete(ctx context.Context, key string) error {
	return f.err
}
