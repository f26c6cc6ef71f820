package services

import (
	"bytes"
	"context"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"log"
	"path/filepath"
	"strings"
	"time"

	"claims_app_go/config"

	"github.com/google/uuid"
	"golang.org/x/crypto/blake2b"
)

// ErrObjectNotFound is returned by StorageProvider.Get when the key holds no bytes
var ErrObjectNotFound = errors.New("object not found")

// StorageProvider is the byte store behind case documents and message attachments.
// Keys are never reused, so an object is written once and later deleted.
type StorageProvider interface {
	UploadReader(ctx context.Context, reader io.Reader, key string, contentType string, size int64) (*StorageResult, error)
	Get(ctx context.Context, key string) (io.ReadCloser, string, error) // reader, content type
	Delete(ctx context.Context, key string) error                        // absent keys are not an error
}

// StorageResult describes a stored object
type StorageResult struct {
	Key      string
	FileName string
	FileSize int64
	MimeType string
}

// Storage is the process-wide byte store used by the handlers
var Storage StorageProvider

// InitializeStorage picks R2 when its credentials are complete and the bucket
// answers, local disk otherwise
func InitializeStorage(cfg *config.Config) {
	if !cfg.R2Configured() {
		Storage = NewLocalStorage(cfg.UploadDir)
		log.Printf("Storage connection established (Local filesystem - path: %s)", cfg.UploadDir)
		return
	}

	r2, err := NewR2Storage(cfg)
	if err == nil {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		err = r2.Ping(ctx)
		cancel()
	}
	if err != nil {
		log.Printf("[WARNING] R2 storage unavailable: %v. Falling back to local storage.", err)
		Storage = NewLocalStorage(cfg.UploadDir)
		return
	}

	Storage = r2
	log.Printf("Storage connection established (Cloudflare R2 - bucket: %s)", cfg.R2BucketName)
}

// ContentTypeForName maps the extensions claim files usually arrive with
func ContentTypeForName(name string) string {
	switch strings.ToLower(filepath.Ext(name)) {
	case ".pdf":
		return "application/pdf"
	case ".png":
		return "image/png"
	case ".jpg", ".jpeg":
		return "image/jpeg"
	case ".doc":
		return "application/msword"
	case ".docx":
		return "application/vnd.openxmlformats-officedocument.wordprocessingml.document"
	case ".xlsx":
		return "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
	case ".eml":
		return "message/rfc822"
	}
	return "application/octet-stream"
}

// StoreBytes writes data under key
func StoreBytes(ctx context.Context, storage StorageProvider, key, contentType string, data []byte) (*StorageResult, error) {
	if contentType == "" {
		contentType = "application/octet-stream"
	}
	return storage.UploadReader(ctx, bytes.NewReader(data), key, contentType, int64(len(data)))
}

// ReadObject reads a whole object into memory
func ReadObject(ctx context.Context, storage StorageProvider, key string) ([]byte, error) {
	reader, _, err := storage.Get(ctx, key)
	if err != nil {
		return nil, err
	}
	defer reader.Close()

	data, err := io.ReadAll(reader)
	if err != nil {
		return nil, fmt.Errorf("failed to read object %s: %w", key, err)
	}
	return data, nil
}

// Checksum returns the hex encoded BLAKE2b-256 digest of data
func Checksum(data []byte) string {
	sum := blake2b.Sum256(data)
	return hex.EncodeToString(sum[:])
}

// GenerateStorageKey returns a fresh key under prefix keeping the file extension
func GenerateStorageKey(prefix string, originalFilename string) string {
	ext := strings.ToLower(filepath.Ext(originalFilename))
	filename := fmt.Sprintf("%s_%d%s", uuid.New().String(), time.Now().Unix(), ext)
	return filepath.ToSlash(filepath.Join(prefix, filename))
}

func GenerateCaseDocumentKey(caseID, originalFilename string) string {
	return GenerateStorageKey("cases/"+caseID+"/documents", originalFilename)
}

func GenerateAttachmentKey(messageID, originalFilename string) string {
	return GenerateStorageKey("messages/"+messageID+"/attachments", originalFilename)
}
