package services

import (
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"path/filepath"
	"strings"
)

// DefaultMaxUploadSize applies when no limit is configured
const DefaultMaxUploadSize = 25 * 1024 * 1024 // 25MB

// AllowedUploadExtensions lists the file types accepted for case documents and attachments
var AllowedUploadExtensions = map[string]bool{
	".pdf":  true,
	".jpg":  true,
	".jpeg": true,
	".png":  true,
	".gif":  true,
	".webp": true,
	".txt":  true,
	".csv":  true,
	".doc":  true,
	".docx": true,
	".xls":  true,
	".xlsx": true,
	".odt":  true,
	".eml":  true,
	".msg":  true,
	".zip":  true,
}

// UploadedFile is a fully read upload, ready to be stored
type UploadedFile struct {
	FileName    string
	ContentType string
	Data        []byte
}

// ValidateUpload checks size and extension of an uploaded file
func ValidateUpload(fileHeader *multipart.FileHeader, maxSize int64) error {
	if maxSize <= 0 {
		maxSize = DefaultMaxUploadSize
	}
	if fileHeader.Size > maxSize {
		return invalid("file", fmt.Sprintf("exceeds maximum allowed size of %dMB", maxSize/(1024*1024)))
	}
	if fileHeader.Size == 0 {
		return invalid("file", "is empty")
	}

	name := SanitizeFileName(fileHeader.Filename)
	if name == "" {
		return invalid("file", "has no name")
	}
	ext := strings.ToLower(filepath.Ext(name))
	if !AllowedUploadExtensions[ext] {
		return invalid("file", fmt.Sprintf("type %q is not allowed", ext))
	}
	return nil
}

// ReadUpload validates and reads an uploaded file into memory
func ReadUpload(fileHeader *multipart.FileHeader, maxSize int64) (*UploadedFile, error) {
	if err := ValidateUpload(fileHeader, maxSize); err != nil {
		return nil, err
	}

	file, err := fileHeader.Open()
	if err != nil {
		return nil, fmt.Errorf("failed to open uploaded file: %w", err)
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		return nil, fmt.Errorf("failed to read uploaded file: %w", err)
	}

	name := SanitizeFileName(fileHeader.Filename)
	return &UploadedFile{
		FileName:    name,
		ContentType: DetectContentType(name, data),
		Data:        data,
	}, nil
}

// DetectContentType prefers the extension and falls back to sniffing the first bytes
func DetectContentType(name string, data []byte) string {
	if ct := ContentTypeForName(name); ct != "application/octet-stream" {
		return ct
	}
	return http.DetectContentType(data)
}

// SanitizeFileName strips any directory part and control characters from a client supplied name
func SanitizeFileName(name string) string {
	name = strings.ReplaceAll(name, "\\", "/")
	name = filepath.Base(name)
	if name == "." || name == "/" {
		return ""
	}
	name = strings.Map(func(r rune) rune {
		if r < 0x20 || r == 0x7f {
			return -1
		}
		return r
	}, name)
	return strings.TrimSpace(name)
}
