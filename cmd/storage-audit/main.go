package main

import (
	"context"
	"errors"
	"flag"
	"log"
	"os"

	"claims_app_go/config"
	"claims_app_go/db"
	"claims_app_go/models"
	"claims_app_go/services"
)

// storage-audit walks every case document and message attachment and reports
// rows whose bytes are missing or whose checksum no longer matches.
func main() {
	verify := flag.Bool("verify", false, "read every object and compare its checksum")
	flag.Parse()

	cfg := config.Load()

	if err := db.Initialize(db.Options{
		Path:        cfg.DBPath,
		TursoURL:    cfg.TursoDatabaseURL,
		TursoToken:  cfg.TursoAuthToken,
		Environment: cfg.Environment,
	}); err != nil {
		log.Fatalf("Failed to initialize database: %v", err)
	}
	defer db.Close()

	services.InitializeStorage(cfg)
	ctx := context.Background()

	log.Println("Starting storage audit...")

	var documents []models.CaseDocument
	if err := db.DB.Find(&documents).Error; err != nil {
		log.Fatalf("Failed to fetch documents: %v", err)
	}
	var attachments []models.Attachment
	if err := db.DB.Find(&attachments).Error; err != nil {
		log.Fatalf("Failed to fetch attachments: %v", err)
	}

	problems := 0
	for i, doc := range documents {
		if reason := auditObject(ctx, doc.StorageKey, doc.Checksum, *verify); reason != "" {
			problems++
			log.Printf("[%d/%d] Document %s (case %s, %s): %s", i+1, len(documents), doc.ID, doc.CaseID, doc.StorageKey, reason)
		}
	}
	for i, att := range attachments {
		if reason := auditObject(ctx, att.StorageKey, att.Checksum, *verify); reason != "" {
			problems++
			log.Printf("[%d/%d] Attachment %s (message %s, %s): %s", i+1, len(attachments), att.ID, att.MessageID, att.StorageKey, reason)
		}
	}

	log.Printf("Storage audit completed: %d documents, %d attachments, %d problems", len(documents), len(attachments), problems)
	if problems > 0 {
		os.Exit(1)
	}
}

// auditObject returns an empty string when the object is healthy
func auditObject(ctx context.Context, key, checksum string, verify bool) string {
	reader, _, err := services.Storage.Get(ctx, key)
	if err != nil {
		if errors.Is(err, services.ErrObjectNotFound) {
			return "bytes missing"
		}
		return "unreadable: " + err.Error()
	}
	reader.Close()

	if !verify || checksum == "" {
		return ""
	}
	data, err := services.ReadObject(ctx, services.Storage, key)
	if err != nil {
		return "unreadable: " + err.Error()
	}
	if services.Checksum(data) != checksum {
		return "checksum mismatch"
	}
	return ""
}
