package services

import (
	"context"
	"fmt"

	"golang.org/x/sync/errgroup"
	"gorm.io/gorm"
)

const cleanupConcurrency = 4

// deleteObjects removes stored bytes after the owning rows are gone.
// Failures are reported through LogCleanupFailure and never retried.
func deleteObjects(ctx context.Context, db *gorm.DB, storage StorageProvider, source, caseID string, keys []string) {
	if storage == nil || len(keys) == 0 {
		return
	}
	ctx = context.WithoutCancel(ctx)

	var g errgroup.Group
	g.SetLimit(cleanupConcurrency)
	for _, key := range keys {
		g.Go(func() error {
			if err := storage.Delete(ctx, key); err != nil {
				LogCleanupFailure(db, ctx, source, "StorageObject", key, caseID,
					fmt.Sprintf("failed to delete stored bytes %s: %v", key, err))
			}
			return nil
		})
	}
	_ = g.Wait()
}
