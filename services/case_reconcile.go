package services

import (
	"fmt"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// ownedRow is implemented by every child collection model (pointer receivers)
type ownedRow[T any] interface {
	*T
	GetID() string
	SetOwnerID(id string)
	SetPosition(i int)
}

type reconcileOptions struct {
	collection  string // name used in validation errors, e.g. "participants[0].drivers"
	ownerColumn string
	ownerID     string
	// updateColumns restricts in-place updates; nil updates every column
	updateColumns []string
	// forbidCreate rejects rows without an id
	forbidCreate bool
	// beforeRemove runs inside the transaction before rows are deleted
	beforeRemove func(tx *gorm.DB, ids []string) error
}

// reconcileCollection makes the stored children of one owner match rows:
// rows with a known id are updated in place, rows without an id are inserted
// and stored rows missing from the input are deleted. Must run inside a transaction.
// Returns the ids that were removed.
func reconcileCollection[T any, P ownedRow[T]](tx *gorm.DB, rows []T, opts reconcileOptions) ([]string, error) {
	var existing []string
	if err := tx.Model(P(new(T))).Where(opts.ownerColumn+" = ?", opts.ownerID).Pluck("id", &existing).Error; err != nil {
		return nil, fmt.Errorf("failed to load %s: %w", opts.collection, err)
	}
	known := make(map[string]bool, len(existing))
	for _, id := range existing {
		known[id] = true
	}

	kept := make(map[string]bool, len(rows))
	for i := range rows {
		id := P(&rows[i]).GetID()
		field := fmt.Sprintf("%s[%d].id", opts.collection, i)
		switch {
		case id == "" && opts.forbidCreate:
			return nil, invalid(field, "is required")
		case id == "":
			continue
		case !known[id]:
			return nil, invalid(field, "does not belong to this record")
		case kept[id]:
			return nil, invalid(field, "is duplicated")
		}
		kept[id] = true
	}

	var removed []string
	for _, id := range existing {
		if !kept[id] {
			removed = append(removed, id)
		}
	}
	if len(removed) > 0 {
		if opts.beforeRemove != nil {
			if err := opts.beforeRemove(tx, removed); err != nil {
				return nil, err
			}
		}
		if err := tx.Where("id IN ?", removed).Delete(P(new(T))).Error; err != nil {
			return nil, fmt.Errorf("failed to delete %s: %w", opts.collection, err)
		}
	}

	for i := range rows {
		row := P(&rows[i])
		row.SetOwnerID(opts.ownerID)
		row.SetPosition(i)

		if row.GetID() == "" {
			if err := tx.Omit(clause.Associations).Create(row).Error; err != nil {
				return nil, fmt.Errorf("failed to insert %s: %w", opts.collection, err)
			}
			continue
		}

		q := tx.Model(row).Where(opts.ownerColumn+" = ?", opts.ownerID)
		if opts.updateColumns != nil {
			q = q.Select(append(append([]string{}, opts.updateColumns...), "sort_order", "updated_at"))
		} else {
			q = q.Select("*").Omit("id", "created_at", clause.Associations)
		}
		if err := q.Updates(row).Error; err != nil {
			return nil, fmt.Errorf("failed to update %s: %w", opts.collection, err)
		}
	}

	return removed, nil
}
