package models

import (
	"fmt"
	"sort"
	"strings"
)

// Folder is a listing bucket derived from a message's current fields.
// Membership is never stored and folders overlap freely.
type Folder string

const (
	FolderInbox      Folder = "inbox"
	FolderSent       Folder = "sent"
	FolderDrafts     Folder = "drafts"
	FolderImportant  Folder = "important"
	FolderUnassigned Folder = "unassigned"
)

// AllFolders lists every folder in display order
var AllFolders = []Folder{FolderInbox, FolderSent, FolderDrafts, FolderImportant, FolderUnassigned}

// Contains reports whether m belongs to the folder.
// Unassigned relies on m.Assignments being loaded.
func (f Folder) Contains(m *Message) bool {
	switch f {
	case FolderInbox:
		return m.Direction == MessageDirectionInbound
	case FolderSent:
		return m.Direction == MessageDirectionOutbound
	case FolderDrafts:
		return m.Status == MessageStatusDraft
	case FolderImportant:
		return m.IsImportant
	case FolderUnassigned:
		return len(m.Assignments) == 0
	}
	return false
}

// Classify returns every folder m currently belongs to
func Classify(m *Message) []Folder {
	var folders []Folder
	for _, f := range AllFolders {
		if f.Contains(m) {
			folders = append(folders, f)
		}
	}
	return folders
}

// ParseFolder converts a query value to a Folder
func ParseFolder(s string) (Folder, error) {
	f := Folder(strings.ToLower(strings.TrimSpace(s)))
	for _, known := range AllFolders {
		if f == known {
			return f, nil
		}
	}
	return "", fmt.Errorf("unknown folder %q", s)
}

// SortForListing orders messages newest first, ties broken by id
func SortForListing(messages []Message) {
	sort.SliceStable(messages, func(i, j int) bool {
		if !messages[i].OccurredAt.Equal(messages[j].OccurredAt) {
			return messages[i].OccurredAt.After(messages[j].OccurredAt)
		}
		return messages[i].ID < messages[j].ID
	})
}

// FilterFolder returns the messages of one folder in listing order.
// The input slice is not modified.
func FilterFolder(messages []Message, f Folder) []Message {
	out := make([]Message, 0)
	for i := range messages {
		if f.Contains(&messages[i]) {
			out = append(out, messages[i])
		}
	}
	SortForListing(out)
	return out
}
