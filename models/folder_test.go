package models

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClassify(t *testing.T) {
	tests := []struct {
		name     string
		message  Message
		expected []Folder
	}{
		{
			name:     "new inbound",
			message:  Message{Direction: MessageDirectionInbound, Status: MessageStatusReceived},
			expected: []Folder{FolderInbox, FolderUnassigned},
		},
		{
			name: "assigned important inbound",
			message: Message{
				Direction:   MessageDirectionInbound,
				Status:      MessageStatusReceived,
				IsImportant: true,
				Assignments: []MessageAssignment{{CaseID: "c1"}},
			},
			expected: []Folder{FolderInbox, FolderImportant},
		},
		{
			name:     "outbound draft",
			message:  Message{Direction: MessageDirectionOutbound, Status: MessageStatusDraft},
			expected: []Folder{FolderSent, FolderDrafts, FolderUnassigned},
		},
		{
			name: "sent and assigned",
			message: Message{
				Direction:   MessageDirectionOutbound,
				Status:      MessageStatusSent,
				Assignments: []MessageAssignment{{CaseID: "c1"}, {CaseID: "c2"}},
			},
			expected: []Folder{FolderSent},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, Classify(&tt.message))
		})
	}
}

func TestParseFolder(t *testing.T) {
	f, err := ParseFolder(" Inbox ")
	require.NoError(t, err)
	assert.Equal(t, FolderInbox, f)

	for _, known := range AllFolders {
		parsed, err := ParseFolder(string(known))
		require.NoError(t, err)
		assert.Equal(t, known, parsed)
	}

	_, err = ParseFolder("spam")
	assert.Error(t, err)
}

func TestFilterFolder(t *testing.T) {
	base := time.Date(2026, 5, 1, 12, 0, 0, 0, time.UTC)
	messages := []Message{
		{ID: "b", Direction: MessageDirectionInbound, OccurredAt: base},
		{ID: "old", Direction: MessageDirectionInbound, OccurredAt: base.Add(-time.Hour)},
		{ID: "out", Direction: MessageDirectionOutbound, Status: MessageStatusSent, OccurredAt: base.Add(time.Hour)},
		{ID: "a", Direction: MessageDirectionInbound, OccurredAt: base},
	}

	inbox := FilterFolder(messages, FolderInbox)
	ids := make([]string, len(inbox))
	for i, m := range inbox {
		ids[i] = m.ID
	}
	// Newest first, equal timestamps ordered by id
	assert.Equal(t, []string{"a", "b", "old"}, ids)

	// Input order is preserved
	assert.Equal(t, "b", messages[0].ID)

	assert.Empty(t, FilterFolder(messages, FolderDrafts))
	assert.NotNil(t, FilterFolder(nil, FolderInbox))
}

func TestMessageStates(t *testing.T) {
	assert.True(t, IsValidMessageState(MessageDirectionInbound, MessageStatusReceived))
	assert.False(t, IsValidMessageState(MessageDirectionInbound, MessageStatusDraft))
	assert.True(t, IsValidMessageState(MessageDirectionOutbound, MessageStatusFailed))
	assert.False(t, IsValidMessageState(MessageDirectionOutbound, MessageStatusReceived))
	assert.False(t, IsValidMessageState("sideways", MessageStatusSent))

	assert.True(t, CanTransitionMessageStatus(MessageStatusDraft, MessageStatusSent))
	assert.True(t, CanTransitionMessageStatus(MessageStatusFailed, MessageStatusDraft))
	assert.False(t, CanTransitionMessageStatus(MessageStatusSent, MessageStatusDraft))
	assert.False(t, CanTransitionMessageStatus(MessageStatusReceived, MessageStatusSent))
}

func TestMessageHelpers(t *testing.T) {
	m := &Message{}
	assert.False(t, m.IsAssigned())
	assert.Empty(t, m.CaseIDs())

	m.Assignments = []MessageAssignment{{CaseID: "c1"}, {CaseID: "c2"}}
	assert.True(t, m.IsAssigned())
	assert.Equal(t, []string{"c1", "c2"}, m.CaseIDs())

	assert.Equal(t, "is_archived", MessageFlagColumn(MessageFlagArchived))
	assert.Equal(t, "", MessageFlagColumn("pinned"))
	assert.False(t, IsValidMessageFlag("pinned"))
}
