package services

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"claims_app_go/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func TestCreateMessage(t *testing.T) {
	db := setupServiceTestDB(t)
	storage := newTestStorage(t)
	svc := NewCorrespondenceService(db, storage, nil)
	ctx := context.Background()

	t.Run("inbound defaults to received", func(t *testing.T) {
		msg, err := svc.CreateMessage(ctx, CreateMessageInput{
			Direction:   "inbound",
			Subject:     "  Claim CLM-2026-00001  ",
			FromAddress: "client@example.com",
			ToAddresses: []string{"claims@example.org", " ", "desk@example.org"},
		})
		require.NoError(t, err)
		assert.Equal(t, models.MessageStatusReceived, msg.Status)
		assert.Equal(t, "Claim CLM-2026-00001", msg.Subject)
		assert.Equal(t, "claims@example.org, desk@example.org", msg.ToAddresses)
		assert.False(t, msg.OccurredAt.IsZero())
		assert.Empty(t, msg.Assignments)
	})

	t.Run("outbound defaults to draft", func(t *testing.T) {
		msg, err := svc.CreateMessage(ctx, CreateMessageInput{Direction: "OUTBOUND", Subject: "Request for documents"})
		require.NoError(t, err)
		assert.Equal(t, models.MessageDirectionOutbound, msg.Direction)
		assert.Equal(t, models.MessageStatusDraft, msg.Status)
	})

	t.Run("rejects impossible states", func(t *testing.T) {
		_, err := svc.CreateMessage(ctx, CreateMessageInput{Direction: "inbound", Status: "draft"})
		assert.True(t, errors.Is(err, ErrValidationFailed))

		_, err = svc.CreateMessage(ctx, CreateMessageInput{Direction: "sideways"})
		assert.True(t, errors.Is(err, ErrValidationFailed))
	})

	t.Run("sanitizes html bodies", func(t *testing.T) {
		msg, err := svc.CreateMessage(ctx, CreateMessageInput{
			Direction: "inbound",
			BodyHTML:  `<p onclick="steal()">Photos attached</p><script>alert(1)</script>`,
		})
		require.NoError(t, err)
		assert.Contains(t, msg.BodyHTML, "Photos attached")
		assert.NotContains(t, msg.BodyHTML, "script")
		assert.NotContains(t, msg.BodyHTML, "onclick")
	})

	t.Run("stores attachments with checksums", func(t *testing.T) {
		data := []byte("%PDF-1.4 police report")
		msg, err := svc.CreateMessage(ctx, CreateMessageInput{
			Direction:   "inbound",
			Subject:     "Police report",
			Attachments: []AttachmentInput{{FileName: "../../report.pdf", Data: data}},
		})
		require.NoError(t, err)
		require.Len(t, msg.Attachments, 1)

		att := msg.Attachments[0]
		assert.Equal(t, "report.pdf", att.FileName)
		assert.Equal(t, "application/pdf", att.MimeType)
		assert.Equal(t, int64(len(data)), att.FileSize)
		assert.Equal(t, Checksum(data), att.Checksum)

		got, opened, err := svc.OpenAttachment(ctx, att.ID)
		require.NoError(t, err)
		assert.Equal(t, att.ID, got.ID)
		assert.Equal(t, data, opened)
	})

	t.Run("attachment without a name is rejected", func(t *testing.T) {
		_, err := svc.CreateMessage(ctx, CreateMessageInput{
			Direction:   "inbound",
			Attachments: []AttachmentInput{{FileName: " ", Data: []byte("x")}},
		})
		var vErr *ValidationError
		require.True(t, errors.As(err, &vErr))
		assert.Equal(t, "attachments[0].file_name", vErr.Field)
	})
}

func TestCreateMessage_StorageFailureRemovesWrittenBytes(t *testing.T) {
	db := setupServiceTestDB(t)
	storage := new(MockStorageProvider)
	storage.On("UploadReader", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything).
		Return(&StorageResult{}, nil).Once()
	storage.On("UploadReader", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything).
		Return(nil, errors.New("disk full")).Once()
	storage.On("Delete", mock.Anything, mock.Anything).Return(nil)

	svc := NewCorrespondenceService(db, storage, nil)
	_, err := svc.CreateMessage(context.Background(), CreateMessageInput{
		Direction: "inbound",
		Attachments: []AttachmentInput{
			{FileName: "one.pdf", Data: []byte("1")},
			{FileName: "two.pdf", Data: []byte("2")},
		},
	})
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrStorageError))

	storage.AssertNumberOfCalls(t, "Delete", 1)
	assert.Equal(t, int64(0), countRows(t, db, &models.Message{}, ""))
	assert.Equal(t, int64(0), countRows(t, db, &models.Attachment{}, ""))
}

func TestAssignToCase(t *testing.T) {
	db := setupServiceTestDB(t)
	storage := newTestStorage(t)
	svc := NewCorrespondenceService(db, storage, nil)
	ctx := context.Background()

	c1 := createTestCase(t, db, "ASG-1")
	c2 := createTestCase(t, db, "ASG-2")
	msg, _ := storedAttachment(t, db, storage, "letter.pdf", []byte("%PDF"))

	t.Run("adds each case once", func(t *testing.T) {
		added, err := svc.AssignToCase(ctx, msg.ID, []string{c1.ID, c1.ID, c2.ID})
		require.NoError(t, err)
		assert.ElementsMatch(t, []string{c1.ID, c2.ID}, added)

		got, err := svc.GetMessage(ctx, msg.ID)
		require.NoError(t, err)
		assert.ElementsMatch(t, []string{c1.ID, c2.ID}, got.CaseIDs())
	})

	t.Run("repeating is harmless", func(t *testing.T) {
		added, err := svc.AssignToCase(ctx, msg.ID, []string{c1.ID})
		require.NoError(t, err)
		assert.Empty(t, added)

		assert.Equal(t, int64(2), countRows(t, db, &models.MessageAssignment{}, "message_id = ?", msg.ID))
		assert.Equal(t, int64(1), countRows(t, db, &models.Notification{}, "case_id = ? AND type = ?", c1.ID, models.NotificationTypeCorrespondenceAssigned))
	})

	t.Run("requires at least one case", func(t *testing.T) {
		_, err := svc.AssignToCase(ctx, msg.ID, []string{" "})
		assert.True(t, errors.Is(err, ErrValidationFailed))
	})

	t.Run("missing message", func(t *testing.T) {
		_, err := svc.AssignToCase(ctx, "missing", []string{c1.ID})
		assert.True(t, errors.Is(err, ErrNotFound))
	})
}

func TestAssignToCase_MissingCaseAssignsNothing(t *testing.T) {
	db := setupServiceTestDB(t)
	storage := newTestStorage(t)
	svc := NewCorrespondenceService(db, storage, nil)

	c := createTestCase(t, db, "ATOM-1")
	msg, _ := storedAttachment(t, db, storage, "letter.pdf", []byte("%PDF"))

	_, err := svc.AssignToCase(context.Background(), msg.ID, []string{c.ID, "no-such-case"})
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrNotFound))
	assert.Contains(t, err.Error(), "no-such-case")

	assert.Equal(t, int64(0), countRows(t, db, &models.MessageAssignment{}, "message_id = ?", msg.ID))
	assert.Equal(t, int64(0), countRows(t, db, &models.Notification{}, "case_id = ?", c.ID))
}

func TestAssignToCase_Concurrent(t *testing.T) {
	db := setupServiceTestDB(t)
	storage := newTestStorage(t)
	svc := NewCorrespondenceService(db, storage, nil)

	c := createTestCase(t, db, "CONC-1")
	msg, _ := storedAttachment(t, db, storage, "letter.pdf", []byte("%PDF"))

	const workers = 8
	var (
		wg    sync.WaitGroup
		mu    sync.Mutex
		added []string
		errs  []error
	)
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			ids, err := svc.AssignToCase(context.Background(), msg.ID, []string{c.ID})
			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				errs = append(errs, err)
				return
			}
			added = append(added, ids...)
		}()
	}
	wg.Wait()

	assert.Empty(t, errs)
	assert.Equal(t, []string{c.ID}, added)
	assert.Equal(t, int64(1), countRows(t, db, &models.MessageAssignment{}, "message_id = ?", msg.ID))
	assert.Equal(t, int64(1), countRows(t, db, &models.Notification{}, "case_id = ?", c.ID))
}

func TestAssignToCase_ConcurrentDistinctCases(t *testing.T) {
	db := setupServiceTestDB(t)
	storage := newTestStorage(t)
	svc := NewCorrespondenceService(db, storage, nil)
	ctx := context.Background()

	first := createTestCase(t, db, "CONC-2")
	second := createTestCase(t, db, "CONC-3")
	msg, _ := storedAttachment(t, db, storage, "letter.pdf", []byte("%PDF"))

	var (
		wg   sync.WaitGroup
		errA error
		errB error
	)
	wg.Add(2)
	go func() {
		defer wg.Done()
		_, errA = svc.AssignToCase(ctx, msg.ID, []string{first.ID})
	}()
	go func() {
		defer wg.Done()
		_, errB = svc.AssignToCase(ctx, msg.ID, []string{second.ID})
	}()
	wg.Wait()

	require.NoError(t, errA)
	require.NoError(t, errB)

	got, err := svc.GetMessage(ctx, msg.ID)
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{first.ID, second.ID}, got.CaseIDs())
}

func TestUnassignFromCase(t *testing.T) {
	db := setupServiceTestDB(t)
	storage := newTestStorage(t)
	svc := NewCorrespondenceService(db, storage, nil)
	ctx := context.Background()

	c := createTestCase(t, db, "UN-1")
	msg, _ := storedAttachment(t, db, storage, "letter.pdf", []byte("%PDF"))
	_, err := svc.AssignToCase(ctx, msg.ID, []string{c.ID})
	require.NoError(t, err)

	require.NoError(t, svc.UnassignFromCase(ctx, msg.ID, c.ID))
	assert.Equal(t, int64(0), countRows(t, db, &models.MessageAssignment{}, "message_id = ?", msg.ID))

	// Absent edge
	assert.NoError(t, svc.UnassignFromCase(ctx, msg.ID, c.ID))

	err = svc.UnassignFromCase(ctx, "missing", c.ID)
	assert.True(t, errors.Is(err, ErrNotFound))
}

func TestFolders(t *testing.T) {
	db := setupServiceTestDB(t)
	storage := newTestStorage(t)
	svc := NewCorrespondenceService(db, storage, nil)
	ctx := context.Background()
	base := time.Date(2026, 5, 1, 9, 0, 0, 0, time.UTC)

	c := createTestCase(t, db, "FOLD-1")

	create := func(in CreateMessageInput, offset time.Duration) *models.Message {
		at := base.Add(offset)
		in.OccurredAt = &at
		msg, err := svc.CreateMessage(ctx, in)
		require.NoError(t, err)
		return msg
	}

	unassignedIn := create(CreateMessageInput{Direction: "inbound", Subject: "new claim"}, 0)
	assignedIn := create(CreateMessageInput{Direction: "inbound", Subject: "expert report", IsImportant: true}, time.Hour)
	draft := create(CreateMessageInput{Direction: "outbound", Subject: "reply"}, 2*time.Hour)
	sent := create(CreateMessageInput{Direction: "outbound", Status: "sent", Subject: "decision"}, 3*time.Hour)

	_, err := svc.AssignToCase(ctx, assignedIn.ID, []string{c.ID})
	require.NoError(t, err)
	_, err = svc.AssignToCase(ctx, sent.ID, []string{c.ID})
	require.NoError(t, err)

	ids := func(messages []models.Message) []string {
		out := make([]string, 0, len(messages))
		for _, m := range messages {
			out = append(out, m.ID)
		}
		return out
	}

	folders, err := svc.ListFolders(ctx)
	require.NoError(t, err)
	require.Len(t, folders, len(models.AllFolders))

	assert.Equal(t, []string{assignedIn.ID, unassignedIn.ID}, ids(folders[models.FolderInbox]))
	assert.Equal(t, []string{sent.ID, draft.ID}, ids(folders[models.FolderSent]))
	assert.Equal(t, []string{draft.ID}, ids(folders[models.FolderDrafts]))
	assert.Equal(t, []string{assignedIn.ID}, ids(folders[models.FolderImportant]))
	assert.Equal(t, []string{draft.ID, unassignedIn.ID}, ids(folders[models.FolderUnassigned]))

	inbox, err := svc.ListFolder(ctx, models.FolderInbox)
	require.NoError(t, err)
	assert.Equal(t, ids(folders[models.FolderInbox]), ids(inbox))

	mixed, err := svc.ListFolder(ctx, models.Folder(" Inbox "))
	require.NoError(t, err)
	assert.Equal(t, ids(inbox), ids(mixed))

	some, err := svc.ListFolders(ctx, models.Folder("SENT"), models.Folder("Drafts"))
	require.NoError(t, err)
	require.Len(t, some, 2)
	assert.Equal(t, []string{sent.ID, draft.ID}, ids(some[models.FolderSent]))
	assert.Equal(t, []string{draft.ID}, ids(some[models.FolderDrafts]))

	_, err = svc.ListFolder(ctx, models.Folder("spam"))
	assert.True(t, errors.Is(err, ErrValidationFailed))

	caseMessages, err := svc.ListCaseMessages(ctx, c.ID)
	require.NoError(t, err)
	assert.Equal(t, []string{sent.ID, assignedIn.ID}, ids(caseMessages))

	_, err = svc.ListCaseMessages(ctx, "missing")
	assert.True(t, errors.Is(err, ErrNotFound))
}

func TestUpdateFlags(t *testing.T) {
	db := setupServiceTestDB(t)
	svc := NewCorrespondenceService(db, newTestStorage(t), nil)
	ctx := context.Background()

	msg, err := svc.CreateMessage(ctx, CreateMessageInput{Direction: "inbound", Subject: "flag me", BodyText: "body"})
	require.NoError(t, err)

	updated, err := svc.UpdateFlags(ctx, msg.ID, "important", true)
	require.NoError(t, err)
	assert.True(t, updated.IsImportant)
	assert.False(t, updated.IsRead)
	assert.Equal(t, msg.Status, updated.Status)
	assert.Equal(t, msg.Subject, updated.Subject)
	assert.Equal(t, msg.BodyText, updated.BodyText)
	assert.True(t, msg.OccurredAt.Equal(updated.OccurredAt))
	assert.Contains(t, models.Classify(updated), models.FolderImportant)

	updated, err = svc.UpdateFlags(ctx, msg.ID, "READ", true)
	require.NoError(t, err)
	assert.True(t, updated.IsRead)
	assert.True(t, updated.IsImportant)

	_, err = svc.UpdateFlags(ctx, msg.ID, "pinned", true)
	assert.True(t, errors.Is(err, ErrValidationFailed))

	_, err = svc.UpdateFlags(ctx, "missing", "read", true)
	assert.True(t, errors.Is(err, ErrNotFound))
}

func TestUpdateFlags_OtherMessagesKeepTheirFolders(t *testing.T) {
	db := setupServiceTestDB(t)
	svc := NewCorrespondenceService(db, newTestStorage(t), nil)
	ctx := context.Background()

	flagged, err := svc.CreateMessage(ctx, CreateMessageInput{Direction: "inbound", Subject: "a"})
	require.NoError(t, err)
	bystander, err := svc.CreateMessage(ctx, CreateMessageInput{Direction: "inbound", Subject: "b"})
	require.NoError(t, err)

	before, err := svc.GetMessage(ctx, bystander.ID)
	require.NoError(t, err)
	foldersBefore := models.Classify(before)

	_, err = svc.UpdateFlags(ctx, flagged.ID, "important", true)
	require.NoError(t, err)
	_, err = svc.UpdateFlags(ctx, flagged.ID, "read", true)
	require.NoError(t, err)

	after, err := svc.GetMessage(ctx, bystander.ID)
	require.NoError(t, err)
	assert.Equal(t, foldersBefore, models.Classify(after))
	assert.False(t, after.IsImportant)
	assert.False(t, after.IsRead)

	important, err := svc.ListFolder(ctx, models.FolderImportant)
	require.NoError(t, err)
	require.Len(t, important, 1)
	assert.Equal(t, flagged.ID, important[0].ID)
}

func TestUpdateMessageStatus(t *testing.T) {
	db := setupServiceTestDB(t)
	svc := NewCorrespondenceService(db, newTestStorage(t), nil)
	ctx := context.Background()

	draft, err := svc.CreateMessage(ctx, CreateMessageInput{Direction: "outbound", Subject: "reply"})
	require.NoError(t, err)

	sent, err := svc.UpdateMessageStatus(ctx, draft.ID, "sent")
	require.NoError(t, err)
	assert.Equal(t, models.MessageStatusSent, sent.Status)
	assert.NotContains(t, models.Classify(sent), models.FolderDrafts)

	_, err = svc.UpdateMessageStatus(ctx, draft.ID, "draft")
	assert.True(t, errors.Is(err, ErrValidationFailed))

	inbound, err := svc.CreateMessage(ctx, CreateMessageInput{Direction: "inbound"})
	require.NoError(t, err)
	_, err = svc.UpdateMessageStatus(ctx, inbound.ID, "sent")
	assert.True(t, errors.Is(err, ErrValidationFailed))

	_, err = svc.UpdateMessageStatus(ctx, "missing", "sent")
	assert.True(t, errors.Is(err, ErrNotFound))
}

func TestDeleteMessage(t *testing.T) {
	db := setupServiceTestDB(t)
	storage := newTestStorage(t)
	svc := NewCorrespondenceService(db, storage, nil)
	ctx := context.Background()

	c := createTestCase(t, db, "DM-1")
	msg, att := storedAttachment(t, db, storage, "letter.pdf", []byte("%PDF"))
	_, err := svc.AssignToCase(ctx, msg.ID, []string{c.ID})
	require.NoError(t, err)

	require.NoError(t, svc.DeleteMessage(ctx, msg.ID))

	assert.Equal(t, int64(0), countRows(t, db, &models.Message{}, "id = ?", msg.ID))
	assert.Equal(t, int64(0), countRows(t, db, &models.Attachment{}, "message_id = ?", msg.ID))
	assert.Equal(t, int64(0), countRows(t, db, &models.MessageAssignment{}, "message_id = ?", msg.ID))
	assert.Equal(t, int64(1), countRows(t, db, &models.Case{}, "id = ?", c.ID))

	_, _, err = storage.Get(ctx, att.StorageKey)
	assert.True(t, errors.Is(err, ErrObjectNotFound))

	assert.True(t, errors.Is(svc.DeleteMessage(ctx, msg.ID), ErrNotFound))
}
