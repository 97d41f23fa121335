package repositories

import (
	"log/slog"
	"testing"

	"text-hub/domain"
	apperrors "text-hub/errors"

	"github.com/dgraph-io/badger/v4"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
)

func newTestRepository(t *testing.T) MessageRepository {
	t.Helper()
	db, err := badger.Open(badger.DefaultOptions(t.TempDir()).WithLoggingLevel(badger.ERROR))
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return NewMessageRepository(db, slog.Default())
}

func Test_Create_Assigns_Identity_And_Creation_Time(t *testing.T) {
	req := require.New(t)
	repository := newTestRepository(t)
	group := uuid.New()

	// When a message is created
	stored, err := repository.Create(domain.Message{
		GroupID: group,
		Sender:  "Alice",
		Body:    "hi",
	})

	// Then identity and creation time are assigned by the store
	req.NoError(err)
	req.NotEqual(uuid.Nil, stored.ID)
	req.False(stored.CreatedAt.IsZero())
	req.Equal(group, stored.GroupID)
	req.Equal("hi", stored.Body)

	// And the group now contains exactly that message
	messages, err := repository.Get(group)
	req.NoError(err)
	req.Len(messages, 1)
	req.Equal(stored, messages[0])
}

func Test_Get_Orders_By_Creation_Time_Ascending(t *testing.T) {
	req := require.New(t)
	repository := newTestRepository(t)
	group := uuid.New()

	// Given several messages stored one after the other
	bodies := []string{"first", "second", "third"}
	ids := make(map[uuid.UUID]struct{})
	for _, body := range bodies {
		stored, err := repository.Create(domain.Message{GroupID: group, Sender: "Alice", Body: body})
		req.NoError(err)
		ids[stored.ID] = struct{}{}
	}

	// Then every id is distinct
	req.Len(ids, len(bodies))

	// And they come back in creation order
	messages, err := repository.Get(group)
	req.NoError(err)
	req.Len(messages, len(bodies))
	for i, message := range messages {
		req.Equal(bodies[i], message.Body)
		if i > 0 {
			req.False(message.CreatedAt.Before(messages[i-1].CreatedAt))
		}
	}
}

func Test_Get_Unknown_Group_Is_Empty(t *testing.T) {
	req := require.New(t)
	repository := newTestRepository(t)

	// An unknown group is not an error, just empty
	messages, err := repository.Get(uuid.New())
	req.NoError(err)
	req.Empty(messages)
}

func Test_Groups_Are_Isolated(t *testing.T) {
	req := require.New(t)
	repository := newTestRepository(t)
	groupA := uuid.New()
	groupB := uuid.New()

	_, err := repository.Create(domain.Message{GroupID: groupA, Sender: "Alice", Body: "for A"})
	req.NoError(err)
	_, err = repository.Create(domain.Message{GroupID: groupB, Sender: "Bob", Body: "for B"})
	req.NoError(err)

	messagesA, err := repository.Get(groupA)
	req.NoError(err)
	req.Len(messagesA, 1)
	req.Equal("for A", messagesA[0].Body)

	messagesB, err := repository.Get(groupB)
	req.NoError(err)
	req.Len(messagesB, 1)
	req.Equal("for B", messagesB[0].Body)
}

func Test_Update_Replaces_Body_And_Returns_Refreshed_Group(t *testing.T) {
	req := require.New(t)
	repository := newTestRepository(t)
	group := uuid.New()

	first, err := repository.Create(domain.Message{GroupID: group, Sender: "Alice", Body: "typo"})
	req.NoError(err)
	second, err := repository.Create(domain.Message{GroupID: group, Sender: "Bob", Body: "reply"})
	req.NoError(err)

	// When the first message's body is replaced
	messages, err := repository.Update(first.ID, "fixed")

	// Then the whole refreshed group comes back, order intact
	req.NoError(err)
	req.Len(messages, 2)
	req.Equal(first.ID, messages[0].ID)
	req.Equal("fixed", messages[0].Body)
	req.Equal(first.CreatedAt, messages[0].CreatedAt)
	req.Equal(second.ID, messages[1].ID)
	req.Equal("reply", messages[1].Body)
}

func Test_Update_Unknown_Message(t *testing.T) {
	req := require.New(t)
	repository := newTestRepository(t)

	_, err := repository.Update(uuid.New(), "anything")
	req.ErrorIs(err, apperrors.ErrMessageNotFound)
}

func Test_Delete_Removes_Message_And_Returns_Refreshed_Group(t *testing.T) {
	req := require.New(t)
	repository := newTestRepository(t)
	group := uuid.New()

	first, err := repository.Create(domain.Message{GroupID: group, Sender: "Alice", Body: "to delete"})
	req.NoError(err)
	second, err := repository.Create(domain.Message{GroupID: group, Sender: "Bob", Body: "to keep"})
	req.NoError(err)

	messages, err := repository.Delete(first.ID)
	req.NoError(err)
	req.Len(messages, 1)
	req.Equal(second.ID, messages[0].ID)
}

func Test_Delete_Last_Message_Returns_Empty_Group(t *testing.T) {
	req := require.New(t)
	repository := newTestRepository(t)
	group := uuid.New()

	only, err := repository.Create(domain.Message{GroupID: group, Sender: "Alice", Body: "alone"})
	req.NoError(err)

	// Deleting the only message succeeds with an empty refreshed list,
	// which is a valid result distinct from "not found"
	messages, err := repository.Delete(only.ID)
	req.NoError(err)
	req.NotNil(messages)
	req.Empty(messages)

	// A second delete of the same id is the not-found case
	_, err = repository.Delete(only.ID)
	req.ErrorIs(err, apperrors.ErrMessageNotFound)
}

func Test_GroupOf_Resolves_Owning_Group(t *testing.T) {
	req := require.New(t)
	repository := newTestRepository(t)
	group := uuid.New()

	stored, err := repository.Create(domain.Message{GroupID: group, Sender: "Alice", Body: "hi"})
	req.NoError(err)

	resolved, err := repository.GroupOf(stored.ID)
	req.NoError(err)
	req.Equal(group, resolved)

	_, err = repository.GroupOf(uuid.New())
	req.ErrorIs(err, apperrors.ErrMessageNotFound)
}
