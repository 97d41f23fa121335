//go:generate go run go.uber.org/mock/mockgen -source=message.go -destination=../mocks/mock_message_repository.go -package=mocks
package repositories

import (
	"encoding/json"
	stderrors "errors"
	"fmt"
	"log/slog"
	"time"

	"text-hub/domain"
	apperrors "text-hub/errors"

	"github.com/dgraph-io/badger/v4"
	"github.com/google/uuid"
)

type IMessageRepository interface {
	Get(groupID uuid.UUID) ([]domain.Message, error)
	Create(message domain.Message) (domain.Message, error)
	GroupOf(messageID uuid.UUID) (uuid.UUID, error)
	Update(messageID uuid.UUID, body string) ([]domain.Message, error)
	Delete(messageID uuid.UUID) ([]domain.Message, error)
}

type MessageRepository struct {
	db  *badger.DB
	log *slog.Logger
}

func NewMessageRepository(db *badger.DB, log *slog.Logger) MessageRepository {
	return MessageRepository{db: db, log: log}
}

type diskMessage struct {
	ID       uuid.UUID `json:"id"`
	Group    uuid.UUID `json:"group"`
	Sender   string    `json:"sender"`
	Receiver string    `json:"receiver,omitempty"`
	Body     string    `json:"body"`
	At       time.Time `json:"at"`
}

// Keys are formatted as "msg:{group_id}:{timestamp_padded}:{uuid}" to:
//  1. Make the group the prefix, so one prefix scan is the secondary
//     index by group.
//  2. Ensure chronological sorting using 19-digit zero padding
//     (lexicographical order).
//  3. Prevent data loss by using the message UUID as a collision
//     disconnector if two messages arrive at the same nanosecond.
//
// A second keyspace "idx:{uuid}" points at the primary key so Update and
// Delete can resolve a message id without scanning.
func messageKey(group uuid.UUID, at time.Time, id uuid.UUID) []byte {
	return fmt.Appendf(nil, "msg:%s:%019d:%s", group, at.UnixNano(), id)
}

func indexKey(id uuid.UUID) []byte {
	return fmt.Appendf(nil, "idx:%s", id)
}

func groupPrefix(group uuid.UUID) []byte {
	return fmt.Appendf(nil, "msg:%s:", group)
}

// groupOfKey extracts the group id back out of a primary key.
// The group segment sits right after "msg:" and a UUID string is
// always 36 bytes.
func groupOfKey(key []byte) (uuid.UUID, error) {
	if len(key) < len("msg:")+36 {
		return uuid.Nil, fmt.Errorf("malformed message key %q", key)
	}
	return uuid.ParseBytes(key[len("msg:") : len("msg:")+36])
}

// Get returns every message of a group, ordered by creation time
// ascending. An unknown group is not an error: the result is simply
// empty.
func (m MessageRepository) Get(groupID uuid.UUID) ([]domain.Message, error) {
	var raw [][]byte
	err := m.db.View(func(txn *badger.Txn) error {
		prefix := groupPrefix(groupID)
		options := badger.DefaultIteratorOptions
		options.Prefix = prefix
		it := txn.NewIterator(options)
		defer it.Close()

		for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
			err := it.Item().Value(func(value []byte) error {
				raw = append(raw, append([]byte(nil), value...))
				return nil
			})
			if err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("%w: reading group %s: %v", apperrors.ErrStorage, groupID, err)
	}

	messages := make([]domain.Message, 0, len(raw))
	for _, bytes := range raw {
		var dm diskMessage
		if err = json.Unmarshal(bytes, &dm); err != nil {
			return nil, fmt.Errorf("%w: decoding message: %v", apperrors.ErrStorage, err)
		}
		messages = append(messages, toMessage(dm))
	}
	return messages, nil
}

// Create assigns the identity and creation time, persists the message
// and returns the stored copy.
func (m MessageRepository) Create(message domain.Message) (domain.Message, error) {
	message.ID = uuid.New()
	message.CreatedAt = time.Now().UTC()

	bytes, err := json.Marshal(fromMessage(message))
	if err != nil {
		return domain.Message{}, fmt.Errorf("%w: encoding message: %v", apperrors.ErrStorage, err)
	}

	key := messageKey(message.GroupID, message.CreatedAt, message.ID)
	err = m.db.Update(func(txn *badger.Txn) error {
		if err := txn.Set(key, bytes); err != nil {
			return err
		}
		return txn.Set(indexKey(message.ID), key)
	})
	if err != nil {
		return domain.Message{}, fmt.Errorf("%w: storing message %s: %v", apperrors.ErrStorage, message.ID, err)
	}
	return message, nil
}

// GroupOf resolves the owning group of a message without reading its
// body. Used by callers that need a group-scoped serialization point
// before mutating by message id.
func (m MessageRepository) GroupOf(messageID uuid.UUID) (uuid.UUID, error) {
	var group uuid.UUID
	err := m.db.View(func(txn *badger.Txn) error {
		key, err := resolveKey(txn, messageID)
		if err != nil {
			return err
		}
		group, err = groupOfKey(key)
		return err
	})
	if err != nil {
		return uuid.Nil, mapKeyNotFound(err, messageID)
	}
	return group, nil
}

// Update replaces the body of an existing message, keeping its key (and
// therefore its position in the group timeline) intact, then returns the
// refreshed ordered list of the whole group.
func (m MessageRepository) Update(messageID uuid.UUID, body string) ([]domain.Message, error) {
	var group uuid.UUID
	err := m.db.Update(func(txn *badger.Txn) error {
		key, err := resolveKey(txn, messageID)
		if err != nil {
			return err
		}
		item, err := txn.Get(key)
		if err != nil {
			return err
		}
		var dm diskMessage
		err = item.Value(func(value []byte) error {
			return json.Unmarshal(value, &dm)
		})
		if err != nil {
			return err
		}
		dm.Body = body
		group = dm.Group
		bytes, err := json.Marshal(dm)
		if err != nil {
			return err
		}
		return txn.Set(key, bytes)
	})
	if err != nil {
		return nil, mapKeyNotFound(err, messageID)
	}
	return m.Get(group)
}

// Delete removes the message and its id index, then returns the
// refreshed ordered list of the group. The list is empty when the last
// message of the group was removed; that is a valid outcome, distinct
// from the ErrMessageNotFound case.
func (m MessageRepository) Delete(messageID uuid.UUID) ([]domain.Message, error) {
	var group uuid.UUID
	err := m.db.Update(func(txn *badger.Txn) error {
		key, err := resolveKey(txn, messageID)
		if err != nil {
			return err
		}
		if group, err = groupOfKey(key); err != nil {
			return err
		}
		if err = txn.Delete(key); err != nil {
			return err
		}
		return txn.Delete(indexKey(messageID))
	})
	if err != nil {
		return nil, mapKeyNotFound(err, messageID)
	}
	return m.Get(group)
}

// resolveKey follows the id index to the primary key of a message.
func resolveKey(txn *badger.Txn, messageID uuid.UUID) ([]byte, error) {
	item, err := txn.Get(indexKey(messageID))
	if err != nil {
		return nil, err
	}
	var key []byte
	err = item.Value(func(value []byte) error {
		key = append([]byte(nil), value...)
		return nil
	})
	return key, err
}

func mapKeyNotFound(err error, messageID uuid.UUID) error {
	if stderrors.Is(err, badger.ErrKeyNotFound) {
		return fmt.Errorf("%w: %s", apperrors.ErrMessageNotFound, messageID)
	}
	return fmt.Errorf("%w: message %s: %v", apperrors.ErrStorage, messageID, err)
}

func fromMessage(message domain.Message) diskMessage {
	return diskMessage{
		ID:       message.ID,
		Group:    message.GroupID,
		Sender:   message.Sender,
		Receiver: message.Receiver,
		Body:     message.Body,
		At:       message.CreatedAt,
	}
}

func toMessage(dm diskMessage) domain.Message {
	return domain.Message{
		ID:        dm.ID,
		GroupID:   dm.Group,
		Sender:    dm.Sender,
		Receiver:  dm.Receiver,
		Body:      dm.Body,
		CreatedAt: dm.At,
	}
}
