package services

import (
	"context"
	"sync"

	"text-hub/contract"
	"text-hub/domain"
	"text-hub/domain/event"
	"text-hub/repositories"

	"github.com/google/uuid"
)

type IMessageService interface {
	GetMessages(groupID uuid.UUID) ([]domain.Message, error)
	CreateMessage(ctx context.Context, cmd CreateMessageCommand) (domain.Message, error)
	UpdateMessage(ctx context.Context, messageID uuid.UUID, body string) ([]domain.Message, error)
	DeleteMessage(ctx context.Context, messageID uuid.UUID) ([]domain.Message, error)
}

type CreateMessageCommand struct {
	GroupID  uuid.UUID
	Sender   string
	Receiver string
	Body     string
}

// MessageService orchestrates the store and the dispatcher for the
// three mutating flows. Each one follows the same pattern: persist,
// then on success broadcast; on persist failure broadcast nothing and
// surface the error.
//
// The persist-then-broadcast sequence runs under a per-group mutex so
// that two concurrent mutations of the same group can never emit their
// broadcasts out of persist order. Mutations of different groups do not
// contend.
type MessageService struct {
	repository repositories.IMessageRepository
	dispatcher contract.IDispatcher

	mu         sync.Mutex
	groupLocks map[uuid.UUID]*sync.Mutex
}

func NewMessageService(repository repositories.IMessageRepository, dispatcher contract.IDispatcher) *MessageService {
	return &MessageService{
		repository: repository,
		dispatcher: dispatcher,
		groupLocks: make(map[uuid.UUID]*sync.Mutex),
	}
}

// GetMessages reads straight through to the store, ordered by creation
// time ascending. No dispatcher involvement.
func (s *MessageService) GetMessages(groupID uuid.UUID) ([]domain.Message, error) {
	return s.repository.Get(groupID)
}

// CreateMessage persists a new message and broadcasts it to the group's
// current subscribers.
func (s *MessageService) CreateMessage(ctx context.Context, cmd CreateMessageCommand) (domain.Message, error) {
	lock := s.lockGroup(cmd.GroupID)
	lock.Lock()
	defer lock.Unlock()

	stored, err := s.repository.Create(domain.Message{
		GroupID:  cmd.GroupID,
		Sender:   cmd.Sender,
		Receiver: cmd.Receiver,
		Body:     cmd.Body,
	})
	if err != nil {
		return domain.Message{}, err
	}
	s.dispatcher.Broadcast(ctx, event.MessageCreated{Message: stored})
	return stored, nil
}

// UpdateMessage replaces the body of an existing message and broadcasts
// the refreshed message list of its group. Returns
// errors.ErrMessageNotFound when the id is unknown, with no broadcast.
func (s *MessageService) UpdateMessage(ctx context.Context, messageID uuid.UUID, body string) ([]domain.Message, error) {
	groupID, err := s.repository.GroupOf(messageID)
	if err != nil {
		return nil, err
	}
	lock := s.lockGroup(groupID)
	lock.Lock()
	defer lock.Unlock()

	messages, err := s.repository.Update(messageID, body)
	if err != nil {
		return nil, err
	}
	s.dispatcher.Broadcast(ctx, event.MessagesUpdated{Group: groupID, Messages: messages})
	return messages, nil
}

// DeleteMessage removes an existing message and broadcasts the refreshed
// message list of its group. The refreshed list is empty when the last
// message was removed; subscribers still receive it so their view
// clears. Returns errors.ErrMessageNotFound when the id is unknown, with
// no broadcast.
func (s *MessageService) DeleteMessage(ctx context.Context, messageID uuid.UUID) ([]domain.Message, error) {
	groupID, err := s.repository.GroupOf(messageID)
	if err != nil {
		return nil, err
	}
	lock := s.lockGroup(groupID)
	lock.Lock()
	defer lock.Unlock()

	messages, err := s.repository.Delete(messageID)
	if err != nil {
		return nil, err
	}
	s.dispatcher.Broadcast(ctx, event.MessagesDeleted{Group: groupID, Messages: messages})
	return messages, nil
}

// lockGroup returns the serialization point of one group, creating it on
// first use. Locks are never reclaimed; a group's lock lives as long as
// the process.
func (s *MessageService) lockGroup(groupID uuid.UUID) *sync.Mutex {
	s.mu.Lock()
	defer s.mu.Unlock()
	if lock, ok := s.groupLocks[groupID]; ok {
		return lock
	}
	lock := &sync.Mutex{}
	s.groupLocks[groupID] = lock
	return lock
}
