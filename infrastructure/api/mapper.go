package api

import (
	"time"

	"text-hub/domain"
	"text-hub/services"

	"github.com/google/uuid"
	"github.com/samber/lo"
)

type createMessageRequest struct {
	Body     string `json:"body" validate:"required"`
	Sender   string `json:"sender" validate:"required"`
	Receiver string `json:"receiver"`
	GroupID  string `json:"groupId" validate:"required,uuid"`
}

type updateMessageRequest struct {
	Body string `json:"body" validate:"required"`
}

type messageResponse struct {
	ID        string    `json:"id"`
	GroupID   string    `json:"groupId"`
	Sender    string    `json:"sender"`
	Receiver  string    `json:"receiver,omitempty"`
	Body      string    `json:"body"`
	CreatedAt time.Time `json:"createdAt"`
}

func toCreateCommand(req createMessageRequest) (services.CreateMessageCommand, error) {
	groupID, err := uuid.Parse(req.GroupID)
	if err != nil {
		return services.CreateMessageCommand{}, err
	}
	return services.CreateMessageCommand{
		GroupID:  groupID,
		Sender:   req.Sender,
		Receiver: req.Receiver,
		Body:     req.Body,
	}, nil
}

func toMessageResponse(message domain.Message) messageResponse {
	return messageResponse{
		ID:        message.ID.String(),
		GroupID:   message.GroupID.String(),
		Sender:    message.Sender,
		Receiver:  message.Receiver,
		Body:      message.Body,
		CreatedAt: message.CreatedAt,
	}
}

func toMessageResponses(messages []domain.Message) []messageResponse {
	return lo.Map(messages, func(item domain.Message, _ int) messageResponse {
		return toMessageResponse(item)
	})
}
