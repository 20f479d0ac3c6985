package handler

import (
	"github.com/labstack/echo/v4"

	"helperhub/internal/adapter/api/middleware"
	"helperhub/internal/usecase"
	"helperhub/pkg/errors"
	"helperhub/pkg/response"
)

type ChatHandler struct {
	conversationUseCase *usecase.ConversationUseCase
	deliveryUseCase     *usecase.DeliveryUseCase
}

func NewChatHandler(conversationUseCase *usecase.ConversationUseCase, deliveryUseCase *usecase.DeliveryUseCase) *ChatHandler {
	return &ChatHandler{
		conversationUseCase: conversationUseCase,
		deliveryUseCase:     deliveryUseCase,
	}
}

type sendMessageRequest struct {
	PostID   string `json:"postId" validate:"required"`
	SellerID string `json:"sellerId" validate:"required"`
	BuyerID  string `json:"buyerId" validate:"required"`
	Text     string `json:"text" validate:"required"`
}

type markSeenRequest struct {
	PostID     string   `json:"postId" validate:"required"`
	BuyerID    string   `json:"buyerId" validate:"required"`
	SellerID   string   `json:"sellerId" validate:"required"`
	MessageIDs []string `json:"messageIds" validate:"required,min=1,dive,required"`
}

type toggleHelperRequest struct {
	PostID  string `json:"postId" validate:"required"`
	BuyerID string `json:"buyerId" validate:"required"`
}

// SendMessage stores a message from the authenticated user and fans it out.
func (h *ChatHandler) SendMessage(c echo.Context) error {
	var req sendMessageRequest
	if err := c.Bind(&req); err != nil {
		return response.Error(c, errors.Validation("Invalid request body", err))
	}
	if err := c.Validate(&req); err != nil {
		return response.Error(c, err)
	}

	msg, err := h.deliveryUseCase.SendMessage(c.Request().Context(), usecase.SendMessageInput{
		PostID:   req.PostID,
		SellerID: req.SellerID,
		BuyerID:  req.BuyerID,
		SenderID: middleware.UserID(c),
		Text:     req.Text,
	})
	if err != nil {
		return response.Error(c, err)
	}

	return response.Created(c, msg)
}

func (h *ChatHandler) MarkSeen(c echo.Context) error {
	var req markSeenRequest
	if err := c.Bind(&req); err != nil {
		return response.Error(c, errors.Validation("Invalid request body", err))
	}
	if err := c.Validate(&req); err != nil {
		return response.Error(c, err)
	}

	updated, err := h.deliveryUseCase.MarkMessagesSeen(c.Request().Context(), usecase.MarkSeenInput{
		PostID:     req.PostID,
		BuyerID:    req.BuyerID,
		SellerID:   req.SellerID,
		MessageIDs: req.MessageIDs,
		ViewerID:   middleware.UserID(c),
	})
	if err != nil {
		return response.Error(c, err)
	}

	return response.Success(c, map[string]int{"updated": updated})
}

func (h *ChatHandler) ToggleHelper(c echo.Context) error {
	var req toggleHelperRequest
	if err := c.Bind(&req); err != nil {
		return response.Error(c, errors.Validation("Invalid request body", err))
	}
	if err := c.Validate(&req); err != nil {
		return response.Error(c, err)
	}

	result, err := h.deliveryUseCase.ToggleHelper(c.Request().Context(), usecase.ToggleHelperInput{
		PostID:  req.PostID,
		BuyerID: req.BuyerID,
		ActorID: middleware.UserID(c),
	})
	if err != nil {
		return response.Error(c, err)
	}

	return response.Success(c, result)
}

// GetConversation handles GET /v1/chats?postId=&buyerId=
func (h *ChatHandler) GetConversation(c echo.Context) error {
	conversation, err := h.conversationUseCase.GetConversation(
		c.Request().Context(),
		c.QueryParam("postId"),
		c.QueryParam("buyerId"),
		middleware.UserID(c),
	)
	if err != nil {
		return response.Error(c, err)
	}

	return response.Success(c, conversation)
}

func (h *ChatHandler) ListSelling(c echo.Context) error {
	summaries, err := h.conversationUseCase.ListForSeller(c.Request().Context(), middleware.UserID(c))
	if err != nil {
		return response.Error(c, err)
	}
	return response.Success(c, summaries)
}

func (h *ChatHandler) ListBuying(c echo.Context) error {
	summaries, err := h.conversationUseCase.ListForBuyer(c.Request().Context(), middleware.UserID(c))
	if err != nil {
		return response.Error(c, err)
	}
	return response.Success(c, summaries)
}
