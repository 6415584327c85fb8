package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/xxxsen/docchat/internal/pkg/errcode"
	"github.com/xxxsen/docchat/internal/pkg/response"
	"github.com/xxxsen/docchat/internal/service"
	"github.com/xxxsen/docchat/internal/transport"
)

// ChatHandler is the synchronous webhook transport: one inbound event in, the
// buffered outbound messages back in the response body.
type ChatHandler struct {
	chat *service.Chat
}

func NewChatHandler(chat *service.Chat) *ChatHandler {
	return &ChatHandler{chat: chat}
}

type chatMessageRequest struct {
	UserID string `json:"user_id"`
	Text   string `json:"text"`
}

type chatActionRequest struct {
	UserID string `json:"user_id"`
	Action string `json:"action"`
}

type chatResponse struct {
	Messages []transport.OutMessage `json:"messages"`
}

func (h *ChatHandler) Message(c *gin.Context) {
	var req chatMessageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, errcode.ErrInvalid, "invalid request")
		return
	}
	if req.UserID == "" || req.Text == "" {
		response.Error(c, errcode.ErrInvalid, "user_id and text required")
		return
	}
	buf := transport.NewBuffer()
	if err := h.chat.HandleMessage(c.Request.Context(), req.UserID, req.Text, buf); err != nil {
		handleError(c, err)
		return
	}
	response.Success(c, chatResponse{Messages: buf.Messages()})
}

func (h *ChatHandler) Action(c *gin.Context) {
	var req chatActionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, errcode.ErrInvalid, "invalid request")
		return
	}
	if req.UserID == "" || req.Action == "" {
		response.Error(c, errcode.ErrInvalid, "user_id and action required")
		return
	}
	buf := transport.NewBuffer()
	if err := h.chat.HandleAction(c.Request.Context(), req.UserID, req.Action, buf); err != nil {
		handleError(c, err)
		return
	}
	response.Success(c, chatResponse{Messages: buf.Messages()})
}
