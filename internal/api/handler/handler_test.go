package handler

import (
	"Alumnet/internal/api/config"
	"Alumnet/internal/api/dto"
	"Alumnet/internal/model"
	"Alumnet/internal/service"
	"bytes"
	"context"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/goccy/go-json"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func init() {
	gin.SetMode(gin.TestMode)
}

type stubChatService struct {
	gotActor    service.Actor
	gotTarget   string
	gotDecision string
	gotPage     [2]int
	err         error
}

func (s *stubChatService) RequestConnection(_ context.Context, requester service.Actor, targetID, _ string) (*dto.ConversationDTO, error) {
	s.gotActor, s.gotTarget = requester, targetID
	if s.err != nil {
		return nil, s.err
	}
	return &dto.ConversationDTO{ID: "c1", Status: model.StatusPending, Initiator: requester.UserID}, nil
}

func (s *stubChatService) ResolveRequest(_ context.Context, actor service.Actor, conversationID string, decision string) (*dto.ConversationDTO, error) {
	s.gotActor, s.gotDecision = actor, decision
	if s.err != nil {
		return nil, s.err
	}
	return &dto.ConversationDTO{ID: conversationID, Status: model.ConversationStatus(decision)}, nil
}

func (s *stubChatService) ListPendingRequestsReceived(_ context.Context, _ string, page, pageSize int) (*dto.Page[*dto.ConversationDTO], error) {
	s.gotPage = [2]int{page, pageSize}
	return &dto.Page[*dto.ConversationDTO]{Items: []*dto.ConversationDTO{}, Page: page, PageSize: pageSize}, nil
}

func (s *stubChatService) ListActiveConversations(_ context.Context, _ string, page, pageSize int) (*dto.Page[*dto.ConversationDTO], error) {
	s.gotPage = [2]int{page, pageSize}
	return &dto.Page[*dto.ConversationDTO]{Items: []*dto.ConversationDTO{}, Page: page, PageSize: pageSize}, nil
}

func (s *stubChatService) RemindStalePending(context.Context, time.Duration, int64) (int, error) {
	return 0, nil
}

type stubMessageService struct {
	gotViewer string
	gotConv   string
	err       error
}

func (s *stubMessageService) SendMessage(_ context.Context, senderID, conversationID, content string) (*model.Message, error) {
	if s.err != nil {
		return nil, s.err
	}
	return &model.Message{Sender: senderID, Content: content}, nil
}

func (s *stubMessageService) OpenConversation(_ context.Context, viewerID, conversationID string, page, pageSize int) (*dto.ConversationMessagesDTO, error) {
	s.gotViewer, s.gotConv = viewerID, conversationID
	if s.err != nil {
		return nil, s.err
	}
	return &dto.ConversationMessagesDTO{ConversationID: conversationID, Page: page, PageSize: pageSize, Messages: []*model.Message{}}, nil
}

type stubPresence []string

func (s stubPresence) OnlineUsers() []string { return s }

// withUser 模拟鉴权中间件注入的身份
func withUser(userID, name string) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Set("user_id", userID)
		c.Set("name", name)
		c.Next()
	}
}

func newChatRouter(chat *stubChatService, msg *stubMessageService) *gin.Engine {
	h := NewChatHandler(chat, msg, stubPresence{"u1", "u2"}, config.ChatConfig{DefaultPageSize: 20, MaxPageSize: 50})
	r := gin.New()
	g := r.Group("/api/chat", withUser("u1", "Alice"))
	g.POST("/request", h.RequestConnection)
	g.POST("/manage-request", h.ManageRequest)
	g.GET("/requests", h.GetPendingRequests)
	g.GET("/my-chats", h.GetMyChats)
	g.POST("/send", h.SendMessage)
	g.GET("/online", h.GetOnlineUsers)
	g.GET("/:conversationId", h.OpenConversation)
	return r
}

func perform(r http.Handler, method, path string, body any) (*httptest.ResponseRecorder, dto.Response) {
	var reader io.Reader
	if body != nil {
		raw, _ := json.Marshal(body)
		reader = bytes.NewReader(raw)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	var res dto.Response
	_ = json.Unmarshal(w.Body.Bytes(), &res)
	return w, res
}

func TestChatHandler_RequestConnection(t *testing.T) {
	chat := &stubChatService{}
	r := newChatRouter(chat, &stubMessageService{})

	w, res := perform(r, http.MethodPost, "/api/chat/request", map[string]string{"targetUserId": "u2", "message": "hi"})
	assert.Equal(t, http.StatusOK, w.Code)
	assert.True(t, res.Success)
	assert.Equal(t, service.Actor{UserID: "u1", Name: "Alice"}, chat.gotActor)
	assert.Equal(t, "u2", chat.gotTarget)

	w, res = perform(r, http.MethodPost, "/api/chat/request", map[string]string{"message": "hi"})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.False(t, res.Success)
}

func TestChatHandler_ErrorKindsMapToStatus(t *testing.T) {
	tests := []struct {
		err  error
		code int
	}{
		{service.ErrRequestPending, http.StatusConflict},
		{service.ErrSelfRequest, http.StatusBadRequest},
		{service.ErrCannotResolveOwnRequest, http.StatusForbidden},
		{service.ErrConversationNotFound, http.StatusNotFound},
		{service.UnExpectedError, http.StatusInternalServerError},
	}
	for _, tt := range tests {
		r := newChatRouter(&stubChatService{err: tt.err}, &stubMessageService{})
		w, res := perform(r, http.MethodPost, "/api/chat/manage-request", map[string]string{"conversationId": "c1", "status": "ACCEPTED"})
		assert.Equal(t, tt.code, w.Code, tt.err.Error())
		assert.Equal(t, tt.code, res.Code)
		assert.Equal(t, tt.err.Error(), res.Message)
		assert.False(t, res.Success)
	}
}

func TestChatHandler_Pagination(t *testing.T) {
	chat := &stubChatService{}
	r := newChatRouter(chat, &stubMessageService{})

	w, _ := perform(r, http.MethodGet, "/api/chat/requests?page=2&pageSize=500", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, [2]int{2, 50}, chat.gotPage)

	w, _ = perform(r, http.MethodGet, "/api/chat/my-chats", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, [2]int{1, 20}, chat.gotPage)
}

func TestChatHandler_SendAndOpen(t *testing.T) {
	msg := &stubMessageService{}
	r := newChatRouter(&stubChatService{}, msg)

	w, res := perform(r, http.MethodPost, "/api/chat/send", map[string]string{"conversationId": "c1", "content": "hello"})
	require.Equal(t, http.StatusOK, w.Code)
	data := res.Data.(map[string]any)
	assert.Equal(t, "u1", data["sender"])
	assert.Equal(t, "hello", data["content"])

	w, _ = perform(r, http.MethodGet, "/api/chat/c42?page=1", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "u1", msg.gotViewer)
	assert.Equal(t, "c42", msg.gotConv)

	msg.err = service.ErrNotConnected
	w, _ = perform(r, http.MethodPost, "/api/chat/send", map[string]string{"conversationId": "c1", "content": "hello"})
	assert.Equal(t, http.StatusForbidden, w.Code)
}

func TestChatHandler_Online(t *testing.T) {
	r := newChatRouter(&stubChatService{}, &stubMessageService{})
	w, res := perform(r, http.MethodGet, "/api/chat/online", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, []any{"u1", "u2"}, res.Data)
}

type stubUserService struct {
	service.UserService
	uploadedType string
	uploadedSize int64
}

func (s *stubUserService) UploadAvatar(_ context.Context, _ string, reader io.Reader, size int64, contentType string) (string, error) {
	_, _ = io.Copy(io.Discard, reader)
	s.uploadedType, s.uploadedSize = contentType, size
	return "https://files.test/avatar.png", nil
}

func (s *stubUserService) VerifyUser(_ context.Context, id string, _ bool) error {
	if id != "u2" {
		return service.ErrUserNotFound
	}
	return nil
}

func TestUserHandler_UploadAvatarSniffsContent(t *testing.T) {
	svc := &stubUserService{}
	h := NewUserHandler(svc)
	r := gin.New()
	r.POST("/avatar", withUser("u1", "Alice"), h.UploadAvatar)

	png := []byte("\x89PNG\r\n\x1a\n\x00\x00\x00\rIHDR\x00\x00\x00\x01\x00\x00\x00\x01\x08\x06\x00\x00\x00")
	body := &bytes.Buffer{}
	mw := multipart.NewWriter(body)
	part, err := mw.CreateFormFile("file", "avatar.txt")
	require.NoError(t, err)
	_, _ = part.Write(png)
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, "/avatar", body)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "image/png", svc.uploadedType)
	assert.Equal(t, int64(len(png)), svc.uploadedSize)

	w, _ = perform(r, http.MethodPost, "/avatar", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestUserHandler_VerifyUser(t *testing.T) {
	h := NewUserHandler(&stubUserService{})
	r := gin.New()
	r.PUT("/user/:userId/verify", h.VerifyUser)

	w, _ := perform(r, http.MethodPut, "/user/u2/verify", map[string]bool{"verified": false})
	assert.Equal(t, http.StatusOK, w.Code)

	w, _ = perform(r, http.MethodPut, "/user/u3/verify", map[string]bool{"verified": true})
	assert.Equal(t, http.StatusNotFound, w.Code)

	w, _ = perform(r, http.MethodPut, "/user/u2/verify", map[string]string{})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}
