package handler

import (
	"Alumnet/internal/pkg/consts"
	"Alumnet/internal/pkg/redis"
	"Alumnet/internal/pkg/response"
	"Alumnet/internal/pkg/security"
	"Alumnet/internal/pkg/ws"
	log "log/slog"

	"github.com/gin-gonic/gin"
)

type WsHandler struct {
	hub *ws.Hub
	kv  redis.KV
}

func NewWsHandler(hub *ws.Hub, kv redis.KV) *WsHandler {
	return &WsHandler{hub: hub, kv: kv}
}

// Connect 建立实时连接
// userId 缺失或为 undefined/null 时作为匿名连接；声明了 userId 时必须携带属于该用户的 token
func (s *WsHandler) Connect(c *gin.Context) {
	userID := ws.NormalizeUserID(c.Query("userId"))
	if userID != "" && !s.authorize(c, userID) {
		return
	}

	if err := s.hub.Serve(c.Writer, c.Request, userID); err != nil {
		log.WarnContext(c.Request.Context(), "websocket session ended with error", "userID", userID, "err", err)
	}
}

// authorize 浏览器无法为 WebSocket 设置请求头，token 走查询参数
func (s *WsHandler) authorize(c *gin.Context, userID string) bool {
	ctx := c.Request.Context()
	token := c.Query("token")
	if token == "" {
		response.Fail(c, response.Unauthorized, "missing token")
		return false
	}

	signature, err := security.ExtractSignature(token)
	if err != nil {
		response.Fail(c, response.Unauthorized, "token invalid or expired")
		return false
	}
	revoked, err := s.kv.GetValue(ctx, consts.TokenBlacklistKey+signature)
	if err != nil {
		log.ErrorContext(ctx, "read token blacklist failed", "err", err)
		response.Fail(c, response.InternalServerError, "unexpected error, please retry later")
		return false
	}
	if revoked != "" {
		response.Fail(c, response.Unauthorized, "token invalid or expired")
		return false
	}

	claims, err := security.ValidateToken(token)
	if err != nil {
		log.WarnContext(ctx, "WS auth failed", "err", err)
		response.Fail(c, response.Unauthorized, "token invalid or expired")
		return false
	}
	if claims.UserID != userID {
		log.WarnContext(ctx, "WS userId does not match token", "userID", userID, "tokenUser", claims.UserID)
		response.Fail(c, response.Unauthorized, "token does not belong to userId")
		return false
	}
	return true
}
