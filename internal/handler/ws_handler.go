package handler

import (
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/proctorhq/examgate-backend/internal/config"
	"github.com/proctorhq/examgate-backend/internal/middleware"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

const feedWriteTimeout = 10 * time.Second

// buildUpgrader creates a WebSocket upgrader with origin validation.
// An empty allowedOrigins slice permits all origins (development mode).
func buildUpgrader(allowedOrigins []string) websocket.Upgrader {
	return websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		CheckOrigin: func(r *http.Request) bool {
			if len(allowedOrigins) == 0 {
				return true
			}
			origin := r.Header.Get("Origin")
			for _, allowed := range allowedOrigins {
				if strings.EqualFold(allowed, origin) {
					return true
				}
			}
			return false
		},
	}
}

// WSHandler streams live submission events for an exam over WebSocket.
// Events originate from the submit path, fan out through Redis pub/sub, and
// reach every connected watcher.
type WSHandler struct {
	rdb      *redis.Client
	log      zerolog.Logger
	upgrader websocket.Upgrader
}

// NewWSHandler creates a new WSHandler.
func NewWSHandler(rdb *redis.Client, log zerolog.Logger, allowedOrigins []string) *WSHandler {
	return &WSHandler{
		rdb:      rdb,
		log:      log.With().Str("component", "ws_handler").Logger(),
		upgrader: buildUpgrader(allowedOrigins),
	}
}

// ExamFeed godoc
// WS /ws/v1/exams/:exam_id/feed
// Upgrades to WebSocket and forwards submission events for the exam until
// the client disconnects.
func (h *WSHandler) ExamFeed(c *gin.Context) {
	claims := middleware.GetClaims(c)
	if claims == nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	examID, err := uuid.Parse(c.Param("exam_id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid exam ID"})
		return
	}

	conn, err := h.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		h.log.Error().Err(err).Msg("WebSocket upgrade failed")
		return
	}
	defer conn.Close()

	feedLog := h.log.With().
		Int("user_id", claims.UserID).
		Str("exam_id", examID.String()).
		Logger()

	sub := h.rdb.Subscribe(c.Request.Context(), config.CacheKey.ExamFeedChannel(examID.String()))
	defer sub.Close()

	feedLog.Info().Msg("Feed watcher connected")

	// Reader goroutine: its only job is to notice the client going away.
	done := make(chan struct{})
	go func() {
		defer close(done)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	events := sub.Channel()
	for {
		select {
		case <-done:
			feedLog.Debug().Msg("Feed watcher disconnected")
			return
		case msg, ok := <-events:
			if !ok {
				feedLog.Warn().Msg("Feed subscription closed")
				return
			}
			conn.SetWriteDeadline(time.Now().Add(feedWriteTimeout))
			if err := conn.WriteMessage(websocket.TextMessage, []byte(msg.Payload)); err != nil {
				feedLog.Debug().Err(err).Msg("Feed write failed, closing")
				return
			}
		}
	}
}
