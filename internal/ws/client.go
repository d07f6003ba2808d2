package ws

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"go.opentelemetry.io/otel"
	"go.uber.org/zap"

	"voicechat-service/internal/models"
	"voicechat-service/internal/observability"
	"voicechat-service/internal/telemetry"
)

// Client is one websocket connection. participantID is assigned when the
// connect message is handled and is only ever touched on the dispatcher
// goroutine.
type Client struct {
	conn          *websocket.Conn
	connID        string
	ip            string
	connectedAt   time.Time
	participantID string
}

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool { return true },
}

// Handler upgrades inbound connections and feeds the dispatcher.
type Handler struct {
	dispatcher *Dispatcher
	audit      *telemetry.AuditEmitter
	log        *zap.Logger
}

// NewHandler constructs the websocket handler.
func NewHandler(dispatcher *Dispatcher, audit *telemetry.AuditEmitter, log *zap.Logger) *Handler {
	return &Handler{dispatcher: dispatcher, audit: audit, log: log}
}

// Handle upgrades the connection and starts its read pump.
func (h *Handler) Handle(c *gin.Context) {
	ctx, span := otel.Tracer("voicechat-service/ws").Start(c.Request.Context(), "ws.handshake")
	defer span.End()
	c.Request = c.Request.WithContext(ctx)

	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		return
	}

	client := &Client{
		conn:        conn,
		connID:      newConnID(),
		ip:          observability.IPFromRequest(c.Request),
		connectedAt: time.Now(),
	}

	observability.IncWSActive()
	h.audit.Emit(context.Background(), "info", "ws_connect conn_id="+client.connID, nil)

	go h.readPump(client)
}

func (h *Handler) readPump(client *Client) {
	defer func() {
		observability.DecWSActive()
		h.audit.Emit(context.Background(), "info", "ws_disconnect conn_id="+client.connID, nil)
		h.dispatcher.Do(func() {
			h.dispatcher.disconnect(client)
		})
		client.conn.Close()
	}()

	for {
		var event models.Event
		if err := client.conn.ReadJSON(&event); err != nil {
			if !websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				h.log.Debug("websocket read error",
					zap.String("conn_id", client.connID),
					zap.Error(err))
			}
			return
		}
		observability.IncWSEvent(event.Type)
		h.dispatcher.Dispatch(client, event)
	}
}

func newConnID() string {
	buf := make([]byte, 16)
	if _, err := rand.Read(buf); err != nil {
		return ""
	}
	return hex.EncodeToString(buf)
}
