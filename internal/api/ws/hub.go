package ws

import (
	"context"
	"net/http"

	"github.com/coder/websocket"
	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog/log"

	"github.com/gosuda/atlasdash/internal/domain"
	redisstore "github.com/gosuda/atlasdash/internal/store/redis"
)

// Subscriber is the pub/sub side the hub reads from.
// *redisstore.PubSub satisfies this interface.
type Subscriber interface {
	Subscribe(ctx context.Context, channel string) (<-chan []byte, func(), error)
}

// Hub streams recorded audit entries to WebSocket clients.
type Hub struct {
	pubsub Subscriber
}

// NewHub creates a new WebSocket hub.
func NewHub(pubsub Subscriber) *Hub {
	return &Hub{pubsub: pubsub}
}

// ServeAudit streams every recorded audit entry.
func (h *Hub) ServeAudit(w http.ResponseWriter, r *http.Request) {
	h.stream(w, r, redisstore.AuditChannel())
}

// ServeResourceAudit streams the entries of one resource, addressed by the
// resourceType and resourceID URL params.
func (h *Hub) ServeResourceAudit(w http.ResponseWriter, r *http.Request) {
	rt := domain.ResourceType(chi.URLParam(r, "resourceType"))
	if !rt.Valid() {
		http.Error(w, "invalid resource type", http.StatusBadRequest)
		return
	}

	resourceID := chi.URLParam(r, "resourceID")
	if resourceID == "" {
		http.Error(w, "missing resource id", http.StatusBadRequest)
		return
	}

	h.stream(w, r, redisstore.AuditResourceChannel(rt, resourceID))
}

func (h *Hub) stream(w http.ResponseWriter, r *http.Request, channel string) {
	conn, err := websocket.Accept(w, r, nil)
	if err != nil {
		log.Error().Err(err).Msg("websocket accept")
		return
	}
	defer conn.CloseNow()

	// Clients only listen; CloseRead handles their control frames and
	// cancels ctx once they disconnect.
	ctx := conn.CloseRead(r.Context())

	messages, cleanup, err := h.pubsub.Subscribe(ctx, channel)
	if err != nil {
		log.Error().Err(err).Str("channel", channel).Msg("websocket subscribe")
		_ = conn.Close(websocket.StatusInternalError, "subscribe failed")
		return
	}
	defer cleanup()

	for {
		select {
		case <-ctx.Done():
			_ = conn.Close(websocket.StatusNormalClosure, "connection closed")
			return
		case msg, msgOK := <-messages:
			if !msgOK {
				_ = conn.Close(websocket.StatusNormalClosure, "channel closed")
				return
			}
			if writeErr := conn.Write(ctx, websocket.MessageText, msg); writeErr != nil {
				log.Debug().Err(writeErr).Msg("websocket write")
				return
			}
		}
	}
}
