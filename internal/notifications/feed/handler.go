// Package feed consumes the notification events the backend publishes and
// turns them into cache invalidations for the current user.
package feed

import (
	"encoding/json"
	"fmt"

	"ticketly-client/internal/logger"
	"ticketly-client/internal/models"
	"ticketly-client/internal/querycache"
)

type Invalidator interface {
	InvalidatePrefix(prefix string)
}

// Handler decides whether an event concerns the current user. Receiver
// reports that user's id; it is read per message since the session can
// change while a feed runs.
type Handler struct {
	Receiver func() models.ID
	Cache    Invalidator
	Logger   *logger.Logger

	// Notify, when set, is called for every event that was applied.
	Notify func(models.NotificationEvent)
}

// Handle decodes one message body. It returns an error only for bodies that
// are not a notification event; events for other users are ignored.
func (h *Handler) Handle(source string, body []byte) (bool, error) {
	var ev models.NotificationEvent
	if err := json.Unmarshal(body, &ev); err != nil {
		return false, fmt.Errorf("malformed notification event: %w", err)
	}

	if !ev.IsBroadcast() {
		var me models.ID
		if h.Receiver != nil {
			me = h.Receiver()
		}
		if me.IsZero() || ev.Receiver != me {
			h.Logger.Debug("FEED", fmt.Sprintf("[%s] Skipping event for user %s", source, ev.Receiver))
			return false, nil
		}
	}

	h.Cache.InvalidatePrefix(querycache.KeyNotifications)
	h.Logger.LogFeed(source, fmt.Sprintf("%s notification for %s: %s", ev.Kind, receiverLabel(ev), ev.Message))
	if h.Notify != nil {
		h.Notify(ev)
	}
	return true, nil
}

func receiverLabel(ev models.NotificationEvent) string {
	if ev.IsBroadcast() {
		return "everyone"
	}
	return "user " + ev.Receiver.String()
}
