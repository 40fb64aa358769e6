package sse

import (
	"time"

	"github.com/GTDGit/book_api/internal/models"
)

// ActivityNotifier is the interface services use to report publishing and sync activity.
type ActivityNotifier interface {
	NotifyPublished(book *models.Book, channel string, err error)
	NotifySyncFinished(stats map[string]int, err error)
}

// HubNotifier implements ActivityNotifier using the SSE Hub.
type HubNotifier struct {
	hub *Hub
}

// NewHubNotifier creates a notifier backed by the given Hub.
func NewHubNotifier(hub *Hub) *HubNotifier {
	return &HubNotifier{hub: hub}
}

func (n *HubNotifier) NotifyPublished(book *models.Book, channel string, err error) {
	if n.hub.ClientCount() == 0 {
		return
	}
	ev := &ActivityEvent{
		Event:     EventBookPublished,
		BookID:    book.ID,
		Title:     book.Title,
		Channel:   channel,
		Timestamp: time.Now(),
	}
	if err != nil {
		ev.Event = EventBookPublishFailed
		ev.Message = err.Error()
	}
	n.hub.Broadcast(ev)
}

func (n *HubNotifier) NotifySyncFinished(stats map[string]int, err error) {
	if n.hub.ClientCount() == 0 {
		return
	}
	ev := &ActivityEvent{
		Event:     EventSyncCompleted,
		Stats:     stats,
		Timestamp: time.Now(),
	}
	if err != nil {
		ev.Event = EventSyncFailed
		ev.Message = err.Error()
	}
	n.hub.Broadcast(ev)
}

// NopNotifier is a no-op implementation for when SSE is not needed.
type NopNotifier struct{}

func (NopNotifier) NotifyPublished(*models.Book, string, error) {}
func (NopNotifier) NotifySyncFinished(map[string]int, error)    {}
