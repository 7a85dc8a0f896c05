package chat

import (
	"time"

	"github.com/capitalize-ai/conversational-console/internal/model"
)

// DeliveryState tracks a transcript entry's confirmation status.
type DeliveryState string

const (
	// DeliveryPending marks an optimistic local entry whose send is in
	// flight.
	DeliveryPending DeliveryState = "pending"
	// DeliveryConfirmed marks an entry the backend has acknowledged or
	// returned.
	DeliveryConfirmed DeliveryState = "confirmed"
	// DeliveryFailed marks an optimistic entry whose send failed. It
	// stays in the transcript so the failure is visible.
	DeliveryFailed DeliveryState = "failed"
)

// Entry is an in-memory transcript turn. It is distinct from the
// persisted model.Message: entries carry citations and delivery state,
// neither of which survives a reload from the messages endpoint.
type Entry struct {
	ID        int64
	Role      model.Role
	Content   string
	CreatedAt time.Time
	Sources   []model.Source
	State     DeliveryState
}

// entryFromMessage maps a persisted message to a confirmed entry.
// Citations are lost here; the messages endpoint does not return them.
func entryFromMessage(msg model.Message) Entry {
	return Entry{
		ID:        msg.CreatedAt.UnixNano(),
		Role:      msg.Role,
		Content:   msg.Content,
		CreatedAt: msg.CreatedAt,
		State:     DeliveryConfirmed,
	}
}

// deriveTitle truncates the first message of a new chat to 50 runes,
// appending an ellipsis only when something was cut.
func deriveTitle(content string) string {
	const max = 50
	runes := []rune(content)
	if len(runes) <= max {
		return content
	}
	return string(runes[:max]) + "…"
}
