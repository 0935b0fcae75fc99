// Package events carries view registrations over RabbitMQ so they run outside the request path.
package events

import (
	"encoding/json"
	"fmt"
	"strconv"
	"time"
)

const (
	// ViewExchange is a durable topic exchange.
	ViewExchange = "post_views"
	// ViewQueue is the durable queue the view worker consumes.
	ViewQueue = "post_views.register"
	// ViewBinding matches every routing key produced by RoutingKey.
	ViewBinding = "post.*"
)

// ViewEvent 一次待登记的文章浏览。
type ViewEvent struct {
	PostID        uint      `json:"post_id"`
	ClientAddress string    `json:"client_address"`
	OccurredAt    time.Time `json:"occurred_at"`
}

// RoutingKey returns post.<id>.
func RoutingKey(postID uint) string {
	return "post." + strconv.FormatUint(uint64(postID), 10)
}

func encodeViewEvent(event ViewEvent) ([]byte, error) {
	body, err := json.Marshal(event)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal view event: %w", err)
	}
	return body, nil
}

func decodeViewEvent(body []byte) (ViewEvent, error) {
	var event ViewEvent
	if err := json.Unmarshal(body, &event); err != nil {
		return ViewEvent{}, fmt.Errorf("failed to unmarshal view event: %w", err)
	}
	if event.PostID == 0 || event.ClientAddress == "" {
		return ViewEvent{}, fmt.Errorf("incomplete view event: %s", body)
	}
	return event, nil
}
