package mq

import (
	"context"
	"encoding/json"
	"log"

	"driza/rdx"
)

const channel = "listing-events"

// Event describes a change that other parts of the system may care about:
// listing lifecycle, estado transitions, bans.
type Event struct {
	Name        string `json:"name"`
	ListingType string `json:"listing_type,omitempty"`
	ListingID   string `json:"listing_id,omitempty"`
	UserID      string `json:"user_id,omitempty"`
}

// Emit publishes the event on the Redis channel. Best effort: a missing or
// unreachable Redis only costs cache freshness, never correctness.
func Emit(ctx context.Context, ev Event) {
	if rdx.Conn == nil {
		return
	}
	data, err := json.Marshal(ev)
	if err != nil {
		log.Printf("mq: marshal event: %v", err)
		return
	}
	if err := rdx.Conn.Publish(ctx, channel, data).Err(); err != nil {
		log.Printf("mq: publish %s: %v", ev.Name, err)
	}
}

// StartFeedCacheWorker drops cached feed snapshots whenever a listing in the
// affected collection changes. Runs until the process exits.
func StartFeedCacheWorker() {
	if rdx.Conn == nil {
		return
	}
	ctx := context.Background()
	sub := rdx.Conn.Subscribe(ctx, channel)

	go func() {
		for msg := range sub.Channel() {
			var ev Event
			if err := json.Unmarshal([]byte(msg.Payload), &ev); err != nil {
				log.Printf("mq: bad event payload: %v", err)
				continue
			}
			if ev.ListingType != "" {
				rdx.InvalidateFeed(ev.ListingType)
			} else {
				// bans touch both collections
				rdx.InvalidateFeed("products")
				rdx.InvalidateFeed("notices")
			}
		}
	}()
}
