package rdx

import (
	"encoding/json"
	"errors"
	"log"
	"os"
	"time"

	"driza/globals"

	"github.com/redis/go-redis/v9"
)

// Conn is the shared Redis client. It stays nil when REDIS_URL is not set;
// every helper degrades to a miss/no-op so the server runs without Redis in
// development.
var Conn *redis.Client

var ErrDisabled = errors.New("redis disabled")

func Init() {
	redisURL := os.Getenv("REDIS_URL")
	if redisURL == "" {
		log.Println("REDIS_URL not set; running without cache")
		return
	}
	Conn = redis.NewClient(&redis.Options{
		Addr:     redisURL,
		Password: os.Getenv("REDIS_PASSWORD"),
		DB:       0,
	})
}

func RdxSet(key, value string) error {
	if Conn == nil {
		return ErrDisabled
	}
	return Conn.Set(globals.Ctx, key, value, 0).Err()
}

func RdxGet(key string) (string, error) {
	if Conn == nil {
		return "", ErrDisabled
	}
	return Conn.Get(globals.Ctx, key).Result()
}

func RdxDel(key string) error {
	if Conn == nil {
		return ErrDisabled
	}
	return Conn.Del(globals.Ctx, key).Err()
}

func RdxHset(hash, field, value string) error {
	if Conn == nil {
		return ErrDisabled
	}
	return Conn.HSet(globals.Ctx, hash, field, value).Err()
}

func RdxHdel(hash, field string) error {
	if Conn == nil {
		return ErrDisabled
	}
	return Conn.HDel(globals.Ctx, hash, field).Err()
}

// --- Feed snapshot cache ---

const feedCacheTTL = 60 * time.Second

func feedKey(listingType, variant string) string {
	return "feed:" + listingType + ":" + variant
}

func CacheFeed(listingType, variant string, view any) {
	if Conn == nil {
		return
	}
	data, err := json.Marshal(view)
	if err != nil {
		return
	}
	if err := Conn.Set(globals.Ctx, feedKey(listingType, variant), data, feedCacheTTL).Err(); err != nil {
		log.Printf("rdx: feed cache write failed: %v", err)
	}
}

func CachedFeed(listingType, variant string) (json.RawMessage, bool) {
	if Conn == nil {
		return nil, false
	}
	data, err := Conn.Get(globals.Ctx, feedKey(listingType, variant)).Bytes()
	if err != nil {
		return nil, false
	}
	return data, true
}

// InvalidateFeed drops every cached variant for a listing type.
func InvalidateFeed(listingType string) {
	if Conn == nil {
		return
	}
	keys, err := Conn.Keys(globals.Ctx, feedKey(listingType, "*")).Result()
	if err != nil || len(keys) == 0 {
		return
	}
	if err := Conn.Del(globals.Ctx, keys...).Err(); err != nil {
		log.Printf("rdx: feed invalidation failed: %v", err)
	}
}
