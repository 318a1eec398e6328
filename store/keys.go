package store

import (
	"strings"

	"github.com/google/uuid"
)

// Top-level collections.
const (
	Products = "products"
	Notices  = "notices"
	Users    = "users"
	Banned   = "banned"
	Chats    = "chats"
)

func ListingPath(listingType, id string) string {
	return listingType + "/" + id
}

func ProductPath(id string) string { return Products + "/" + id }
func NoticePath(id string) string  { return Notices + "/" + id }
func UserPath(uid string) string   { return Users + "/" + uid }

func BannedPath(email string) string {
	return Banned + "/" + SanitizeKey(email)
}

// ThreadPath addresses the message thread attached to a listing.
func ThreadPath(listingID string) string {
	return Chats + "/" + listingID
}

var keyReplacer = strings.NewReplacer(
	".", "_",
	"#", "_",
	"$", "_",
	"/", "_",
	"[", "_",
	"]", "_",
)

// SanitizeKey makes an email usable as a path key by replacing the
// characters the store forbids in keys.
func SanitizeKey(email string) string {
	return keyReplacer.Replace(email)
}

// NewID mints a store-generated id.
func NewID() string {
	return strings.ReplaceAll(uuid.NewString(), "-", "")
}
