package models

// Listing type tags double as store collection names.
const (
	TypeProducts = "products"
	TypeNotices  = "notices"
)

// Moderation tiers.
const (
	EstadoNormal        = "normal"
	EstadoPromoted      = "promoted"
	EstadoSuperPromoted = "super_promoted"
)

func ValidListingType(t string) bool {
	return t == TypeProducts || t == TypeNotices
}

func ValidEstado(e string) bool {
	return e == EstadoNormal || e == EstadoPromoted || e == EstadoSuperPromoted
}

type Listing struct {
	ID           string          `json:"id,omitempty" bson:"_id,omitempty"`
	Type         string          `json:"type" bson:"type"`
	Title        string          `json:"title" bson:"title"`
	Description  string          `json:"description" bson:"description"`
	Phone        string          `json:"phone" bson:"phone"`
	Email        string          `json:"email" bson:"email"`
	Images       []string        `json:"images,omitempty" bson:"images,omitempty"`
	CreatedAt    int64           `json:"createdAt" bson:"createdAt"`
	OwnerID      string          `json:"ownerId" bson:"ownerId"`
	Organization string          `json:"organization" bson:"organization"`
	Estado       string          `json:"estado,omitempty" bson:"estado,omitempty"`
	SavedBy      map[string]bool `json:"savedBy,omitempty" bson:"savedBy,omitempty"`
}

// SavedCount is always derived from savedBy, never stored.
func (l Listing) SavedCount() int { return len(l.SavedBy) }

// Tier treats a missing estado as normal, matching legacy records that
// predate the field.
func (l Listing) Tier() string {
	if l.Estado == "" {
		return EstadoNormal
	}
	return l.Estado
}

type User struct {
	UID          string            `json:"uid,omitempty" bson:"_id,omitempty"`
	Email        string            `json:"email" bson:"email"`
	DisplayName  string            `json:"displayName" bson:"displayName"`
	Organization string            `json:"organization" bson:"organization"`
	Roles        []string          `json:"roles,omitempty" bson:"roles,omitempty"`
	PasswordHash string            `json:"passwordHash,omitempty" bson:"passwordHash,omitempty"`
	SavedPosts   map[string]string `json:"savedPosts,omitempty" bson:"savedPosts,omitempty"`
	CreatedAt    int64             `json:"createdAt,omitempty" bson:"createdAt,omitempty"`
	LastLogin    int64             `json:"lastLogin,omitempty" bson:"lastLogin,omitempty"`
}

// Public strips credentials before a user record leaves the API.
func (u User) Public() User {
	u.PasswordHash = ""
	return u
}

type BanTombstone struct {
	Banned bool `json:"banned" bson:"banned"`
}

// Session is the capability object threaded into every service operation.
// There is no ambient current-user state anywhere in the core.
type Session struct {
	UID   string
	Email string
	Roles []string
}

type SavedState string

const (
	StateSaved   SavedState = "saved"
	StateUnsaved SavedState = "unsaved"
)

// FeedView is the ordered grouping produced by the composer. Rows are
// display order: super promoted first, then promoted, then the three
// round-robin normal rows. Pagination is the consumer's problem.
type FeedView struct {
	SuperPromoted []Listing   `json:"superPromoted"`
	Promoted      []Listing   `json:"promoted"`
	NormalRows    [][]Listing `json:"normalRows"`
}

type SearchResults struct {
	Products []Listing `json:"products"`
	Notices  []Listing `json:"notices"`
}
