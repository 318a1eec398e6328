package search

import (
	"context"
	"encoding/json"
	"sort"
	"strings"

	"driza/errs"
	"driza/models"
	"driza/store"
)

// Scanner runs substring search straight over collection snapshots. There is
// no inverted index and no ranking: both collections are scanned in full and
// every match is returned, grouped by listing type.
type Scanner struct {
	store store.Store
}

func New(st store.Store) *Scanner {
	return &Scanner{store: st}
}

// Search matches query case-insensitively against title and description; an
// exact id match also qualifies, which is how admins look listings up by id.
// Listings missing either text field are simply non-matching on that field.
// The session identifies the caller; only signed-in users may scan.
func (sc *Scanner) Search(ctx context.Context, session models.Session, query string) (models.SearchResults, error) {
	if session.UID == "" {
		return models.SearchResults{}, errs.ErrPermissionDenied
	}
	if strings.TrimSpace(query) == "" {
		return models.SearchResults{}, errs.Invalid("query", "empty")
	}
	needle := strings.ToLower(query)

	products, err := sc.scanCollection(ctx, store.Products, query, needle)
	if err != nil {
		return models.SearchResults{}, err
	}
	notices, err := sc.scanCollection(ctx, store.Notices, query, needle)
	if err != nil {
		return models.SearchResults{}, err
	}

	return models.SearchResults{Products: products, Notices: notices}, nil
}

func (sc *Scanner) scanCollection(ctx context.Context, collection, query, needle string) ([]models.Listing, error) {
	out := []models.Listing{}

	raw, err := sc.store.Get(ctx, collection)
	if errs.IsNotFound(err) {
		return out, nil
	}
	if err != nil {
		return nil, err
	}

	var docs map[string]models.Listing
	if err := json.Unmarshal(raw, &docs); err != nil {
		return nil, err
	}

	for id, l := range docs {
		if id != query && !matches(l.Title, needle) && !matches(l.Description, needle) {
			continue
		}
		l.ID = id
		l.Type = collection
		out = append(out, l)
	}

	sort.Slice(out, func(i, j int) bool {
		if out[i].CreatedAt != out[j].CreatedAt {
			return out[i].CreatedAt > out[j].CreatedAt
		}
		return out[i].ID < out[j].ID
	})
	return out, nil
}

func matches(field, needle string) bool {
	if field == "" {
		return false
	}
	return strings.Contains(strings.ToLower(field), needle)
}
