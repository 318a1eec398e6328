package saves

import (
	"context"
	"encoding/json"
	"log"
	"sort"

	"driza/errs"
	"driza/models"
	"driza/store"
)

// Synchronizer keeps the two halves of the save index mirrored: a listing's
// savedBy membership and the owner user's savedPosts map live at different
// paths and the store offers no cross-path transaction, so writes are
// sequenced listing-side first and compensated when the mirror fails.
type Synchronizer struct {
	store store.Store
}

func New(st store.Store) *Synchronizer {
	return &Synchronizer{store: st}
}

// ToggleSave flips the saved state of (session.UID, listing). The listing
// side is written first and verified, then the user mirror; the mirror write
// gets one retry, after which the listing side is rolled back and the caller
// sees a PartialWriteError. If even the rollback fails the pair is reported
// as a DesyncError carrying both identifiers.
func (s *Synchronizer) ToggleSave(ctx context.Context, session models.Session, listingType, listingID string) (models.SavedState, error) {
	if !models.ValidListingType(listingType) {
		return "", errs.Invalid("type", "must be products or notices")
	}
	if session.UID == "" {
		return "", errs.ErrPermissionDenied
	}

	listingPath := store.ListingPath(listingType, listingID)
	raw, err := s.store.Get(ctx, listingPath)
	if err != nil {
		return "", err
	}
	var listing models.Listing
	if err := store.Decode(raw, &listing); err != nil {
		return "", err
	}

	saving := !listing.SavedBy[session.UID]

	memberKey := "savedBy/" + session.UID
	mirrorKey := "savedPosts/" + listingID

	var memberWrite, memberRevert, mirrorWrite map[string]any
	if saving {
		memberWrite = map[string]any{memberKey: true}
		memberRevert = map[string]any{memberKey: nil}
		mirrorWrite = map[string]any{mirrorKey: listingType}
	} else {
		memberWrite = map[string]any{memberKey: nil}
		memberRevert = map[string]any{memberKey: true}
		mirrorWrite = map[string]any{mirrorKey: nil}
	}

	// Writes must run to completion even if the caller goes away mid-toggle.
	wctx := context.WithoutCancel(ctx)

	if err := s.store.Update(wctx, listingPath, memberWrite); err != nil {
		return "", err
	}

	userPath := store.UserPath(session.UID)
	err = s.store.Update(wctx, userPath, mirrorWrite)
	if err != nil {
		log.Printf("saves: mirror write failed for %s/%s, retrying: %v", listingID, session.UID, err)
		err = s.store.Update(wctx, userPath, mirrorWrite)
	}
	if err != nil {
		if rerr := s.store.Update(wctx, listingPath, memberRevert); rerr != nil {
			return "", &errs.DesyncError{ListingID: listingID, UserID: session.UID, Err: rerr}
		}
		return "", &errs.PartialWriteError{ListingID: listingID, UserID: session.UID, Err: err}
	}

	if saving {
		return models.StateSaved, nil
	}
	return models.StateUnsaved, nil
}

// SavedListings resolves the session user's saved index against the live
// collections. Entries whose target listing no longer exists are stale
// mirrors and are silently skipped, never an error.
func (s *Synchronizer) SavedListings(ctx context.Context, session models.Session) ([]models.Listing, error) {
	raw, err := s.store.Get(ctx, store.UserPath(session.UID))
	if err != nil {
		return nil, err
	}
	var user models.User
	if err := store.Decode(raw, &user); err != nil {
		return nil, err
	}

	out := make([]models.Listing, 0, len(user.SavedPosts))
	for listingID, listingType := range user.SavedPosts {
		if !models.ValidListingType(listingType) {
			continue
		}
		lraw, err := s.store.Get(ctx, store.ListingPath(listingType, listingID))
		if errs.IsNotFound(err) {
			continue
		}
		if err != nil {
			return nil, err
		}
		var listing models.Listing
		if err := json.Unmarshal(lraw, &listing); err != nil {
			continue
		}
		listing.ID = listingID
		listing.Type = listingType
		out = append(out, listing)
	}

	sort.Slice(out, func(i, j int) bool {
		if out[i].CreatedAt != out[j].CreatedAt {
			return out[i].CreatedAt > out[j].CreatedAt
		}
		return out[i].ID < out[j].ID
	})
	return out, nil
}
