package moderator

import (
	"context"
	"encoding/json"
	"log"
	"slices"

	"driza/errs"
	"driza/models"
	"driza/store"
)

// RoleModerator is the externally assigned role claim that grants moderation
// capability. There is no hardcoded admin identity anywhere.
const RoleModerator = "moderator"

func IsModerator(session models.Session) bool {
	return slices.Contains(session.Roles, RoleModerator)
}

// Enforcer applies moderation state transitions and the ban cascade. Every
// step of the cascade is idempotent so a partially failed run is repaired by
// simply re-running it.
type Enforcer struct {
	store store.Store
}

func New(st store.Store) *Enforcer {
	return &Enforcer{store: st}
}

// SetEstado moves a listing to a moderation tier. Any tier is reachable from
// any other; setting the current tier again is a no-op success.
func (e *Enforcer) SetEstado(ctx context.Context, session models.Session, listingType, listingID, estado string) error {
	if !IsModerator(session) {
		return errs.ErrPermissionDenied
	}
	if !models.ValidListingType(listingType) {
		return errs.Invalid("type", "must be products or notices")
	}
	if !models.ValidEstado(estado) {
		return errs.Invalid("estado", "must be normal, promoted or super_promoted")
	}

	path := store.ListingPath(listingType, listingID)
	if _, err := e.store.Get(ctx, path); err != nil {
		return err
	}
	return e.store.Update(context.WithoutCancel(ctx), path, map[string]any{"estado": estado})
}

// BanUser removes every listing the user owns, deletes the user record and
// always writes the sanitized-email tombstone, in that order. The tombstone
// is what the sign-in gate consults, so it must exist even when the user
// record was already gone.
func (e *Enforcer) BanUser(ctx context.Context, session models.Session, uid, email string) error {
	if !IsModerator(session) {
		return errs.ErrPermissionDenied
	}
	if uid == "" || email == "" {
		return errs.Invalid("user", "uid and email are required")
	}

	wctx := context.WithoutCancel(ctx)
	if err := e.removeOwnedListings(wctx, uid); err != nil {
		return err
	}

	if err := e.store.Remove(wctx, store.UserPath(uid)); err != nil && !errs.IsNotFound(err) {
		return err
	}

	return e.store.Set(wctx, store.BannedPath(email), models.BanTombstone{Banned: true})
}

// DeleteUserContent is the non-punitive half of the cascade: owned listings
// go, the user record and their sign-in stay.
func (e *Enforcer) DeleteUserContent(ctx context.Context, session models.Session, uid string) error {
	if !IsModerator(session) {
		return errs.ErrPermissionDenied
	}
	if uid == "" {
		return errs.Invalid("user", "uid is required")
	}
	return e.removeOwnedListings(context.WithoutCancel(ctx), uid)
}

// IsBanned checks the tombstone for an email. Consulted by the sign-in gate
// on every attempt, not just account creation.
func (e *Enforcer) IsBanned(ctx context.Context, email string) (bool, error) {
	raw, err := e.store.Get(ctx, store.BannedPath(email))
	if errs.IsNotFound(err) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	var tomb models.BanTombstone
	if err := json.Unmarshal(raw, &tomb); err != nil {
		return false, err
	}
	return tomb.Banned, nil
}

func (e *Enforcer) removeOwnedListings(ctx context.Context, uid string) error {
	for _, collection := range []string{store.Products, store.Notices} {
		raw, err := e.store.Get(ctx, collection)
		if errs.IsNotFound(err) {
			continue
		}
		if err != nil {
			return err
		}
		var docs map[string]models.Listing
		if err := json.Unmarshal(raw, &docs); err != nil {
			return err
		}
		for id, l := range docs {
			if l.OwnerID != uid {
				continue
			}
			if err := e.store.Remove(ctx, collection+"/"+id); err != nil {
				return err
			}
			log.Printf("moderator: removed %s/%s owned by %s", collection, id, uid)
		}
	}
	return nil
}
