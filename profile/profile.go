package profile

import (
	"encoding/json"
	"net/http"
	"sort"

	"driza/db"
	"driza/errs"
	"driza/middleware"
	"driza/models"
	"driza/saves"
	"driza/store"
	"driza/utils"

	"github.com/julienschmidt/httprouter"
)

// requireSession rejects requests that carry no authenticated user. The
// router always wraps these handlers in Authenticate; this keeps a bare
// session from ever reaching the users path.
func requireSession(w http.ResponseWriter, r *http.Request) (models.Session, bool) {
	session := middleware.SessionFromContext(r.Context())
	if session.UID == "" {
		utils.RespondWithError(w, http.StatusUnauthorized, "Authentication required")
		return models.Session{}, false
	}
	return session, true
}

// GetProfile handles GET /api/profile
func GetProfile(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	session, ok := requireSession(w, r)
	if !ok {
		return
	}

	raw, err := db.Store.Get(r.Context(), store.UserPath(session.UID))
	if err != nil {
		utils.WriteServiceError(w, err)
		return
	}
	var user models.User
	if err := json.Unmarshal(raw, &user); err != nil {
		utils.RespondWithError(w, http.StatusInternalServerError, "Corrupt profile")
		return
	}
	user.UID = session.UID
	utils.RespondWithJSON(w, http.StatusOK, user.Public())
}

// EditProfile handles PUT /api/profile. Only the display name is editable;
// email and organization are fixed at registration.
func EditProfile(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	session, ok := requireSession(w, r)
	if !ok {
		return
	}

	var input struct {
		DisplayName string `json:"displayName"`
	}
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		utils.RespondWithError(w, http.StatusBadRequest, "Invalid input")
		return
	}

	if err := db.Store.Update(r.Context(), store.UserPath(session.UID), map[string]any{
		"displayName": input.DisplayName,
	}); err != nil {
		utils.RespondWithError(w, http.StatusInternalServerError, "Could not update profile")
		return
	}
	utils.SendResponse(w, http.StatusOK, nil, "Profile updated", nil)
}

// GetOwnedListings handles GET /api/profile/listings: everything the caller
// published, across both collections, newest first.
func GetOwnedListings(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	session, ok := requireSession(w, r)
	if !ok {
		return
	}

	owned := []models.Listing{}
	for _, collection := range []string{store.Products, store.Notices} {
		raw, err := db.Store.Get(r.Context(), collection)
		if errs.IsNotFound(err) {
			continue
		}
		if err != nil {
			utils.RespondWithError(w, http.StatusInternalServerError, "Could not load listings")
			return
		}
		var docs map[string]models.Listing
		if err := json.Unmarshal(raw, &docs); err != nil {
			utils.RespondWithError(w, http.StatusInternalServerError, "Could not load listings")
			return
		}
		for id, l := range docs {
			if l.OwnerID != session.UID {
				continue
			}
			l.ID = id
			l.Type = collection
			owned = append(owned, l)
		}
	}

	sort.Slice(owned, func(i, j int) bool {
		if owned[i].CreatedAt != owned[j].CreatedAt {
			return owned[i].CreatedAt > owned[j].CreatedAt
		}
		return owned[i].ID < owned[j].ID
	})
	utils.RespondWithJSON(w, http.StatusOK, owned)
}

// GetSavedListings handles GET /api/profile/saved. Stale saved references
// are dropped silently.
func GetSavedListings(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	session, ok := requireSession(w, r)
	if !ok {
		return
	}

	listings, err := saves.New(db.Store).SavedListings(r.Context(), session)
	if err != nil {
		utils.WriteServiceError(w, err)
		return
	}
	utils.RespondWithJSON(w, http.StatusOK, listings)
}
