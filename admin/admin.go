package admin

import (
	"encoding/json"
	"net/http"
	"strings"

	"driza/db"
	"driza/errs"
	"driza/middleware"
	"driza/models"
	"driza/moderator"
	"driza/mq"
	"driza/search"
	"driza/store"
	"driza/utils"

	"github.com/julienschmidt/httprouter"
)

// SearchListings handles GET /admin/search?q=. Moderators use it to locate
// a listing by text or exact id before acting on it.
func SearchListings(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	if deny(w, r) {
		return
	}

	results, err := search.New(db.Store).Search(r.Context(), middleware.SessionFromContext(r.Context()), r.URL.Query().Get("q"))
	if err != nil {
		utils.WriteServiceError(w, err)
		return
	}
	utils.RespondWithJSON(w, http.StatusOK, results)
}

// GetUsers handles GET /admin/users?email=&uid= — all users, or the ones
// matching the filters.
func GetUsers(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	if deny(w, r) {
		return
	}

	raw, err := db.Store.Get(r.Context(), store.Users)
	if errs.IsNotFound(err) {
		utils.RespondWithJSON(w, http.StatusOK, []models.User{})
		return
	}
	if err != nil {
		utils.RespondWithError(w, http.StatusInternalServerError, "Failed to fetch users")
		return
	}

	var docs map[string]models.User
	if err := json.Unmarshal(raw, &docs); err != nil {
		utils.RespondWithError(w, http.StatusInternalServerError, "Error processing users")
		return
	}

	emailFilter := strings.TrimSpace(r.URL.Query().Get("email"))
	uidFilter := strings.TrimSpace(r.URL.Query().Get("uid"))
	users := []models.User{}
	for uid, u := range docs {
		if emailFilter != "" && !strings.EqualFold(u.Email, emailFilter) {
			continue
		}
		if uidFilter != "" && uid != uidFilter {
			continue
		}
		u.UID = uid
		users = append(users, u.Public())
	}
	utils.RespondWithJSON(w, http.StatusOK, users)
}

// SetEstado handles PUT /admin/listings/:type/:id/estado
func SetEstado(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	session := middleware.SessionFromContext(r.Context())

	var input struct {
		Estado string `json:"estado"`
	}
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		utils.RespondWithError(w, http.StatusBadRequest, "Invalid input")
		return
	}

	listingType := ps.ByName("type")
	id := ps.ByName("id")
	if err := moderator.New(db.Store).SetEstado(r.Context(), session, listingType, id, input.Estado); err != nil {
		utils.WriteServiceError(w, err)
		return
	}

	mq.Emit(r.Context(), mq.Event{Name: "estado_changed", ListingType: listingType, ListingID: id, UserID: session.UID})
	utils.SendResponse(w, http.StatusOK, nil, "Estado updated", nil)
}

// BanUser handles POST /admin/users/:uid/ban. The tombstone is keyed by
// email; when the profile is already gone the caller supplies it in the
// body so a rerun still lands the tombstone.
func BanUser(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	session := middleware.SessionFromContext(r.Context())
	uid := ps.ByName("uid")

	var input struct {
		Email string `json:"email"`
	}
	if r.Body != nil {
		json.NewDecoder(r.Body).Decode(&input)
	}
	email := input.Email
	if email == "" {
		raw, err := db.Store.Get(r.Context(), store.UserPath(uid))
		if err != nil && !errs.IsNotFound(err) {
			utils.RespondWithError(w, http.StatusInternalServerError, "Failed to fetch user")
			return
		}
		if err == nil {
			var u models.User
			if json.Unmarshal(raw, &u) == nil {
				email = u.Email
			}
		}
	}
	if email == "" {
		utils.RespondWithError(w, http.StatusBadRequest, "Email required to ban user")
		return
	}

	if err := moderator.New(db.Store).BanUser(r.Context(), session, uid, email); err != nil {
		utils.WriteServiceError(w, err)
		return
	}

	mq.Emit(r.Context(), mq.Event{Name: "user_banned", UserID: uid})
	utils.SendResponse(w, http.StatusOK, nil, "User banned", nil)
}

// DeleteUserContent handles DELETE /admin/users/:uid/content: removes every
// listing the user published but keeps the account.
func DeleteUserContent(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	session := middleware.SessionFromContext(r.Context())
	uid := ps.ByName("uid")

	if err := moderator.New(db.Store).DeleteUserContent(r.Context(), session, uid); err != nil {
		utils.WriteServiceError(w, err)
		return
	}

	mq.Emit(r.Context(), mq.Event{Name: "user_content_deleted", UserID: uid})
	utils.SendResponse(w, http.StatusOK, nil, "User content deleted", nil)
}

// deny rejects callers without the moderator role. Service methods check the
// session again; this just fails fast on the read-only endpoints.
func deny(w http.ResponseWriter, r *http.Request) bool {
	session := middleware.SessionFromContext(r.Context())
	if !moderator.IsModerator(session) {
		utils.RespondWithError(w, http.StatusForbidden, "Moderator role required")
		return true
	}
	return false
}
