package auth

import (
	"net/http"

	"driza/globals"
	"driza/rdx"
	"driza/utils"

	"github.com/julienschmidt/httprouter"
)

// Logout handles POST /api/auth/logout
func Logout(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	uid, ok := r.Context().Value(globals.UserIDKey).(string)
	if !ok || uid == "" {
		utils.RespondWithError(w, http.StatusUnauthorized, "No session")
		return
	}

	// drop the cached token; the JWT itself just expires
	if err := rdx.RdxHdel("tokki", uid); err != nil && err != rdx.ErrDisabled {
		utils.RespondWithError(w, http.StatusInternalServerError, "Failed to invalidate session")
		return
	}

	utils.SendResponse(w, http.StatusOK, nil, "Logged out successfully", nil)
}
