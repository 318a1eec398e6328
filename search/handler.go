package search

import (
	"net/http"

	"driza/db"
	"driza/middleware"
	"driza/utils"

	"github.com/julienschmidt/httprouter"
)

// ServeSearch handles GET /api/search?q=
func ServeSearch(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	session := middleware.SessionFromContext(r.Context())
	results, err := New(db.Store).Search(r.Context(), session, r.URL.Query().Get("q"))
	if err != nil {
		utils.WriteServiceError(w, err)
		return
	}
	utils.RespondWithJSON(w, http.StatusOK, results)
}
