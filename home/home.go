package home

import (
	"encoding/json"
	"net/http"

	"driza/db"
	"driza/errs"
	"driza/feed"
	"driza/models"
	"driza/rdx"
	"driza/utils"

	"github.com/julienschmidt/httprouter"
)

// GetFeed handles GET /api/home/feed/:type. With ?organization=only the
// normal tier is restricted to listings carrying a real organization tag;
// promoted tiers always show everything.
func GetFeed(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	listingType := ps.ByName("type")
	if !models.ValidListingType(listingType) {
		utils.RespondWithError(w, http.StatusBadRequest, "Unknown listing type")
		return
	}

	orgOnly := r.URL.Query().Get("organization") == "only"
	variant := "all"
	if orgOnly {
		variant = "org"
	}

	if cached, ok := rdx.CachedFeed(listingType, variant); ok {
		utils.RespondWithJSON(w, http.StatusOK, cached)
		return
	}

	listings, err := loadCollection(r, listingType)
	if err != nil {
		utils.RespondWithError(w, http.StatusInternalServerError, "Could not load feed")
		return
	}

	view := feed.Compose(listings, orgOnly)
	rdx.CacheFeed(listingType, variant, view)
	utils.RespondWithJSON(w, http.StatusOK, view)
}

func loadCollection(r *http.Request, listingType string) ([]models.Listing, error) {
	raw, err := db.Store.Get(r.Context(), listingType)
	if errs.IsNotFound(err) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	var docs map[string]models.Listing
	if err := json.Unmarshal(raw, &docs); err != nil {
		return nil, err
	}

	listings := make([]models.Listing, 0, len(docs))
	for id, l := range docs {
		l.ID = id
		l.Type = listingType
		listings = append(listings, l)
	}
	return listings, nil
}
