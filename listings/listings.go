package listings

import (
	"encoding/json"
	"net/http"
	"time"

	"driza/auth"
	"driza/db"
	"driza/middleware"
	"driza/models"
	"driza/mq"
	"driza/saves"
	"driza/store"
	"driza/utils"

	"github.com/julienschmidt/httprouter"
)

// CreateListing handles POST /api/listings/:type
func CreateListing(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	listingType := ps.ByName("type")
	if !models.ValidListingType(listingType) {
		utils.RespondWithError(w, http.StatusBadRequest, "Unknown listing type")
		return
	}
	session := middleware.SessionFromContext(r.Context())
	if session.UID == "" {
		utils.RespondWithError(w, http.StatusUnauthorized, "Authentication required")
		return
	}

	var input models.Listing
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		utils.RespondWithError(w, http.StatusBadRequest, "Invalid input")
		return
	}
	if err := validate(input); err != nil {
		utils.WriteServiceError(w, err)
		return
	}

	listing := models.Listing{
		ID:           store.NewID(),
		Type:         listingType,
		Title:        input.Title,
		Description:  input.Description,
		Phone:        input.Phone,
		Email:        session.Email,
		Images:       input.Images,
		CreatedAt:    time.Now().UnixMilli(),
		OwnerID:      session.UID,
		Organization: ownerOrganization(r, session),
	}
	if err := db.Store.Set(r.Context(), store.ListingPath(listingType, listing.ID), listing); err != nil {
		utils.RespondWithError(w, http.StatusInternalServerError, "Could not create listing")
		return
	}

	mq.Emit(r.Context(), mq.Event{Name: "listing_created", ListingType: listingType, ListingID: listing.ID, UserID: session.UID})
	utils.SendResponse(w, http.StatusCreated, listing, "Listing created", nil)
}

// GetListing handles GET /api/listings/:type/:id
func GetListing(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	listingType := ps.ByName("type")
	if !models.ValidListingType(listingType) {
		utils.RespondWithError(w, http.StatusBadRequest, "Unknown listing type")
		return
	}

	listing, err := fetch(r, listingType, ps.ByName("id"))
	if err != nil {
		utils.WriteServiceError(w, err)
		return
	}
	utils.RespondWithJSON(w, http.StatusOK, withSavedCount(listing))
}

// EditListing handles PUT /api/listings/:type/:id. Owner only.
func EditListing(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	listingType := ps.ByName("type")
	if !models.ValidListingType(listingType) {
		utils.RespondWithError(w, http.StatusBadRequest, "Unknown listing type")
		return
	}
	session := middleware.SessionFromContext(r.Context())
	id := ps.ByName("id")

	listing, err := fetch(r, listingType, id)
	if err != nil {
		utils.WriteServiceError(w, err)
		return
	}
	if listing.OwnerID != session.UID {
		utils.RespondWithError(w, http.StatusForbidden, "Not your listing")
		return
	}

	var input models.Listing
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		utils.RespondWithError(w, http.StatusBadRequest, "Invalid input")
		return
	}
	if err := validate(input); err != nil {
		utils.WriteServiceError(w, err)
		return
	}

	fields := map[string]any{
		"title":       input.Title,
		"description": input.Description,
		"phone":       input.Phone,
	}
	if input.Images != nil {
		fields["images"] = input.Images
	}
	if err := db.Store.Update(r.Context(), store.ListingPath(listingType, id), fields); err != nil {
		utils.RespondWithError(w, http.StatusInternalServerError, "Could not update listing")
		return
	}

	mq.Emit(r.Context(), mq.Event{Name: "listing_updated", ListingType: listingType, ListingID: id, UserID: session.UID})
	utils.SendResponse(w, http.StatusOK, nil, "Listing updated", nil)
}

// DeleteListing handles DELETE /api/listings/:type/:id. Owner only. Saved
// mirrors pointing at the deleted listing go stale and are filtered at read.
func DeleteListing(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	listingType := ps.ByName("type")
	if !models.ValidListingType(listingType) {
		utils.RespondWithError(w, http.StatusBadRequest, "Unknown listing type")
		return
	}
	session := middleware.SessionFromContext(r.Context())
	id := ps.ByName("id")

	listing, err := fetch(r, listingType, id)
	if err != nil {
		utils.WriteServiceError(w, err)
		return
	}
	if listing.OwnerID != session.UID {
		utils.RespondWithError(w, http.StatusForbidden, "Not your listing")
		return
	}

	if err := db.Store.Remove(r.Context(), store.ListingPath(listingType, id)); err != nil {
		utils.RespondWithError(w, http.StatusInternalServerError, "Could not delete listing")
		return
	}

	mq.Emit(r.Context(), mq.Event{Name: "listing_deleted", ListingType: listingType, ListingID: id, UserID: session.UID})
	utils.SendResponse(w, http.StatusOK, nil, "Listing deleted", nil)
}

// ToggleSave handles POST /api/listings/:type/:id/save
func ToggleSave(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	session := middleware.SessionFromContext(r.Context())

	state, err := saves.New(db.Store).ToggleSave(r.Context(), session, ps.ByName("type"), ps.ByName("id"))
	if err != nil {
		utils.WriteServiceError(w, err)
		return
	}
	utils.RespondWithJSON(w, http.StatusOK, utils.M{"state": state})
}

func fetch(r *http.Request, listingType, id string) (models.Listing, error) {
	raw, err := db.Store.Get(r.Context(), store.ListingPath(listingType, id))
	if err != nil {
		return models.Listing{}, err
	}
	var listing models.Listing
	if err := json.Unmarshal(raw, &listing); err != nil {
		return models.Listing{}, err
	}
	listing.ID = id
	listing.Type = listingType
	return listing, nil
}

// ownerOrganization prefers the stored profile organization and falls back
// to deriving it from the session email.
func ownerOrganization(r *http.Request, session models.Session) string {
	raw, err := db.Store.Get(r.Context(), store.UserPath(session.UID))
	if err == nil {
		var user models.User
		if json.Unmarshal(raw, &user) == nil && user.Organization != "" {
			return user.Organization
		}
	}
	return auth.OrgForEmail(session.Email)
}

func withSavedCount(l models.Listing) utils.M {
	return utils.M{
		"listing":    l,
		"savedCount": l.SavedCount(),
	}
}
