package chats

import (
	"encoding/json"
	"net/http"
	"sort"
	"strings"
	"time"

	"driza/db"
	"driza/errs"
	"driza/middleware"
	"driza/models"
	"driza/store"
	"driza/utils"

	"github.com/julienschmidt/httprouter"
)

const maxMessageLen = 2000

// Message is one entry in a listing's thread. Threads are keyed by listing
// id and survive the listing itself, like saved mirrors.
type Message struct {
	ID         string `json:"id,omitempty" bson:"_id,omitempty"`
	SenderID   string `json:"senderId" bson:"senderId"`
	SenderName string `json:"senderName,omitempty" bson:"senderName,omitempty"`
	Content    string `json:"content" bson:"content"`
	CreatedAt  int64  `json:"createdAt" bson:"createdAt"`
}

// PostMessage handles POST /api/chats/:id. Any signed-in user may write to
// any listing's thread.
func PostMessage(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	session := middleware.SessionFromContext(r.Context())
	if session.UID == "" {
		utils.RespondWithError(w, http.StatusUnauthorized, "Authentication required")
		return
	}

	var input struct {
		Content string `json:"content"`
	}
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		utils.RespondWithError(w, http.StatusBadRequest, "Invalid input")
		return
	}
	content := strings.TrimSpace(input.Content)
	if content == "" {
		utils.WriteServiceError(w, errs.Invalid("content", "required"))
		return
	}
	if len(content) > maxMessageLen {
		utils.WriteServiceError(w, errs.Invalid("content", "too long"))
		return
	}

	msg := Message{
		ID:         store.NewID(),
		SenderID:   session.UID,
		SenderName: senderName(r, session),
		Content:    content,
		CreatedAt:  time.Now().UnixMilli(),
	}
	listingID := ps.ByName("id")
	if err := db.Store.Set(r.Context(), store.ThreadPath(listingID)+"/"+msg.ID, msg); err != nil {
		utils.RespondWithError(w, http.StatusInternalServerError, "Could not send message")
		return
	}
	utils.SendResponse(w, http.StatusCreated, msg, "Message sent", nil)
}

// GetMessages handles GET /api/chats/:id, oldest first. A listing with no
// thread yet is an empty list, not an error.
func GetMessages(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	session := middleware.SessionFromContext(r.Context())
	if session.UID == "" {
		utils.RespondWithError(w, http.StatusUnauthorized, "Authentication required")
		return
	}

	raw, err := db.Store.Get(r.Context(), store.ThreadPath(ps.ByName("id")))
	if errs.IsNotFound(err) {
		utils.RespondWithJSON(w, http.StatusOK, []Message{})
		return
	}
	if err != nil {
		utils.RespondWithError(w, http.StatusInternalServerError, "Could not load messages")
		return
	}

	var docs map[string]Message
	if err := json.Unmarshal(raw, &docs); err != nil {
		utils.RespondWithError(w, http.StatusInternalServerError, "Could not load messages")
		return
	}

	messages := make([]Message, 0, len(docs))
	for id, m := range docs {
		m.ID = id
		messages = append(messages, m)
	}
	sort.Slice(messages, func(i, j int) bool {
		if messages[i].CreatedAt != messages[j].CreatedAt {
			return messages[i].CreatedAt < messages[j].CreatedAt
		}
		return messages[i].ID < messages[j].ID
	})
	utils.RespondWithJSON(w, http.StatusOK, messages)
}

// senderName snapshots the display name at send time so old messages keep
// the name they were sent under.
func senderName(r *http.Request, session models.Session) string {
	raw, err := db.Store.Get(r.Context(), store.UserPath(session.UID))
	if err == nil {
		var user models.User
		if json.Unmarshal(raw, &user) == nil && user.DisplayName != "" {
			return user.DisplayName
		}
	}
	return session.Email
}
