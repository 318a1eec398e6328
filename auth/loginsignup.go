package auth

import (
	"context"
	"encoding/json"
	"log"
	"net/http"
	"os"
	"strings"
	"time"

	"driza/db"
	"driza/errs"
	"driza/globals"
	"driza/middleware"
	"driza/models"
	"driza/moderator"
	"driza/rdx"
	"driza/store"
	"driza/utils"

	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/bcrypt"
)

const tokenTTL = 72 * time.Hour

// NoOrganization marks accounts whose email is outside the community domain.
const NoOrganization = "NO"

type credentials struct {
	Email       string `json:"email"`
	Password    string `json:"password"`
	DisplayName string `json:"displayName,omitempty"`
}

// OrgForEmail maps an email to its community organization. Only addresses on
// the configured domain belong to the organization; everyone else is "NO".
func OrgForEmail(email string) string {
	orgDomain := os.Getenv("ORG_DOMAIN")
	if orgDomain == "" {
		orgDomain = "udesa.edu.ar"
	}
	orgName := os.Getenv("ORG_NAME")
	if orgName == "" {
		orgName = "UDESA"
	}
	at := strings.LastIndex(email, "@")
	if at < 0 {
		return NoOrganization
	}
	if strings.EqualFold(email[at+1:], orgDomain) {
		return orgName
	}
	return NoOrganization
}

func registerHandler(w http.ResponseWriter, r *http.Request) {
	var input credentials
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		utils.RespondWithError(w, http.StatusBadRequest, "Invalid input")
		return
	}
	input.Email = strings.ToLower(strings.TrimSpace(input.Email))

	if input.Email == "" || !strings.Contains(input.Email, "@") {
		utils.RespondWithError(w, http.StatusBadRequest, "Valid email is required")
		return
	}
	if len(input.Password) < 6 {
		utils.RespondWithError(w, http.StatusBadRequest, "Password must be at least 6 characters")
		return
	}

	ctx := r.Context()
	if denySanctioned(ctx, w, input.Email) {
		return
	}

	if _, err := findUserByEmail(ctx, input.Email); err == nil {
		utils.RespondWithError(w, http.StatusConflict, "User already exists")
		return
	} else if !errs.IsNotFound(err) {
		utils.RespondWithError(w, http.StatusInternalServerError, "Database error")
		return
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(input.Password), bcrypt.DefaultCost)
	if err != nil {
		log.Printf("Hash error: %v", err)
		utils.RespondWithError(w, http.StatusInternalServerError, "Could not process password")
		return
	}

	now := time.Now().UnixMilli()
	user := models.User{
		UID:          "u" + utils.GenerateRandomString(10),
		Email:        input.Email,
		DisplayName:  input.DisplayName,
		Organization: OrgForEmail(input.Email),
		Roles:        []string{"user"},
		PasswordHash: string(hashed),
		CreatedAt:    now,
		LastLogin:    now,
	}
	if err := db.Store.Set(ctx, store.UserPath(user.UID), user); err != nil {
		utils.RespondWithError(w, http.StatusInternalServerError, "Could not create account")
		return
	}

	token, err := issueToken(user)
	if err != nil {
		utils.RespondWithError(w, http.StatusInternalServerError, "Failed to generate token")
		return
	}
	cacheToken(user.UID, token)

	utils.SendResponse(w, http.StatusCreated, map[string]string{
		"token":  token,
		"userid": user.UID,
	}, "Registration successful", nil)
}

func loginHandler(w http.ResponseWriter, r *http.Request) {
	var input credentials
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		utils.RespondWithError(w, http.StatusBadRequest, "Invalid input")
		return
	}
	input.Email = strings.ToLower(strings.TrimSpace(input.Email))

	if input.Email == "" || input.Password == "" {
		utils.RespondWithError(w, http.StatusBadRequest, "Email and password are required")
		return
	}

	ctx := r.Context()
	if denySanctioned(ctx, w, input.Email) {
		return
	}

	user, err := findUserByEmail(ctx, input.Email)
	if err != nil {
		utils.RespondWithError(w, http.StatusUnauthorized, "Invalid email or password")
		return
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(input.Password)); err != nil {
		utils.RespondWithError(w, http.StatusUnauthorized, "Invalid email or password")
		return
	}

	token, err := issueToken(user)
	if err != nil {
		utils.RespondWithError(w, http.StatusInternalServerError, "Failed to generate token")
		return
	}
	cacheToken(user.UID, token)

	if err := db.Store.Update(ctx, store.UserPath(user.UID), map[string]any{
		"lastLogin": time.Now().UnixMilli(),
	}); err != nil {
		log.Printf("auth: last login update failed for %s: %v", user.UID, err)
	}

	utils.SendResponse(w, http.StatusOK, map[string]string{
		"token":  token,
		"userid": user.UID,
	}, "Login successful", nil)
}

// denySanctioned is the gate every sign-in and registration passes through:
// a banned email never reaches profile or credential handling.
func denySanctioned(ctx context.Context, w http.ResponseWriter, email string) bool {
	banned, err := moderator.New(db.Store).IsBanned(ctx, email)
	if err != nil {
		utils.RespondWithError(w, http.StatusInternalServerError, "Database error")
		return true
	}
	if banned {
		utils.RespondWithError(w, http.StatusForbidden, "Account suspended")
		return true
	}
	return false
}

func findUserByEmail(ctx context.Context, email string) (models.User, error) {
	raw, err := db.Store.Get(ctx, store.Users)
	if err != nil {
		return models.User{}, err
	}
	var users map[string]models.User
	if err := json.Unmarshal(raw, &users); err != nil {
		return models.User{}, err
	}
	for uid, u := range users {
		if strings.EqualFold(u.Email, email) {
			u.UID = uid
			return u, nil
		}
	}
	return models.User{}, errs.ErrNotFound
}

func issueToken(user models.User) (string, error) {
	claims := &middleware.Claims{
		Email:  user.Email,
		UserID: user.UID,
		Role:   user.Roles,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(tokenTTL)),
			IssuedAt:  jwt.NewNumericDate(time.Now()),
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(globals.JwtSecret)
}

func cacheToken(uid, token string) {
	if err := rdx.RdxHset("tokki", uid, token); err != nil && err != rdx.ErrDisabled {
		log.Printf("Redis token storage failed: %v", err)
	}
}
