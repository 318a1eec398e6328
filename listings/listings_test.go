package listings

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"driza/db"
	"driza/globals"
	"driza/memstore"
	"driza/models"
	"driza/store"

	"github.com/julienschmidt/httprouter"
)

func TestValidate(t *testing.T) {
	ok := models.Listing{Title: "Bici", Description: "rodado 28", Phone: "1122334455"}

	cases := []struct {
		name    string
		mutate  func(*models.Listing)
		wantErr bool
	}{
		{"valid", func(l *models.Listing) {}, false},
		{"empty title", func(l *models.Listing) { l.Title = "  " }, true},
		{"title too long", func(l *models.Listing) { l.Title = strings.Repeat("a", 66) }, true},
		{"title at limit", func(l *models.Listing) { l.Title = strings.Repeat("a", 65) }, false},
		{"empty description", func(l *models.Listing) { l.Description = "" }, true},
		{"description too long", func(l *models.Listing) { l.Description = strings.Repeat("a", 4001) }, true},
		{"phone too short", func(l *models.Listing) { l.Phone = "123456789" }, true},
		{"phone with letters", func(l *models.Listing) { l.Phone = "11223344xx" }, true},
		{"phone at max", func(l *models.Listing) { l.Phone = strings.Repeat("1", 20) }, false},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			l := ok
			c.mutate(&l)
			err := validate(l)
			if (err != nil) != c.wantErr {
				t.Errorf("validate = %v, wantErr %v", err, c.wantErr)
			}
		})
	}
}

func authedRequest(method, target, body, uid, email string) *http.Request {
	req := httptest.NewRequest(method, target, strings.NewReader(body))
	ctx := context.WithValue(req.Context(), globals.UserIDKey, uid)
	ctx = context.WithValue(ctx, globals.EmailKey, email)
	return req.WithContext(ctx)
}

func TestCreateRequiresSession(t *testing.T) {
	ms := memstore.New()
	db.Init(ms)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/listings/products",
		strings.NewReader(`{"title":"Bici","description":"rodado 28","phone":"1122334455"}`))
	CreateListing(w, req, httprouter.Params{{Key: "type", Value: "products"}})
	if w.Code != http.StatusUnauthorized {
		t.Fatalf("status = %d, want 401", w.Code)
	}
	if _, err := ms.Get(context.Background(), "products"); err == nil {
		t.Error("unauthenticated request persisted a listing")
	}
}

func TestCreateAndGetListing(t *testing.T) {
	db.Init(memstore.New())

	w := httptest.NewRecorder()
	req := authedRequest(http.MethodPost, "/api/listings/products",
		`{"title":"Bici","description":"rodado 28","phone":"1122334455"}`, "u1", "ana@udesa.edu.ar")
	CreateListing(w, req, httprouter.Params{{Key: "type", Value: "products"}})
	if w.Code != http.StatusCreated {
		t.Fatalf("create status = %d, body %s", w.Code, w.Body.String())
	}

	var resp struct {
		Data models.Listing `json:"data"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatal(err)
	}
	created := resp.Data
	if created.ID == "" || created.OwnerID != "u1" {
		t.Fatalf("created = %+v", created)
	}
	if created.Organization != "UDESA" {
		t.Errorf("organization = %q, want UDESA", created.Organization)
	}

	w = httptest.NewRecorder()
	GetListing(w, httptest.NewRequest(http.MethodGet, "/", nil),
		httprouter.Params{{Key: "type", Value: "products"}, {Key: "id", Value: created.ID}})
	if w.Code != http.StatusOK {
		t.Fatalf("get status = %d", w.Code)
	}
}

func TestEditRequiresOwner(t *testing.T) {
	ms := memstore.New()
	db.Init(ms)
	ctx := context.Background()
	ms.Set(ctx, store.ProductPath("p1"), models.Listing{Title: "Mesa", Description: "de luz", Phone: "1122334455", OwnerID: "u1"})

	w := httptest.NewRecorder()
	req := authedRequest(http.MethodPut, "/api/listings/products/p1",
		`{"title":"Mesa ratona","description":"de luz","phone":"1122334455"}`, "u2", "otro@gmail.com")
	EditListing(w, req, httprouter.Params{{Key: "type", Value: "products"}, {Key: "id", Value: "p1"}})
	if w.Code != http.StatusForbidden {
		t.Fatalf("edit by non-owner status = %d, want 403", w.Code)
	}

	w = httptest.NewRecorder()
	req = authedRequest(http.MethodPut, "/api/listings/products/p1",
		`{"title":"Mesa ratona","description":"de luz","phone":"1122334455"}`, "u1", "ana@udesa.edu.ar")
	EditListing(w, req, httprouter.Params{{Key: "type", Value: "products"}, {Key: "id", Value: "p1"}})
	if w.Code != http.StatusOK {
		t.Fatalf("edit by owner status = %d, body %s", w.Code, w.Body.String())
	}

	raw, err := ms.Get(ctx, "products/p1/title")
	if err != nil {
		t.Fatal(err)
	}
	if string(raw) != `"Mesa ratona"` {
		t.Errorf("title = %s, want \"Mesa ratona\"", raw)
	}
}

func TestDeleteRequiresOwner(t *testing.T) {
	ms := memstore.New()
	db.Init(ms)
	ctx := context.Background()
	ms.Set(ctx, store.NoticePath("n1"), models.Listing{Title: "Aviso", Description: "x", Phone: "1122334455", OwnerID: "u1"})

	w := httptest.NewRecorder()
	DeleteListing(w, authedRequest(http.MethodDelete, "/", "", "u2", "otro@gmail.com"),
		httprouter.Params{{Key: "type", Value: "notices"}, {Key: "id", Value: "n1"}})
	if w.Code != http.StatusForbidden {
		t.Fatalf("delete by non-owner status = %d, want 403", w.Code)
	}

	w = httptest.NewRecorder()
	DeleteListing(w, authedRequest(http.MethodDelete, "/", "", "u1", "ana@udesa.edu.ar"),
		httprouter.Params{{Key: "type", Value: "notices"}, {Key: "id", Value: "n1"}})
	if w.Code != http.StatusOK {
		t.Fatalf("delete by owner status = %d", w.Code)
	}
	if _, err := ms.Get(ctx, "notices/n1"); err == nil {
		t.Error("listing still present after delete")
	}
}
