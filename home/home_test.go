package home

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"driza/db"
	"driza/memstore"
	"driza/models"
	"driza/store"

	"github.com/julienschmidt/httprouter"
)

func TestGetFeedGroupsTiers(t *testing.T) {
	ms := memstore.New()
	db.Init(ms)
	ctx := context.Background()
	ms.Set(ctx, store.ProductPath("p1"), models.Listing{Title: "a", Estado: models.EstadoSuperPromoted, CreatedAt: 3})
	ms.Set(ctx, store.ProductPath("p2"), models.Listing{Title: "b", Estado: models.EstadoPromoted, CreatedAt: 2})
	ms.Set(ctx, store.ProductPath("p3"), models.Listing{Title: "c", CreatedAt: 1})

	w := httptest.NewRecorder()
	GetFeed(w, httptest.NewRequest(http.MethodGet, "/api/home/feed/products", nil),
		httprouter.Params{{Key: "type", Value: "products"}})
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d", w.Code)
	}

	var view models.FeedView
	if err := json.Unmarshal(w.Body.Bytes(), &view); err != nil {
		t.Fatal(err)
	}
	if len(view.SuperPromoted) != 1 || view.SuperPromoted[0].ID != "p1" {
		t.Errorf("superPromoted = %+v", view.SuperPromoted)
	}
	if len(view.Promoted) != 1 || view.Promoted[0].ID != "p2" {
		t.Errorf("promoted = %+v", view.Promoted)
	}
	if len(view.NormalRows) != 3 || len(view.NormalRows[0]) != 1 {
		t.Errorf("normalRows = %+v", view.NormalRows)
	}
}

func TestGetFeedOrganizationVariant(t *testing.T) {
	ms := memstore.New()
	db.Init(ms)
	ctx := context.Background()
	ms.Set(ctx, store.NoticePath("n1"), models.Listing{Title: "a", Organization: "UDESA", CreatedAt: 2})
	ms.Set(ctx, store.NoticePath("n2"), models.Listing{Title: "b", Organization: "NO", CreatedAt: 1})

	w := httptest.NewRecorder()
	GetFeed(w, httptest.NewRequest(http.MethodGet, "/api/home/feed/notices?organization=only", nil),
		httprouter.Params{{Key: "type", Value: "notices"}})
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d", w.Code)
	}

	var view models.FeedView
	if err := json.Unmarshal(w.Body.Bytes(), &view); err != nil {
		t.Fatal(err)
	}
	total := 0
	for _, row := range view.NormalRows {
		for _, l := range row {
			if l.ID == "n2" {
				t.Error("outside listing leaked into organization feed")
			}
			total++
		}
	}
	if total != 1 {
		t.Errorf("normal listings = %d, want 1", total)
	}
}

func TestGetFeedUnknownType(t *testing.T) {
	db.Init(memstore.New())
	w := httptest.NewRecorder()
	GetFeed(w, httptest.NewRequest(http.MethodGet, "/api/home/feed/cars", nil),
		httprouter.Params{{Key: "type", Value: "cars"}})
	if w.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", w.Code)
	}
}
