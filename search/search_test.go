package search

import (
	"context"
	"errors"
	"testing"

	"driza/errs"
	"driza/memstore"
	"driza/models"
)

var caller = models.Session{UID: "u1", Email: "ana@udesa.edu.ar"}

func seed(t *testing.T) *memstore.Store {
	t.Helper()
	ms := memstore.New()
	ctx := context.Background()
	ms.Set(ctx, "products/p1", models.Listing{Title: "Bicicleta", Description: "pan integral de regalo", CreatedAt: 30})
	ms.Set(ctx, "products/p2", models.Listing{Title: "Mesa de luz", Description: "casi nueva", CreatedAt: 20})
	ms.Set(ctx, "notices/n1", models.Listing{Title: "Vendo PANfletos", CreatedAt: 10})
	// no title and no description: must be skipped, not an error
	ms.Set(ctx, "notices/n2", models.Listing{Phone: "1122334455", CreatedAt: 5})
	return ms
}

func TestSearchIsCaseInsensitive(t *testing.T) {
	sc := New(seed(t))

	res, err := sc.Search(context.Background(), caller, "PAN")
	if err != nil {
		t.Fatalf("search: %v", err)
	}
	if len(res.Products) != 1 || res.Products[0].ID != "p1" {
		t.Errorf("products = %+v, want [p1]", res.Products)
	}
	if len(res.Notices) != 1 || res.Notices[0].ID != "n1" {
		t.Errorf("notices = %+v, want [n1]", res.Notices)
	}
}

func TestSearchByExactID(t *testing.T) {
	sc := New(seed(t))

	res, err := sc.Search(context.Background(), caller, "p2")
	if err != nil {
		t.Fatalf("search: %v", err)
	}
	if len(res.Products) != 1 || res.Products[0].ID != "p2" {
		t.Errorf("products = %+v, want [p2]", res.Products)
	}
	if len(res.Notices) != 0 {
		t.Errorf("notices = %+v, want none", res.Notices)
	}
}

func TestSearchRejectsEmptyQuery(t *testing.T) {
	sc := New(seed(t))
	_, err := sc.Search(context.Background(), caller, "   ")
	var ve *errs.ValidationError
	if !errors.As(err, &ve) {
		t.Fatalf("err = %v, want ValidationError", err)
	}
}

func TestSearchRequiresSession(t *testing.T) {
	sc := New(seed(t))
	_, err := sc.Search(context.Background(), models.Session{}, "pan")
	if !errors.Is(err, errs.ErrPermissionDenied) {
		t.Fatalf("err = %v, want permission denied", err)
	}
}

func TestSearchEmptyCollections(t *testing.T) {
	sc := New(memstore.New())
	res, err := sc.Search(context.Background(), caller, "algo")
	if err != nil {
		t.Fatalf("search: %v", err)
	}
	if len(res.Products) != 0 || len(res.Notices) != 0 {
		t.Errorf("results = %+v, want empty groups", res)
	}
}

func TestSearchResultsSortedNewestFirst(t *testing.T) {
	ms := memstore.New()
	ctx := context.Background()
	ms.Set(ctx, "products/old", models.Listing{Title: "silla", CreatedAt: 1})
	ms.Set(ctx, "products/new", models.Listing{Title: "silla gamer", CreatedAt: 2})
	sc := New(ms)

	res, err := sc.Search(ctx, caller, "silla")
	if err != nil {
		t.Fatalf("search: %v", err)
	}
	if len(res.Products) != 2 || res.Products[0].ID != "new" {
		t.Errorf("products = %+v, want newest first", res.Products)
	}
}
