package feed

import (
	"testing"

	"driza/models"
)

func listing(id string, createdAt int64, estado, org string) models.Listing {
	return models.Listing{ID: id, CreatedAt: createdAt, Estado: estado, Organization: org}
}

func ids(ls []models.Listing) []string {
	out := make([]string, len(ls))
	for i, l := range ls {
		out[i] = l.ID
	}
	return out
}

func equal(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

func TestNormalTierRowDistribution(t *testing.T) {
	view := Compose([]models.Listing{
		listing("C", 100, models.EstadoNormal, "UDESA"),
		listing("A", 300, models.EstadoNormal, "UDESA"),
		listing("B", 200, models.EstadoNormal, "UDESA"),
	}, false)

	if !equal(ids(view.NormalRows[0]), []string{"A"}) {
		t.Errorf("row0 = %v, want [A]", ids(view.NormalRows[0]))
	}
	if !equal(ids(view.NormalRows[1]), []string{"B"}) {
		t.Errorf("row1 = %v, want [B]", ids(view.NormalRows[1]))
	}
	if !equal(ids(view.NormalRows[2]), []string{"C"}) {
		t.Errorf("row2 = %v, want [C]", ids(view.NormalRows[2]))
	}
}

func TestRowsWrapRoundRobin(t *testing.T) {
	view := Compose([]models.Listing{
		listing("a", 500, "", ""),
		listing("b", 400, "", ""),
		listing("c", 300, "", ""),
		listing("d", 200, "", ""),
		listing("e", 100, "", ""),
	}, false)

	if !equal(ids(view.NormalRows[0]), []string{"a", "d"}) {
		t.Errorf("row0 = %v, want [a d]", ids(view.NormalRows[0]))
	}
	if !equal(ids(view.NormalRows[1]), []string{"b", "e"}) {
		t.Errorf("row1 = %v, want [b e]", ids(view.NormalRows[1]))
	}
	if !equal(ids(view.NormalRows[2]), []string{"c"}) {
		t.Errorf("row2 = %v, want [c]", ids(view.NormalRows[2]))
	}
}

func TestTierOrdering(t *testing.T) {
	view := Compose([]models.Listing{
		listing("n", 900, models.EstadoNormal, ""),
		listing("p", 100, models.EstadoPromoted, ""),
		listing("s", 50, models.EstadoSuperPromoted, ""),
	}, false)

	if !equal(ids(view.SuperPromoted), []string{"s"}) {
		t.Errorf("superPromoted = %v", ids(view.SuperPromoted))
	}
	if !equal(ids(view.Promoted), []string{"p"}) {
		t.Errorf("promoted = %v", ids(view.Promoted))
	}
	if !equal(ids(view.NormalRows[0]), []string{"n"}) {
		t.Errorf("row0 = %v", ids(view.NormalRows[0]))
	}
}

func TestTiesBreakByID(t *testing.T) {
	view := Compose([]models.Listing{
		listing("z", 100, models.EstadoPromoted, ""),
		listing("a", 100, models.EstadoPromoted, ""),
	}, false)
	if !equal(ids(view.Promoted), []string{"a", "z"}) {
		t.Errorf("promoted = %v, want [a z]", ids(view.Promoted))
	}
}

func TestMissingEstadoIsNormal(t *testing.T) {
	view := Compose([]models.Listing{listing("x", 10, "", "")}, false)
	if len(view.NormalRows[0]) != 1 {
		t.Errorf("legacy listing without estado not placed in normal tier")
	}
}

func TestOrgFilterSparesPromotedTiers(t *testing.T) {
	view := Compose([]models.Listing{
		listing("n1", 300, models.EstadoNormal, "NO"),
		listing("n2", 200, models.EstadoNormal, "UDESA"),
		listing("p1", 100, models.EstadoPromoted, "NO"),
		listing("s1", 90, models.EstadoSuperPromoted, "NO"),
	}, true)

	var normalTotal int
	for _, row := range view.NormalRows {
		normalTotal += len(row)
		for _, l := range row {
			if l.Organization == "NO" {
				t.Errorf("unaffiliated listing %s in normal tier", l.ID)
			}
		}
	}
	if normalTotal != 1 {
		t.Errorf("normal tier size = %d, want 1", normalTotal)
	}
	if len(view.Promoted) != 1 || len(view.SuperPromoted) != 1 {
		t.Error("org filter must never touch promoted tiers")
	}
}

func TestPartitionIsDisjointCover(t *testing.T) {
	in := []models.Listing{
		listing("a", 9, models.EstadoNormal, ""),
		listing("b", 8, models.EstadoPromoted, ""),
		listing("c", 7, models.EstadoSuperPromoted, ""),
		listing("d", 6, "", ""),
		listing("e", 5, models.EstadoNormal, ""),
	}
	view := Compose(in, false)

	seen := map[string]int{}
	for _, l := range view.SuperPromoted {
		seen[l.ID]++
	}
	for _, l := range view.Promoted {
		seen[l.ID]++
	}
	for _, row := range view.NormalRows {
		for _, l := range row {
			seen[l.ID]++
		}
	}
	if len(seen) != len(in) {
		t.Errorf("cover = %d listings, want %d", len(seen), len(in))
	}
	for id, n := range seen {
		if n != 1 {
			t.Errorf("listing %s appears %d times", id, n)
		}
	}
}
