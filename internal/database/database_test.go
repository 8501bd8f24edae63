package database

import (
	"errors"
	"testing"
)

func testDB(t *testing.T) *Database {
	t.Helper()
	db := New()
	err := db.LoadData(Payload{
		Properties: map[string]Property{"homepage": {ValueType: "url"}},
		Items: []Item{
			{ID: "a", Label: "Alpha", Type: "Person", Props: map[string][]string{"knows": {"b"}, "homepage": {"a.html"}}},
			{ID: "b", Label: "Beta", Type: "Person", Props: map[string][]string{"city": {"Oslo"}}},
			{ID: "c", Label: "Gamma", Type: "Place", Props: map[string][]string{"knows": {"b"}}},
		},
	}, "http://example.org/data/")
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	return db
}

func TestParseExpression(t *testing.T) {
	e, err := ParseExpression(".knows.city")
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if len(e.Steps) != 2 || !e.Steps[0].Forward || e.Steps[1].Property != "city" {
		t.Fatalf("unexpected steps: %+v", e.Steps)
	}
	bare, err := ParseExpression("latlng")
	if err != nil || bare.String() != ".latlng" {
		t.Fatalf("expected bare name to parse as forward step, got %v %v", bare, err)
	}
	for _, bad := range []string{"", ".", ".a..b", "!"} {
		if _, err := ParseExpression(bad); !errors.Is(err, ErrBadExpression) {
			t.Fatalf("expected ErrBadExpression for %q, got %v", bad, err)
		}
	}
}

func TestEvaluate(t *testing.T) {
	db := testDB(t)
	city, _ := ParseExpression(".knows.city")
	if got := db.Evaluate("a", city); len(got) != 1 || got[0] != "Oslo" {
		t.Fatalf("unexpected forward result: %v", got)
	}
	rev, _ := ParseExpression("!knows")
	if got := db.Evaluate("b", rev); len(got) != 2 || got[0] != "a" || got[1] != "c" {
		t.Fatalf("unexpected backward result: %v", got)
	}
	label, _ := ParseExpression(".label")
	if got := db.Evaluate("a", label); got[0] != "Alpha" {
		t.Fatalf("unexpected label: %v", got)
	}
	home, _ := ParseExpression(".homepage")
	if got := db.Evaluate("a", home); got[0] != "http://example.org/data/a.html" {
		t.Fatalf("expected resolved url, got %v", got)
	}
}

func TestLoadData_MergesByID(t *testing.T) {
	db := testDB(t)
	fired := 0
	stop := db.OnChange(func() { fired++ })
	err := db.LoadData(Payload{Items: []Item{
		{ID: "b", Props: map[string][]string{"city": {"Oslo", "Bergen"}}},
		{Label: "no id"},
	}}, "")
	if err == nil {
		t.Fatalf("expected error for item without id")
	}
	it, _ := db.Item("b")
	if got := it.Props["city"]; len(got) != 2 || got[1] != "Bergen" {
		t.Fatalf("expected union of values, got %v", got)
	}
	if it.Label != "Beta" || db.Size() != 3 {
		t.Fatalf("unexpected merge: %+v size=%d", it, db.Size())
	}
	stop()
	_ = db.LoadData(Payload{}, "")
	if fired != 1 {
		t.Fatalf("expected exactly one change notification, got %d", fired)
	}
}

func TestCollection_Filter(t *testing.T) {
	db := testDB(t)
	c := NewCollection(db)
	defer c.Dispose()
	changes := 0
	c.OnItemsChanged(func() { changes++ })

	if c.CountRestricted() != 3 {
		t.Fatalf("expected all items")
	}
	c.SetFilter("person")
	var ids []string
	c.VisitRestricted(func(id string) { ids = append(ids, id) })
	if len(ids) != 2 || ids[0] != "a" || ids[1] != "b" {
		t.Fatalf("unexpected restricted items: %v", ids)
	}
	c.SetFilter("PERSON")
	if changes != 1 {
		t.Fatalf("expected one change for an effective filter update, got %d", changes)
	}
	_ = db.LoadData(Payload{Items: []Item{{ID: "d", Type: "Person"}}}, "")
	if changes != 2 || c.CountRestricted() != 3 {
		t.Fatalf("expected load to notify, changes=%d count=%d", changes, c.CountRestricted())
	}
}
