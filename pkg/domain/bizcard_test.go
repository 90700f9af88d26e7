package domain

import "testing"

func TestBusinessCardMatchesQuery(t *testing.T) {
	card := BusinessCard{
		Name:        "  Kim   Minsoo ",
		Role:        "Sales Director",
		PhoneNumber: "010-1234-5678",
		Email:       "minsoo@acme.example",
		Company: Company{
			Name:        "Acme Industries",
			Address:     "12 Harbor Rd",
			EnglishName: "ACME",
			Website:     "acme.example",
		},
	}

	if !card.MatchesQuery("") {
		t.Fatalf("empty query must match everything")
	}
	if !card.MatchesQuery("kim minsoo") {
		t.Fatalf("whitespace-normalized name should match")
	}
	if !card.MatchesQuery("DIRECTOR") {
		t.Fatalf("match must be case-insensitive")
	}
	if !card.MatchesQuery("harbor") {
		t.Fatalf("company address should be searchable")
	}
	if card.MatchesQuery("1234") {
		t.Fatalf("phone number must not be searchable")
	}
	if card.MatchesQuery("globex") {
		t.Fatalf("unrelated query should not match")
	}
}
