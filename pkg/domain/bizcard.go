package domain

import (
	"encoding/json"
	"fmt"
	"strings"
)

// MatchesQuery reports whether any leaf field of the card contains the query,
// case-insensitively. The name field is whitespace-normalized first so cards
// scanned with stray spacing still match.
func (c BusinessCard) MatchesQuery(query string) bool {
	query = strings.ToLower(strings.TrimSpace(query))
	if query == "" {
		return true
	}
	fields := []string{
		normalizeSpace(c.Name),
		c.Role,
		c.Email,
		c.Company.Name,
		c.Company.Address,
		c.Company.EnglishName,
		c.Company.Website,
	}
	for _, field := range fields {
		if strings.Contains(strings.ToLower(field), query) {
			return true
		}
	}
	return false
}

func normalizeSpace(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

// DecodeBusinessCard parses a stored card payload.
func DecodeBusinessCard(raw []byte) (BusinessCard, error) {
	var card BusinessCard
	if len(raw) == 0 {
		return card, fmt.Errorf("empty business card payload")
	}
	if err := json.Unmarshal(raw, &card); err != nil {
		return card, fmt.Errorf("decode business card: %w", err)
	}
	return card, nil
}

// EncodeBusinessCard serializes the card payload for storage.
func EncodeBusinessCard(card BusinessCard) ([]byte, error) {
	raw, err := json.Marshal(card)
	if err != nil {
		return nil, fmt.Errorf("encode business card: %w", err)
	}
	return raw, nil
}
