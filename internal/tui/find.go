package tui

import (
	"strings"

	"github.com/agnivade/levenshtein"

	"github.com/jask/productdesk/internal/backend"
)

// bestMatch returns the index of the product whose name is closest to query,
// or -1 when query is blank or there are no products. Exact matches win, then
// prefixes, then substrings, then the smallest edit distance. Ties keep table order.
func bestMatch(products []backend.Product, query string) int {
	q := strings.ToLower(strings.TrimSpace(query))
	if q == "" || len(products) == 0 {
		return -1
	}
	best, bestRank, bestDist := -1, 4, 0
	for i, p := range products {
		name := strings.ToLower(strings.TrimSpace(p.Name))
		rank := 3
		switch {
		case name == q:
			rank = 0
		case strings.HasPrefix(name, q):
			rank = 1
		case strings.Contains(name, q):
			rank = 2
		}
		dist := levenshtein.ComputeDistance(name, q)
		if rank < bestRank || (rank == bestRank && dist < bestDist) {
			best, bestRank, bestDist = i, rank, dist
		}
	}
	return best
}
