package pickup

import (
	"fmt"
	"strings"
)

// Hits returns the available rows.
func Hits(rows []Row) []Row {
	var hits []Row
	for _, r := range rows {
		if r.Available {
			hits = append(hits, r)
		}
	}
	return hits
}

// HitMessage formats one notification for every available store of a zip.
func HitMessage(zip string, hits []Row) string {
	parts := make([]string, 0, len(hits))
	for _, h := range hits {
		parts = append(parts, fmt.Sprintf("%s (%s)", h.Store, h.Message))
	}
	return fmt.Sprintf("📱 Pickup available [%s] - %s", zip, strings.Join(parts, "; "))
}
