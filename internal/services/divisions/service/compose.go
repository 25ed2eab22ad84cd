package service

import (
	"fmt"
	"strings"

	"opengov/internal/services/divisions/domain"
)

// ComposeUpdate renders the follow-up posted into a division thread when its
// publication marker moves
func ComposeUpdate(d domain.DivisionRecord, previous string) string {
	var b strings.Builder
	if d.Number > 0 {
		fmt.Fprintf(&b, "**Division %d updated** (division no. %d)\n", d.DivisionID, d.Number)
	} else {
		fmt.Fprintf(&b, "**Division %d updated**\n", d.DivisionID)
	}
	b.WriteString(strings.TrimSpace(d.Title))
	if d.Date != "" {
		fmt.Fprintf(&b, "\nDate: %s", d.Date)
	}
	fmt.Fprintf(&b, "\nPublication updated: %s (previously %s)", d.PublicationUpdated, previous)
	return b.String()
}
