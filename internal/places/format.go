package places

import (
	"fmt"
	"strings"
)

// FormatResults renders retrieved documents into the context block fed to
// the completion model: one Name/Address/Rating/Review stanza per document,
// separated by blank lines.
func FormatResults(results []Result) string {
	var b strings.Builder
	for _, r := range results {
		fmt.Fprintf(&b, "Name: %s\n", r.Name)
		fmt.Fprintf(&b, "Address: %s\n", r.Address)
		fmt.Fprintf(&b, "Rating: %g\n", r.Rating)
		fmt.Fprintf(&b, "Review/About: %s\n", r.Review)
		b.WriteString("\n\n")
	}
	return b.String()
}
