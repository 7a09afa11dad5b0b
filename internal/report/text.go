package report

import (
	"bytes"
	"fmt"
	"strings"
	"time"
)

// renderText produces the plain-text alternative body for
// multipart/alternative mail.
func renderText(r *Report) string {
	var buf bytes.Buffer

	title := fmt.Sprintf("Credential expiry report: %s", r.Source)
	buf.WriteString(title + "\n")
	buf.WriteString(strings.Repeat("=", len(title)))
	buf.WriteString("\n\n")

	buf.WriteString(fmt.Sprintf("Range: %s\n", r.Mode.String()))
	buf.WriteString(fmt.Sprintf("Generated: %s\n\n", r.Now.UTC().Format(time.RFC3339)))

	if r.Empty() {
		buf.WriteString(DefaultStyle.EmptyMessage + "\n")
	} else {
		for _, e := range r.Entries {
			marker := "   "
			if e.Expires.Before(r.Now) {
				marker = "[!]"
			}
			buf.WriteString(fmt.Sprintf("%s %s (%s): %s, expires %s\n",
				marker, e.Name, e.Kind, e.ExpirationRange,
				e.Expires.UTC().Format(DefaultStyle.ExpiresFormat)))
		}
	}

	if r.NoExpiry > 0 {
		buf.WriteString(fmt.Sprintf("\n%d item(s) with no expiration date were not classified.\n", r.NoExpiry))
	}

	buf.WriteString("\n---\n")
	buf.WriteString("This report was sent by kvreport.\n")

	return buf.String()
}
