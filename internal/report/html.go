package report

import (
	"bytes"
	"fmt"
	"html"
	"time"
)

// Style carries the fixed visual values for report rendering. Rendering
// takes a Style by value; nothing global is ever mutated.
type Style struct {
	FontFamily    string
	HeaderColor   string // header band background
	BorderColor   string
	RowStripe     string // background for alternating rows
	ExpiredColor  string // text color for expired rows
	MutedColor    string // footer and note text
	EmptyMessage  string
	ExpiresFormat string
}

// DefaultStyle is the house style for report mail.
var DefaultStyle = Style{
	FontFamily:    "-apple-system, BlinkMacSystemFont, 'Segoe UI', Roboto, 'Helvetica Neue', Arial, sans-serif",
	HeaderColor:   "#1f6feb",
	BorderColor:   "#dee2e6",
	RowStripe:     "#f8f9fa",
	ExpiredColor:  "#dc3545",
	MutedColor:    "#6c757d",
	EmptyMessage:  "No expiring items on record",
	ExpiresFormat: "2006-01-02 15:04 MST",
}

// renderHTML produces the complete report document: fixed style header
// plus the dynamic entry table (or the empty-report message).
func renderHTML(r *Report, style Style) string {
	var buf bytes.Buffer

	buf.WriteString(`<!DOCTYPE html>
<html>
<head>
<meta charset="utf-8">
<meta name="viewport" content="width=device-width, initial-scale=1.0">
<title>Credential Expiry Report</title>
</head>
`)
	buf.WriteString(fmt.Sprintf(`<body style="font-family: %s; line-height: 1.6; color: #333; max-width: 700px; margin: 0 auto; padding: 20px;">
`, style.FontFamily))

	// Header band
	buf.WriteString(fmt.Sprintf(`<div style="background-color: %s; color: white; padding: 20px; border-radius: 8px 8px 0 0;">
<h1 style="margin: 0; font-size: 22px;">Credential expiry report: %s</h1>
</div>
`, style.HeaderColor, html.EscapeString(r.Source)))

	buf.WriteString(fmt.Sprintf(`<div style="background-color: %s; padding: 20px; border-radius: 0 0 8px 8px; border: 1px solid %s; border-top: none;">
`, style.RowStripe, style.BorderColor))

	buf.WriteString(fmt.Sprintf(`<p style="margin-top: 0;">Range: %s. Generated %s.</p>
`, html.EscapeString(r.Mode.String()), r.Now.UTC().Format(time.RFC3339)))

	if r.Empty() {
		buf.WriteString(fmt.Sprintf(`<p><strong>%s</strong></p>
`, html.EscapeString(style.EmptyMessage)))
	} else {
		writeEntryTable(&buf, r, style)
	}

	if r.NoExpiry > 0 {
		noun := "items"
		if r.NoExpiry == 1 {
			noun = "item"
		}
		buf.WriteString(fmt.Sprintf(`<p style="font-size: 12px; color: %s;">%d %s with no expiration date %s not classified.</p>
`, style.MutedColor, r.NoExpiry, noun, wasWere(r.NoExpiry)))
	}

	buf.WriteString(`</div>

<div style="margin-top: 20px; font-size: 12px; color: ` + style.MutedColor + `; text-align: center;">
<p>This report was sent by kvreport.</p>
<p>Run <code>kvreport preview</code> against the same source to reproduce it.</p>
</div>
</body>
</html>`)

	return buf.String()
}

func writeEntryTable(buf *bytes.Buffer, r *Report, style Style) {
	buf.WriteString(fmt.Sprintf(`<table style="width: 100%%; border-collapse: collapse; margin-bottom: 12px;">
<tr>
<th style="text-align: left; padding: 8px; border-bottom: 2px solid %s;">Name</th>
<th style="text-align: left; padding: 8px; border-bottom: 2px solid %s;">Type</th>
<th style="text-align: left; padding: 8px; border-bottom: 2px solid %s;">Expiration Range</th>
<th style="text-align: left; padding: 8px; border-bottom: 2px solid %s;">Expires</th>
</tr>
`, style.BorderColor, style.BorderColor, style.BorderColor, style.BorderColor))

	for _, e := range r.Entries {
		// Strictly before now gets the marker; an item expiring this
		// instant is not yet flagged.
		rowStyle := fmt.Sprintf("padding: 8px; border-bottom: 1px solid %s;", style.BorderColor)
		class := ""
		if e.Expires.Before(r.Now) {
			rowStyle += fmt.Sprintf(" color: %s; font-weight: bold;", style.ExpiredColor)
			class = ` class="expired"`
		}

		buf.WriteString(fmt.Sprintf(`<tr%s>
<td style="%s">%s</td>
<td style="%s">%s</td>
<td style="%s">%s</td>
<td style="%s">%s</td>
</tr>
`, class,
			rowStyle, html.EscapeString(e.Name),
			rowStyle, html.EscapeString(string(e.Kind)),
			rowStyle, html.EscapeString(string(e.ExpirationRange)),
			rowStyle, e.Expires.UTC().Format(style.ExpiresFormat)))
	}

	buf.WriteString(`</table>
`)
}

func wasWere(n int) string {
	if n == 1 {
		return "was"
	}
	return "were"
}
