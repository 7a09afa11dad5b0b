package mail

import (
	"bytes"
	"fmt"
	"html"
	"strings"
	"time"
)

// Alert is the admin-facing failure notification for one run. Err
// carries the raw failure detail and is forwarded verbatim.
type Alert struct {
	Source string
	Mode   string
	When   time.Time
	Err    error
}

func (a Alert) htmlBody() string {
	var buf bytes.Buffer

	buf.WriteString(`<!DOCTYPE html>
<html>
<head>
<meta charset="utf-8">
<title>kvreport Run Failed</title>
</head>
<body style="font-family: -apple-system, BlinkMacSystemFont, 'Segoe UI', Roboto, 'Helvetica Neue', Arial, sans-serif; line-height: 1.6; color: #333; max-width: 600px; margin: 0 auto; padding: 20px;">
`)

	buf.WriteString(fmt.Sprintf(`<div style="background-color: #dc3545; color: white; padding: 20px; border-radius: 8px 8px 0 0;">
<h1 style="margin: 0; font-size: 22px;">&#x274C; Report run failed: %s</h1>
</div>
`, html.EscapeString(a.Source)))

	buf.WriteString(`<div style="background-color: #f8f9fa; padding: 20px; border-radius: 0 0 8px 8px; border: 1px solid #dee2e6; border-top: none;">
`)

	buf.WriteString(`<table style="width: 100%; border-collapse: collapse; margin-bottom: 20px;">
`)
	buf.WriteString(fmt.Sprintf(`<tr>
<td style="padding: 8px 0;"><strong>Source:</strong></td>
<td style="padding: 8px 0;">%s</td>
</tr>
`, html.EscapeString(a.Source)))
	buf.WriteString(fmt.Sprintf(`<tr>
<td style="padding: 8px 0;"><strong>Range:</strong></td>
<td style="padding: 8px 0;">%s</td>
</tr>
`, html.EscapeString(a.Mode)))
	buf.WriteString(fmt.Sprintf(`<tr>
<td style="padding: 8px 0;"><strong>Timestamp:</strong></td>
<td style="padding: 8px 0;">%s</td>
</tr>
`, a.When.UTC().Format(time.RFC3339)))
	buf.WriteString(`</table>
`)

	buf.WriteString(fmt.Sprintf(`<div style="background-color: #f8d7da; border: 1px solid #f5c6cb; border-radius: 4px; padding: 15px; margin-bottom: 20px;">
<strong>Error:</strong><br>
<code style="font-family: monospace; color: #721c24;">%s</code>
</div>
`, html.EscapeString(a.errDetail())))

	buf.WriteString(`<p>No report was sent to the primary recipient for this run.</p>
</div>

<div style="margin-top: 20px; font-size: 12px; color: #6c757d; text-align: center;">
<p>This notification was sent by kvreport.</p>
<p>Run <code>kvreport doctor</code> to check source and mail health.</p>
</div>
</body>
</html>`)

	return buf.String()
}

func (a Alert) textBody() string {
	title := fmt.Sprintf("Report run failed: %s", a.Source)

	var buf bytes.Buffer

	buf.WriteString(title + "\n")
	buf.WriteString(strings.Repeat("=", len(title)))
	buf.WriteString("\n\n")

	buf.WriteString(fmt.Sprintf("Source: %s\n", a.Source))
	buf.WriteString(fmt.Sprintf("Range: %s\n", a.Mode))
	buf.WriteString(fmt.Sprintf("Timestamp: %s\n", a.When.UTC().Format(time.RFC3339)))

	buf.WriteString(fmt.Sprintf("\nError: %s\n", a.errDetail()))

	buf.WriteString("\nNo report was sent to the primary recipient for this run.\n")
	buf.WriteString("\n---\n")
	buf.WriteString("This notification was sent by kvreport.\n")
	buf.WriteString("Run `kvreport doctor` to check source and mail health.\n")

	return buf.String()
}

func (a Alert) errDetail() string {
	if a.Err == nil {
		return "unknown failure"
	}
	return a.Err.Error()
}
