package mailer

import (
	"bytes"
	"encoding/base64"
	"fmt"
	"html/template"
	"log"
	"mime"
	"mime/multipart"
	"net/textproto"
	"os"
	"strings"
	"time"

	"formrelay/internal/domain"
)

var htmlBodyTmpl = template.Must(template.New("notification").Parse(`<!DOCTYPE html>
<html>
<head><meta charset="UTF-8"></head>
<body style="font-family: Arial, sans-serif; line-height: 1.6; color: #333; max-width: 600px; margin: 0 auto; padding: 20px;">
  <h2 style="margin-bottom: 4px;">New Form Submission</h2>
  <p style="margin-top: 0; color: #666;">From: {{.KeyName}}</p>
  <table style="width: 100%; border-collapse: collapse;">
  {{range .Fields}}
    <tr>
      <td style="padding: 8px; border-bottom: 1px solid #eee; font-weight: bold; vertical-align: top; width: 30%;">{{.Name}}</td>
      <td style="padding: 8px; border-bottom: 1px solid #eee;">{{.Value}}</td>
    </tr>
  {{end}}
  </table>
  {{if .Files}}
  <h3>Attached Files</h3>
  <ul>
  {{range .Files}}
    <li>{{.OriginalFilename}} ({{.Size}})</li>
  {{end}}
  </ul>
  {{end}}
  <p style="color: #666; font-size: 12px;">Received {{.CreatedAt}} from {{.IPAddress}}</p>
  <p style="font-size: 12px;"><a href="{{.AppURL}}">View Dashboard</a></p>
</body>
</html>
`))

type bodyFile struct {
	OriginalFilename string
	Size             string
}

type bodyData struct {
	KeyName   string
	Fields    []domain.Field
	Files     []bodyFile
	CreatedAt string
	IPAddress string
	AppURL    string
}

// buildMessage assembles the full RFC 2045 message: multipart/mixed wrapping
// a multipart/alternative (plain + html) body and one base64 part per
// attachment. Attachment bytes are read from the staged paths; a file that
// cannot be read is skipped with a log line rather than failing the whole
// delivery.
func buildMessage(cfg Config, key *domain.ApiKey, sub *domain.Submission) ([]byte, error) {
	data := bodyData{
		KeyName:   key.Name,
		Fields:    sub.Fields,
		CreatedAt: sub.CreatedAt.UTC().Format(time.RFC1123Z),
		IPAddress: sub.IPAddress,
		AppURL:    cfg.AppURL,
	}
	for _, f := range sub.Files {
		data.Files = append(data.Files, bodyFile{
			OriginalFilename: f.OriginalFilename,
			Size:             formatSize(f.FileSize),
		})
	}

	var html bytes.Buffer
	if err := htmlBodyTmpl.Execute(&html, data); err != nil {
		return nil, err
	}
	text := textBody(data)

	var body bytes.Buffer
	mixed := multipart.NewWriter(&body)

	var out bytes.Buffer
	headers := []string{
		fmt.Sprintf("From: %s <%s>", mime.QEncoding.Encode("utf-8", cfg.FromName), cfg.FromEmail),
		fmt.Sprintf("To: %s", key.RecipientEmail),
		fmt.Sprintf("Subject: %s", mime.QEncoding.Encode("utf-8", "New Form Submission - "+key.Name)),
		fmt.Sprintf("Date: %s", time.Now().UTC().Format(time.RFC1123Z)),
		"MIME-Version: 1.0",
		fmt.Sprintf("Content-Type: multipart/mixed; boundary=%q", mixed.Boundary()),
	}
	for _, h := range headers {
		out.WriteString(h)
		out.WriteString("\r\n")
	}
	out.WriteString("\r\n")

	altBuf, altBoundary, err := alternativeBody(text, html.String())
	if err != nil {
		return nil, err
	}
	altPart, err := mixed.CreatePart(textproto.MIMEHeader{
		"Content-Type": {fmt.Sprintf("multipart/alternative; boundary=%q", altBoundary)},
	})
	if err != nil {
		return nil, err
	}
	if _, err := altPart.Write(altBuf); err != nil {
		return nil, err
	}

	for _, f := range sub.Files {
		content, err := os.ReadFile(f.FilePath)
		if err != nil {
			log.Printf("email_attachment_skipped file=%s error=%q", f.OriginalFilename, err)
			continue
		}
		if err := writeAttachment(mixed, f, content); err != nil {
			return nil, err
		}
	}

	if err := mixed.Close(); err != nil {
		return nil, err
	}
	out.Write(body.Bytes())
	return out.Bytes(), nil
}

func alternativeBody(text, html string) ([]byte, string, error) {
	var buf bytes.Buffer
	alt := multipart.NewWriter(&buf)

	textPart, err := alt.CreatePart(textproto.MIMEHeader{
		"Content-Type": {"text/plain; charset=UTF-8"},
	})
	if err != nil {
		return nil, "", err
	}
	if _, err := textPart.Write([]byte(text)); err != nil {
		return nil, "", err
	}

	htmlPart, err := alt.CreatePart(textproto.MIMEHeader{
		"Content-Type": {"text/html; charset=UTF-8"},
	})
	if err != nil {
		return nil, "", err
	}
	if _, err := htmlPart.Write([]byte(html)); err != nil {
		return nil, "", err
	}

	if err := alt.Close(); err != nil {
		return nil, "", err
	}
	return buf.Bytes(), alt.Boundary(), nil
}

func writeAttachment(w *multipart.Writer, f domain.FileUpload, content []byte) error {
	contentType := f.MimeType
	if contentType == "" {
		contentType = "application/octet-stream"
	}
	part, err := w.CreatePart(textproto.MIMEHeader{
		"Content-Type":              {fmt.Sprintf("%s; name=%q", contentType, f.OriginalFilename)},
		"Content-Transfer-Encoding": {"base64"},
		"Content-Disposition":       {fmt.Sprintf("attachment; filename=%q", f.OriginalFilename)},
	})
	if err != nil {
		return err
	}

	encoded := base64.StdEncoding.EncodeToString(content)
	for len(encoded) > 0 {
		n := 76
		if n > len(encoded) {
			n = len(encoded)
		}
		if _, err := part.Write([]byte(encoded[:n])); err != nil {
			return err
		}
		if _, err := part.Write([]byte("\r\n")); err != nil {
			return err
		}
		encoded = encoded[n:]
	}
	return nil
}

func textBody(data bodyData) string {
	var b strings.Builder
	b.WriteString("New Form Submission\n")
	b.WriteString("From: " + data.KeyName + "\n")
	b.WriteString(strings.Repeat("-", 50) + "\n\n")

	for _, f := range data.Fields {
		b.WriteString(f.Name + ":\n" + f.Value + "\n\n")
	}

	if len(data.Files) > 0 {
		b.WriteString(fmt.Sprintf("\nAttached Files (%d):\n", len(data.Files)))
		for _, f := range data.Files {
			b.WriteString(fmt.Sprintf("- %s (%s)\n", f.OriginalFilename, f.Size))
		}
	}

	b.WriteString("\nReceived " + data.CreatedAt + " from " + data.IPAddress + "\n")
	b.WriteString("View dashboard: " + data.AppURL + "\n")
	return b.String()
}

func formatSize(size int64) string {
	const unit = 1024
	if size < unit {
		return fmt.Sprintf("%d B", size)
	}
	div, exp := int64(unit), 0
	for n := size / unit; n >= unit; n /= unit {
		div *= unit
		exp++
	}
	return fmt.Sprintf("%.1f %cB", float64(size)/float64(div), "KMGT"[exp])
}
