package builtin

import (
	"bytes"
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"text/template"

	"github.com/autoflow/autoflow/pkg/engine"
	"github.com/autoflow/autoflow/pkg/rules"
)

// BulkMailSettings configures a bulk mail rule.
type BulkMailSettings struct {
	// Recipients is a CSV file with a header row that must contain an
	// "email" column. All columns are available to the templates.
	Recipients string `yaml:"recipients" validate:"required"`

	// Subject is a text/template rendered per recipient row.
	Subject string `yaml:"subject" validate:"required"`

	// Body is a text/template rendered per recipient row.
	Body string `yaml:"body" validate:"required"`

	// Outbox is the spool directory messages are written into, one file
	// per recipient. Delivery is a downstream concern.
	Outbox string `yaml:"outbox" validate:"required"`
}

// BulkMailRule renders one message per recipient into an outbox spool
// directory. It never speaks SMTP itself; a separate transport drains the
// spool.
type BulkMailRule struct {
	*rules.Base
	settings BulkMailSettings
	subject  *template.Template
	body     *template.Template
}

// NewBulkMailRule constructs a bulk mail rule, parsing both templates
// eagerly.
func NewBulkMailRule(name string, settings map[string]any) (engine.Rule, error) {
	var s BulkMailSettings
	if err := rules.DecodeSettings(settings, &s); err != nil {
		return nil, err
	}

	subject, err := template.New("subject").Option("missingkey=error").Parse(s.Subject)
	if err != nil {
		return nil, fmt.Errorf("failed to parse subject template: %w", err)
	}
	body, err := template.New("body").Option("missingkey=error").Parse(s.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to parse body template: %w", err)
	}

	return &BulkMailRule{
		Base:     rules.NewBase(name),
		settings: s,
		subject:  subject,
		body:     body,
	}, nil
}

// Execute renders and spools one message per recipient row. Rows that fail
// to render are reported together; the remaining rows are still spooled.
func (r *BulkMailRule) Execute(ctx context.Context) error {
	f, err := os.Open(r.settings.Recipients)
	if err != nil {
		return fmt.Errorf("failed to open recipients file: %w", err)
	}
	defer f.Close()

	reader := csv.NewReader(f)
	reader.TrimLeadingSpace = true

	header, err := reader.Read()
	if err != nil {
		return fmt.Errorf("failed to read recipients header: %w", err)
	}
	emailCol := -1
	for i, col := range header {
		if strings.EqualFold(col, "email") {
			emailCol = i
			break
		}
	}
	if emailCol < 0 {
		return fmt.Errorf("recipients file has no email column")
	}

	if err := os.MkdirAll(r.settings.Outbox, 0755); err != nil {
		return fmt.Errorf("failed to create outbox: %w", err)
	}

	var errs []error
	for index := 0; ; index++ {
		if err := ctx.Err(); err != nil {
			errs = append(errs, err)
			break
		}

		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return errors.Join(append(errs, fmt.Errorf("failed to read row %d: %w", index, err))...)
		}

		row := make(map[string]string, len(record))
		for i, value := range record {
			if i < len(header) {
				row[header[i]] = value
			}
		}

		if err := r.spool(index, row[header[emailCol]], row); err != nil {
			errs = append(errs, fmt.Errorf("row %d: %w", index, err))
		}
	}

	return errors.Join(errs...)
}

// spool renders one message and writes it into the outbox.
func (r *BulkMailRule) spool(index int, email string, row map[string]string) error {
	if email == "" {
		return fmt.Errorf("empty email address")
	}

	var subject, body bytes.Buffer
	if err := r.subject.Execute(&subject, row); err != nil {
		return fmt.Errorf("failed to render subject: %w", err)
	}
	if err := r.body.Execute(&body, row); err != nil {
		return fmt.Errorf("failed to render body: %w", err)
	}

	var msg bytes.Buffer
	fmt.Fprintf(&msg, "To: %s\n", email)
	fmt.Fprintf(&msg, "Subject: %s\n\n", subject.String())
	msg.Write(body.Bytes())

	name := fmt.Sprintf("%04d-%s.eml", index, sanitizeFilename(email))
	path := filepath.Join(r.settings.Outbox, name)
	if err := os.WriteFile(path, msg.Bytes(), 0644); err != nil {
		return fmt.Errorf("failed to write message: %w", err)
	}
	return nil
}

// sanitizeFilename replaces characters unsafe in filenames.
func sanitizeFilename(s string) string {
	return strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
			return r
		case r == '@' || r == '.' || r == '-' || r == '_':
			return r
		default:
			return '_'
		}
	}, s)
}
