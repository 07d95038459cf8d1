package models

import (
	"net/url"
	"strings"
)

const (
	// DefaultSchema is the schema used when none is configured, and the
	// schema the session falls back to when the configured one is missing.
	DefaultSchema = "public"

	// DefaultPageSize is the number of rows fetched per table page.
	DefaultPageSize = 200
)

// ConnectionTarget identifies the database a session talks to.
// It is built once at launch and never mutated afterwards.
type ConnectionTarget struct {
	URL      string
	Schema   string
	PageSize int
}

// NewConnectionTarget creates a target, filling in defaults for an empty
// schema or a non-positive page size
func NewConnectionTarget(rawURL, schema string, pageSize int) ConnectionTarget {
	schema = strings.TrimSpace(schema)
	if schema == "" {
		schema = DefaultSchema
	}
	if pageSize <= 0 {
		pageSize = DefaultPageSize
	}
	return ConnectionTarget{
		URL:      strings.TrimSpace(rawURL),
		Schema:   schema,
		PageSize: pageSize,
	}
}

// Redacted returns the URL with any password masked, suitable for logs and
// the status line. Keyword/value connection strings are returned with the
// password value replaced.
func (t ConnectionTarget) Redacted() string {
	u, err := url.Parse(t.URL)
	if err == nil && u.Scheme != "" {
		if _, ok := u.User.Password(); ok {
			u.User = url.UserPassword(u.User.Username(), "xxxxx")
		}
		return u.String()
	}

	fields := strings.Fields(t.URL)
	for i, f := range fields {
		if strings.HasPrefix(f, "password=") {
			fields[i] = "password=xxxxx"
		}
	}
	return strings.Join(fields, " ")
}
