package connection

import (
	"net/url"
	"strings"
)

// WithPassword returns connString with its password set. Both URL and
// keyword/value forms are accepted.
func WithPassword(connString, password string) string {
	if u, err := url.Parse(connString); err == nil && (u.Scheme == "postgres" || u.Scheme == "postgresql") {
		user := ""
		if u.User != nil {
			user = u.User.Username()
		}
		u.User = url.UserPassword(user, password)
		return u.String()
	}

	escaped := strings.NewReplacer(`\`, `\\`, `'`, `\'`).Replace(password)
	return strings.TrimSpace(connString) + " password='" + escaped + "'"
}
