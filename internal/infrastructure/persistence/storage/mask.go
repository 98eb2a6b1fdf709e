package storage

import "net/url"

// maskPassword hides the password of a URL-style connection string.
func maskPassword(connStr string) string {
	u, err := url.Parse(connStr)
	if err != nil {
		// Unparseable strings may still contain secrets.
		return "[REDACTED]"
	}
	if u.User != nil {
		if _, hasPassword := u.User.Password(); hasPassword {
			u.User = url.UserPassword(u.User.Username(), "xxxxxx")
		}
	}
	return u.String()
}
