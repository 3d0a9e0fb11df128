package redis

import "strings"

// Every storefront key lives under "sf:<kind>:...".
const keyNamespace = "sf"

const (
	kindIdempotency = "idempotency"
	kindRateLimit   = "rate_limit"
	kindSession     = "session"
	kindLock        = "lock"
	kindAlert       = "alert"
)

func (c *Client) IdempotencyKey(scope, id string) string {
	return joinKey(kindIdempotency, scope, id)
}

func (c *Client) RateLimitKey(scope string) string {
	return joinKey(kindRateLimit, scope)
}

// AccessSessionKey holds the refresh session for one access token jti.
func (c *Client) AccessSessionKey(accessID string) string {
	return joinKey(kindSession, "access", accessID)
}

func (c *Client) LockKey(name string) string {
	return joinKey(kindLock, name)
}

// AlertKey dedupes one alert kind per subject per day.
func (c *Client) AlertKey(kind, subject, day string) string {
	return joinKey(kindAlert, kind, subject, day)
}

func joinKey(parts ...string) string {
	var b strings.Builder
	b.WriteString(keyNamespace)
	for _, part := range parts {
		if part = strings.TrimSpace(part); part != "" {
			b.WriteByte(':')
			b.WriteString(part)
		}
	}
	return b.String()
}
