package httpx

import (
	"strings"

	"github.com/microcosm-cc/bluemonday"
)

var messagePolicy = bluemonday.StrictPolicy()

// RemoteMessage sanitises a server-provided message so it can be surfaced to
// users verbatim. Messages come from the remote commerce API and the payment
// gateway, so any markup is stripped before the text leaves this process.
func RemoteMessage(message string) string {
	cleaned := messagePolicy.Sanitize(message)
	cleaned = strings.TrimSpace(cleaned)
	return sanitize(cleaned, 512)
}

// RemoteMessageOr sanitises the remote message, substituting a fallback when
// sanitisation leaves nothing presentable.
func RemoteMessageOr(message, fallback string) string {
	if cleaned := RemoteMessage(message); cleaned != "" {
		return cleaned
	}
	return fallback
}
