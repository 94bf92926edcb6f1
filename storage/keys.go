package storage

// Durable keys shared by the session components. The token is mirrored under
// two names so older console builds reading the legacy key keep working.
const (
	KeyToken          = "cert_console_token"
	KeyLegacyToken    = "token"
	KeyUserProfile    = "user"
	KeySelectedTenant = "selected_tenant"
)

// TokenKeys lists the token keys in hydration order. The first key holding a
// value wins.
var TokenKeys = []string{KeyToken, KeyLegacyToken}

// SessionKeys lists every key removed when a session ends.
var SessionKeys = []string{KeyToken, KeyLegacyToken, KeyUserProfile}
