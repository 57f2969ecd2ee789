package redisx

const (
	// Live session: session:{jti} -> user_id, TTL = token lifetime.
	KeySession = "session:%s"
)
