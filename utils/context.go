package utils

// ContextKey is the type for request-scoped context values.
type ContextKey string

// Request context keys set by handlers and read by flows.
const (
	RequestIDKey  ContextKey = "request_id"
	UserAgentKey  ContextKey = "user_agent"
	IPAddressKey  ContextKey = "ip_address"
	EndpointKey   ContextKey = "endpoint"
	TimeoutKey    ContextKey = "timeout"
	CancelFuncKey ContextKey = "cancel_func"
	AccountIDKey  ContextKey = "account_id"
)
