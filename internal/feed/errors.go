package feed

import "fmt"

// ConfigError means the subscription spec or credentials are missing or
// invalid. It is fatal and never retried.
type ConfigError struct {
	Reason string
}

func (e *ConfigError) Error() string {
	return "feed config: " + e.Reason
}

// AuthError means the upstream rejected the negotiate request or the
// connection token. Fatal for the session.
type AuthError struct {
	Status int
}

func (e *AuthError) Error() string {
	return fmt.Sprintf("feed auth rejected (status %d)", e.Status)
}

// ConnectError means a handshake step did not complete.
type ConnectError struct {
	Step string
	Err  error
}

func (e *ConnectError) Error() string {
	return fmt.Sprintf("feed %s failed: %v", e.Step, e.Err)
}

func (e *ConnectError) Unwrap() error { return e.Err }

// UpstreamError is an explicit error frame delivered mid-session.
type UpstreamError struct {
	Message string
}

func (e *UpstreamError) Error() string {
	return "feed upstream error: " + e.Message
}
