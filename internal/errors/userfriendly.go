package errors

import (
	"fmt"
	"strings"
)

// UserFriendlyError provides operator-facing messages with context and hints
type UserFriendlyError struct {
	Message string
	Reason  string
	Hint    string
	Try     string
	Err     error
}

func (e UserFriendlyError) Error() string {
	var buf strings.Builder
	buf.WriteString(e.Message)
	if e.Reason != "" {
		buf.WriteString("\n  Reason: " + e.Reason)
	}
	if e.Hint != "" {
		buf.WriteString("\n  Hint: " + e.Hint)
	}
	if e.Try != "" {
		buf.WriteString("\n  Try: " + e.Try)
	}
	if e.Err != nil {
		buf.WriteString("\n  Details: " + e.Err.Error())
	}
	return buf.String()
}

func (e UserFriendlyError) Unwrap() error {
	return e.Err
}

// WrapTransportError wraps a provider open/send failure for a site.
func WrapTransportError(err error, site, addr string) error {
	if err == nil {
		return nil
	}

	return UserFriendlyError{
		Message: fmt.Sprintf("Site %q could not use its transport at %s", site, addr),
		Reason:  extractNetworkReason(err),
		Hint:    "Check that the listen address is free and the destinations are reachable",
		Try:     "simbridge validate-config --config <file>",
		Err:     err,
	}
}

// WrapProviderError wraps a provider resolution failure for a site.
func WrapProviderError(err error, site, provider string) error {
	if err == nil {
		return nil
	}

	return UserFriendlyError{
		Message: fmt.Sprintf("Site %q names provider %q", site, provider),
		Reason:  err.Error(),
		Hint:    "Only implemented providers can be bound to a site",
		Try:     "simbridge providers",
		Err:     err,
	}
}

// WrapConfigError wraps configuration errors with user-friendly context
func WrapConfigError(err error, configPath string) error {
	if err == nil {
		return nil
	}

	return UserFriendlyError{
		Message: fmt.Sprintf("Configuration error in %s", configPath),
		Reason:  err.Error(),
		Hint:    "Compare against the output of simbridge print-default",
		Try:     fmt.Sprintf("simbridge validate-config --config %s", configPath),
		Err:     err,
	}
}

func extractNetworkReason(err error) string {
	errStr := err.Error()

	if strings.Contains(errStr, "timeout") || strings.Contains(errStr, "deadline exceeded") {
		return "Timed out - peer may be offline or unreachable"
	}
	if strings.Contains(errStr, "address already in use") {
		return "Address already in use - another process is bound to this port"
	}
	if strings.Contains(errStr, "connection refused") {
		return "Connection refused - nothing is listening at the destination"
	}
	if strings.Contains(errStr, "no route to host") || strings.Contains(errStr, "network is unreachable") {
		return "No route to host - network routing issue or peer unreachable"
	}
	if strings.Contains(errStr, "permission denied") {
		return "Permission denied - broadcast or privileged port may need extra rights"
	}

	return "Network communication failed"
}
