package resolve

import (
	"errors"
	"fmt"
)

// ProviderErrorCode distinguishes why a provider attempt failed.
type ProviderErrorCode string

const (
	// CodeNetwork covers transport failures and timeouts.
	CodeNetwork ProviderErrorCode = "NETWORK"
	// CodePermission covers rejected or missing credentials.
	CodePermission ProviderErrorCode = "PERMISSION"
	// CodeMalformed covers responses the client could not decode.
	CodeMalformed ProviderErrorCode = "MALFORMED"
	// CodeNoProviders means resolution was attempted with an empty chain.
	CodeNoProviders ProviderErrorCode = "NO_PROVIDERS"
)

// ProviderError reports a failed provider attempt. Zero results is not
// a ProviderError; it is a distinct outcome that advances the chain.
type ProviderError struct {
	Provider string
	Code     ProviderErrorCode
	Status   int
	Err      error
}

func (e *ProviderError) Error() string {
	msg := fmt.Sprintf("provider %s: %s", e.Provider, e.Code)
	if e.Status != 0 {
		msg = fmt.Sprintf("%s (status %d)", msg, e.Status)
	}
	if e.Err != nil {
		msg = fmt.Sprintf("%s: %v", msg, e.Err)
	}
	return msg
}

func (e *ProviderError) Unwrap() error { return e.Err }

// IsProviderError reports whether err is a ProviderError and returns it.
func IsProviderError(err error) (*ProviderError, bool) {
	var pe *ProviderError
	if errors.As(err, &pe) {
		return pe, true
	}
	return nil, false
}

// ChainError aggregates the per-provider failures of an exhausted chain
// where no provider returned results or a clean zero-result outcome.
type ChainError struct {
	Failures []*ProviderError
}

func (e *ChainError) Error() string {
	if len(e.Failures) == 0 {
		return "address resolution: no providers configured"
	}
	msg := "address resolution: all providers failed"
	for _, f := range e.Failures {
		msg += "; " + f.Error()
	}
	return msg
}
