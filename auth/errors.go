package auth

import (
	"github.com/pkg/errors"
)

var (
	// ErrUnauthenticated is returned (wrapped) when a credential is missing,
	// malformed or fails verification
	ErrUnauthenticated = errors.New("unauthenticated")
	// ErrServiceUnavailable is returned (wrapped) when no signing keys could
	// be obtained from the identity provider
	ErrServiceUnavailable = errors.New("identity provider unavailable")
)

func unauthenticated(format string, args ...any) error {
	return errors.Wrapf(ErrUnauthenticated, format, args...)
}

func unavailable(err error) error {
	return errors.Wrapf(ErrServiceUnavailable, "%v", err)
}

// IsUnauthenticated reports whether err is caused by a rejected credential
func IsUnauthenticated(err error) bool {
	return errors.Is(err, ErrUnauthenticated)
}

// IsServiceUnavailable reports whether err is caused by an unreachable
// identity provider
func IsServiceUnavailable(err error) bool {
	return errors.Is(err, ErrServiceUnavailable)
}
