package session

import (
	"errors"
	"fmt"

	"nexus/cmd/identity"
)

var (
	// ErrNotRegistered is returned when no account exists for (email, role).
	ErrNotRegistered = fmt.Errorf("session: not registered: %w", identity.ErrNotFound)

	// ErrBadCredentials is returned when the password does not match.
	ErrBadCredentials = errors.New("session: bad credentials")

	// ErrConfig is returned for invalid configuration.
	ErrConfig = errors.New("invalid config")
)
