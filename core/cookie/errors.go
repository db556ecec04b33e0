package cookie

import (
	"errors"
	"fmt"
)

var (
	// ErrNoSecret indicates no secret was provided for sealing/signing.
	ErrNoSecret = errors.New("no secret provided for cookie codec")

	// ErrSecretTooShort indicates the secret doesn't meet minimum length requirements.
	ErrSecretTooShort = errors.New("secret must be at least 32 characters long")

	// ErrInvalidSignature indicates signature verification failed,
	// suggesting tampering or a rotated-out secret.
	ErrInvalidSignature = errors.New("cookie signature verification failed")

	// ErrDecryptionFailed indicates the value couldn't be decrypted with any secret.
	ErrDecryptionFailed = errors.New("failed to decrypt cookie value")

	// ErrCookieNotFound indicates the jar holds no cookie with that name.
	ErrCookieNotFound = errors.New("cookie not found")

	// ErrExpired indicates the cookie existed but its max-age has passed.
	ErrExpired = errors.New("cookie expired")

	// ErrInvalidFormat indicates the stored value has an unexpected encoding.
	ErrInvalidFormat = errors.New("invalid cookie format")

	// ErrJarCorrupt indicates the jar file exists but cannot be parsed.
	ErrJarCorrupt = errors.New("cookie jar file is corrupt")

	// ErrNoPath is returned when a jar is created without a file path.
	ErrNoPath = errors.New("cookie jar path is required")
)

// ErrCookieTooLarge indicates the encoded cookie exceeds the maximum allowed size.
type ErrCookieTooLarge struct {
	Name string
	Size int
	Max  int
}

// Error implements the error interface.
func (e ErrCookieTooLarge) Error() string {
	return fmt.Sprintf("cookie %q size %d exceeds maximum %d bytes", e.Name, e.Size, e.Max)
}
