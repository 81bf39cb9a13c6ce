package ports

import "errors"

// ErrDuplicateKey is returned by repositories when an insert or update would
// violate a uniqueness rule (phone number, username, active code, QR code).
var ErrDuplicateKey = errors.New("duplicate key")
