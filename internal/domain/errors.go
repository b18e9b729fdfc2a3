package domain

import "errors"

var (
	ErrDocumentNotFound = errors.New("document not found")
	ErrNotSuperAdmin    = errors.New("tenant selection requires super-admin")
	ErrNotSignedIn      = errors.New("not signed in")
)
