package auth

import (
	apperrors "github.com/jrsteele09/go-cert-console/internal/errors"
)

var (
	ErrInvalidCredentials = apperrors.ErrInvalidCredentials
	ErrInvalidAccessToken = apperrors.ErrInvalidToken
	ErrNoToken            = apperrors.ErrNoToken
)
