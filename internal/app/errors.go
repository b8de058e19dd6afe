package service

import (
	"errors"

	"github.com/okian/phq9/internal/domain/model"
)

// Sentinel error kinds for the service.
var (
	ErrInvalidIdentity = model.ErrInvalidIdentity
	ErrNotStarted      = errors.New("service not started")
)
