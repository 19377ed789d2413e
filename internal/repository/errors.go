package repository

import "errors"

var (
	// ErrInvalidMediaURL indicates an invalid media URL
	ErrInvalidMediaURL = errors.New("invalid media URL")

	// ErrMediaNotFound indicates the media was not found
	ErrMediaNotFound = errors.New("media not found")

	// ErrRepositoryUnavailable indicates the repository is unavailable
	ErrRepositoryUnavailable = errors.New("repository unavailable")
)
