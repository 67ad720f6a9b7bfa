package service

import "errors"

var (
	// ErrInvalidInput covers malformed requests: bad role, bad tier syntax,
	// non-positive quantity, missing image payload.
	ErrInvalidInput = errors.New("invalid input")
	// ErrNotFound covers unknown farmers, crops, quotes, tokens and missing
	// original documents.
	ErrNotFound = errors.New("not found")
	// ErrConflict covers duplicate farmer names on creation.
	ErrConflict = errors.New("already exists")
	// ErrStorage marks persistence or blob I/O failures; callers may retry.
	ErrStorage = errors.New("storage failure")
	// ErrRender marks document or image composition failures; fatal for the
	// request.
	ErrRender = errors.New("render failure")
)
