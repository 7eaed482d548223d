package service

import "errors"

var (
	// ErrClosed indicates the service has been closed.
	ErrClosed = errors.New("service: closed")

	// ErrNodeNotFound indicates the context path does not exist.
	ErrNodeNotFound = errors.New("service: context node not found")
)
