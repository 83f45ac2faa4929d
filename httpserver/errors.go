package httpserver

import "errors"

const Namespace = "httpserver"

var (
	ErrInvalidMethod  = errors.New(Namespace + ": unsupported method")
	ErrInvalidConfig  = errors.New(Namespace + ": invalid configuration")
	ErrEmptyRequest   = errors.New(Namespace + ": empty request")
	ErrHandlerFailed  = errors.New(Namespace + ": handler failed")
	ErrListenerFailed = errors.New(Namespace + ": listener failed")
)
