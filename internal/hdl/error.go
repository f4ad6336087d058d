package hdl

import "errors"

var ErrInternal = errors.New("internal error")
var ErrDecodeRequest = errors.New("decode request")

var ErrToRetrievePathArg = errors.New("error to retrieve path argument")
var ErrFailedToGetUUID = errors.New("failed to get uid from context")
var ErrFailedToParseUUID = errors.New("failed to parse uid")

var ErrMissingToken = errors.New("missing bearer token")
var ErrForbidden = errors.New("forbidden")
var ErrTooManyRequests = errors.New("too many requests")
