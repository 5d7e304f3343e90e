package icap

import (
	"github.com/frankli0324/go-icap/internal/icap"
)

const DefaultPort = icap.DefaultPort

type Header = icap.Header
type Field = icap.Field
type Method = icap.Method
type Request = icap.Request
type Response = icap.Response
type Kind = icap.Kind
type Encapsulated = icap.Encapsulated

const (
	MethodOptions = icap.MethodOptions
	MethodReqmod  = icap.MethodReqmod
	MethodRespmod = icap.MethodRespmod
)

const (
	KindUnknown     = icap.KindUnknown
	KindInformation = icap.KindInformation
	KindSuccess     = icap.KindSuccess
	KindRedirection = icap.KindRedirection
	KindClientError = icap.KindClientError
	KindServerError = icap.KindServerError

	KindContinue             = icap.KindContinue
	KindOK                   = icap.KindOK
	KindNoContent            = icap.KindNoContent
	KindBadRequest           = icap.KindBadRequest
	KindServiceNotFound      = icap.KindServiceNotFound
	KindMethodNotAllowed     = icap.KindMethodNotAllowed
	KindRequestTimeout       = icap.KindRequestTimeout
	KindInternalServerError  = icap.KindInternalServerError
	KindMethodNotImplemented = icap.KindMethodNotImplemented
	KindBadGateway           = icap.KindBadGateway
	KindServiceUnavailable   = icap.KindServiceUnavailable
	KindVersionNotSupported  = icap.KindVersionNotSupported
)

// Classify maps a three digit status code to its Kind.
func Classify(code string) Kind { return icap.Classify(code) }

type ValidationError = icap.ValidationError
type ProtocolSyntaxError = icap.ProtocolSyntaxError
type SessionStateError = icap.SessionStateError
type ConnectionError = icap.ConnectionError

var (
	ErrOpenTimeout = icap.ErrOpenTimeout

	ErrEmptyPath       = icap.ErrEmptyPath
	ErrNegativePreview = icap.ErrNegativePreview
	ErrPreviewFormat   = icap.ErrPreviewFormat
	ErrUnknownMethod   = icap.ErrUnknownMethod
	ErrInvalidTarget   = icap.ErrInvalidTarget
	ErrInvalidHeader   = icap.ErrInvalidHeader

	ErrStatusLine   = icap.ErrStatusLine
	ErrHeaderLine   = icap.ErrHeaderLine
	ErrChunkSize    = icap.ErrChunkSize
	ErrChunkData    = icap.ErrChunkData
	ErrLineTooLong  = icap.ErrLineTooLong
	ErrEncapsulated = icap.ErrEncapsulated

	ErrAlreadyStarted  = icap.ErrAlreadyStarted
	ErrNotStarted      = icap.ErrNotStarted
	ErrBodyReadTwice   = icap.ErrBodyReadTwice
	ErrBodyReadOutside = icap.ErrBodyReadOutside
	ErrInExchange      = icap.ErrInExchange
	ErrRequestConsumed = icap.ErrRequestConsumed
)
