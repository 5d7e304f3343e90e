package icap

// Kind is the semantic classification of a response status code. Known
// codes map to their own kind, other codes fall back to the kind of their
// status class, anything else is KindUnknown.
type Kind uint8

const (
	KindUnknown Kind = iota

	// status classes
	KindInformation
	KindSuccess
	KindRedirection
	KindClientError
	KindServerError

	KindContinue              // 100
	KindOK                    // 200
	KindNoContent             // 204
	KindBadRequest            // 400
	KindServiceNotFound       // 404
	KindMethodNotAllowed      // 405
	KindRequestTimeout        // 408
	KindInternalServerError   // 500
	KindMethodNotImplemented  // 501
	KindBadGateway            // 502
	KindServiceUnavailable    // 503
	KindVersionNotSupported   // 505
	kindCount
)

type kindInfo struct {
	name          string
	class         Kind
	bodyPermitted bool
}

var kinds = [kindCount]kindInfo{
	KindUnknown:     {"Unknown", KindUnknown, true},
	KindInformation: {"Information", KindInformation, true},
	KindSuccess:     {"Success", KindSuccess, true},
	KindRedirection: {"Redirection", KindRedirection, true},
	KindClientError: {"ClientError", KindClientError, true},
	KindServerError: {"ServerError", KindServerError, true},

	KindContinue:             {"Continue", KindInformation, false},
	KindOK:                   {"OK", KindSuccess, true},
	KindNoContent:            {"NoContent", KindSuccess, false},
	KindBadRequest:           {"BadRequest", KindClientError, false},
	KindServiceNotFound:      {"ServiceNotFound", KindClientError, true},
	KindMethodNotAllowed:     {"MethodNotAllowed", KindClientError, true},
	KindRequestTimeout:       {"RequestTimeout", KindClientError, true},
	KindInternalServerError:  {"InternalServerError", KindServerError, true},
	KindMethodNotImplemented: {"MethodNotImplemented", KindServerError, true},
	KindBadGateway:           {"BadGateway", KindServerError, true},
	KindServiceUnavailable:   {"ServiceUnavailable", KindServerError, true},
	KindVersionNotSupported:  {"VersionNotSupported", KindServerError, true},
}

var codeKinds = map[string]Kind{
	"100": KindContinue,

	"200": KindOK,
	"204": KindNoContent,

	"400": KindBadRequest,
	"404": KindServiceNotFound,
	"405": KindMethodNotAllowed,
	"408": KindRequestTimeout,

	"500": KindInternalServerError,
	"501": KindMethodNotImplemented,
	"502": KindBadGateway,
	"503": KindServiceUnavailable,
	"505": KindVersionNotSupported,
}

var classKinds = map[byte]Kind{
	'1': KindInformation,
	'2': KindSuccess,
	'3': KindRedirection,
	'4': KindClientError,
	'5': KindServerError,
}

// Classify resolves a 3-digit status code: exact code first, then the
// leading digit, then KindUnknown.
func Classify(code string) Kind {
	if k, ok := codeKinds[code]; ok {
		return k
	}
	if len(code) == 3 {
		if k, ok := classKinds[code[0]]; ok {
			return k
		}
	}
	return KindUnknown
}

// BodyPermitted reports whether responses of this kind carry a body by default.
func (k Kind) BodyPermitted() bool {
	if k >= kindCount {
		return true
	}
	return kinds[k].bodyPermitted
}

// Class returns the status class kind k belongs to, e.g. KindOK is a
// KindSuccess. Classes and KindUnknown are their own class.
func (k Kind) Class() Kind {
	if k >= kindCount {
		return KindUnknown
	}
	return kinds[k].class
}

func (k Kind) String() string {
	if k >= kindCount {
		return "Unknown"
	}
	return kinds[k].name
}
