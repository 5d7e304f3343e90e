package icap

// Method is one of the three ICAP methods.
type Method string

const (
	MethodOptions Method = "OPTIONS"
	MethodReqmod  Method = "REQMOD"
	MethodRespmod Method = "RESPMOD"
)

// Valid reports whether m is an ICAP/1.0 method.
func (m Method) Valid() bool {
	switch m {
	case MethodOptions, MethodReqmod, MethodRespmod:
		return true
	}
	return false
}

// ResponseBodyPermitted reports whether a response to m may carry a body.
// OPTIONS answers are header only.
func (m Method) ResponseBodyPermitted() bool {
	return m == MethodReqmod || m == MethodRespmod
}

// bodyEntity is the Encapsulated entity a request body of method m is
// announced as.
func (m Method) bodyEntity() string {
	if m == MethodReqmod {
		return "req-body"
	}
	return "res-body"
}
