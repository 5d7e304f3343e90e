package transport

import (
	"io"
	"strings"
)

func unexpectedEOF(err error) error {
	if err == io.EOF {
		return io.ErrUnexpectedEOF
	}
	return err
}

func isSpace(b byte) bool { return b == ' ' || b == '\t' }

func trimSpace(s string) string { return strings.Trim(s, " \t") }
