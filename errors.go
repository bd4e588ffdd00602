package certstore

import (
	"fmt"

	"github.com/pkg/errors"
)

// ErrCode is a status code reported by the platform certificate store API.
// Every failed open, import or search call surfaces as an ErrCode, usually
// wrapped with the operation that failed. Use Code to recover it.
type ErrCode uint32

// Status codes the package produces or callers commonly test for.
const (
	ErrFileNotFound     ErrCode = 0x00000002 // ERROR_FILE_NOT_FOUND
	ErrAccessDenied     ErrCode = 0x00000005 // ERROR_ACCESS_DENIED
	ErrInvalidHandle    ErrCode = 0x00000006 // ERROR_INVALID_HANDLE
	ErrNotEnoughMemory  ErrCode = 0x00000008 // ERROR_NOT_ENOUGH_MEMORY
	ErrInvalidPassword  ErrCode = 0x00000056 // ERROR_INVALID_PASSWORD
	ErrInvalidParameter ErrCode = 0x00000057 // ERROR_INVALID_PARAMETER
	ErrCryptBadEncode   ErrCode = 0x80092002 // CRYPT_E_BAD_ENCODE
	ErrCryptNotFound    ErrCode = 0x80092004 // CRYPT_E_NOT_FOUND
)

// Error implements the error interface.
func (c ErrCode) Error() string {
	return fmt.Sprintf("Error Code 0x%08X", uint32(c))
}

// ErrClosed is returned when a Store is used after Close.
var ErrClosed = errors.New("certstore: store closed")

// Code extracts the platform status code from err, looking through any
// wrapping added by this package.
func Code(err error) (ErrCode, bool) {
	var c ErrCode
	if errors.As(err, &c) {
		return c, true
	}
	return 0, false
}
