package certstore

import (
	"strings"
	"unicode/utf16"
	"unsafe"
)

// storeHandle is a native HCERTSTORE.
type storeHandle uintptr

// certHandle is a native PCCERT_CONTEXT. A nil certHandle means "no
// certificate", both as a find cursor and as a find result.
type certHandle unsafe.Pointer

// wincrypt.h constants used by this package.
const (
	encodingX509ASN         = 0x00000001                                      // X509_ASN_ENCODING
	encodingPKCS7           = 0x00010000                                      // PKCS_7_ASN_ENCODING
	certStoreProvSystem     = 10                                              // CERT_STORE_PROV_SYSTEM_W
	certStoreOpenExisting   = 0x00004000                                      // CERT_STORE_OPEN_EXISTING_FLAG
	systemStoreLocationMask = 0x00ff0000                                      // CERT_SYSTEM_STORE_LOCATION_MASK
	compareNameStrW         = 8                                               // CERT_COMPARE_NAME_STR_W
	compareShift            = 16                                              // CERT_COMPARE_SHIFT
	infoIssuerFlag          = 4                                               // CERT_INFO_ISSUER_FLAG
	infoSubjectFlag         = 7                                               // CERT_INFO_SUBJECT_FLAG
	certFindSubjectStr      = compareNameStrW<<compareShift | infoSubjectFlag // CERT_FIND_SUBJECT_STR_W
	certFindIssuerStr       = compareNameStrW<<compareShift | infoIssuerFlag  // CERT_FIND_ISSUER_STR_W
	pfxImportDefaultFlags   = 0
	certCloseStoreNoFlags   = 0
)

// encodingType is the certificate encoding every search is constrained to.
const encodingType = encodingX509ASN | encodingPKCS7

// backend is the native certificate store API. Handles returned by
// findCertificate are owned by the backend and become invalid on the next
// findCertificate call that receives them as prev; duplicateCertificate
// returns a reference the caller must release with freeCertificate.
type backend interface {
	openStore(provider uintptr, encoding, flags uint32, name []uint16) (storeHandle, error)
	importPFX(data []byte, password []uint16, flags uint32) (storeHandle, error)
	findCertificate(store storeHandle, encoding, findFlags, findType uint32, para []uint16, prev certHandle) (certHandle, error)
	duplicateCertificate(cert certHandle) certHandle
	freeCertificate(cert certHandle) error
	encodedCertificate(cert certHandle) ([]byte, error)
	closeStore(store storeHandle, flags uint32) error
}

// utf16z converts s to a NUL terminated UTF-16 string.
func utf16z(s string) ([]uint16, error) {
	if strings.IndexByte(s, 0) != -1 {
		return nil, ErrInvalidParameter
	}
	return append(utf16.Encode([]rune(s)), 0), nil
}

// utf16zString converts a NUL terminated UTF-16 string back to a Go string.
func utf16zString(s []uint16) string {
	for i, v := range s {
		if v == 0 {
			s = s[:i]
			break
		}
	}
	return string(utf16.Decode(s))
}
