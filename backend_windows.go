//go:build windows

package certstore

import (
	"runtime"
	"unsafe"

	"golang.org/x/sys/windows"
)

var defaultBackend backend = cryptAPI{}

// cryptAPI implements backend with crypt32.dll.
type cryptAPI struct{}

func (cryptAPI) openStore(provider uintptr, encoding, flags uint32, name []uint16) (storeHandle, error) {
	h, err := windows.CertOpenStore(provider, encoding, 0, flags, uintptr(unsafe.Pointer(&name[0])))
	runtime.KeepAlive(name)
	if h == 0 {
		return 0, lastError(err)
	}
	return storeHandle(h), nil
}

func (cryptAPI) importPFX(data []byte, password []uint16, flags uint32) (storeHandle, error) {
	blob := windows.CryptDataBlob{Size: uint32(len(data))}
	if len(data) > 0 {
		blob.Data = &data[0]
	}

	h, err := windows.PFXImportCertStore(&blob, &password[0], flags)
	if h == 0 {
		return 0, lastError(err)
	}
	return storeHandle(h), nil
}

func (cryptAPI) findCertificate(store storeHandle, encoding, findFlags, findType uint32, para []uint16, prev certHandle) (certHandle, error) {
	ctx, err := windows.CertFindCertificateInStore(
		windows.Handle(store),
		encoding,
		findFlags,
		findType,
		unsafe.Pointer(&para[0]),
		(*windows.CertContext)(prev),
	)
	if ctx == nil {
		return nil, lastError(err)
	}
	return certHandle(unsafe.Pointer(ctx)), nil
}

func (cryptAPI) duplicateCertificate(cert certHandle) certHandle {
	return certHandle(unsafe.Pointer(windows.CertDuplicateCertificateContext((*windows.CertContext)(cert))))
}

func (cryptAPI) freeCertificate(cert certHandle) error {
	return lastError(windows.CertFreeCertificateContext((*windows.CertContext)(cert)))
}

// encodedCertificate copies the DER bytes out of the certificate context.
func (cryptAPI) encodedCertificate(cert certHandle) ([]byte, error) {
	ctx := (*windows.CertContext)(cert)
	if ctx == nil || ctx.EncodedCert == nil {
		return nil, ErrInvalidParameter
	}
	der := unsafe.Slice(ctx.EncodedCert, ctx.Length)
	return append([]byte(nil), der...), nil
}

func (cryptAPI) closeStore(store storeHandle, flags uint32) error {
	return lastError(windows.CertCloseStore(windows.Handle(store), flags))
}

// lastError converts the errno captured by x/sys/windows into an ErrCode.
func lastError(err error) error {
	if err == nil {
		return nil
	}
	if errno, ok := err.(windows.Errno); ok {
		return ErrCode(errno)
	}
	return err
}
