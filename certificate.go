package certstore

import (
	"crypto/x509"
	"log/slog"
	"runtime"
	"sync"

	"github.com/pkg/errors"
)

var errCertificateClosed = errors.New("certificate closed")

// Certificate is an owned reference to a native certificate context. It
// stays valid after the Store it was found in is closed, and must be closed
// itself.
type Certificate struct {
	b   backend
	log *slog.Logger

	mu     sync.Mutex
	h      certHandle
	crt    *x509.Certificate
	closed bool
}

// newCertificate takes ownership of h, which must already carry a reference
// for the new Certificate.
func newCertificate(b backend, log *slog.Logger, h certHandle) *Certificate {
	c := &Certificate{b: b, log: log, h: h}
	runtime.SetFinalizer(c, (*Certificate).Close)
	return c
}

// Raw returns a copy of the DER encoded certificate.
func (c *Certificate) Raw() ([]byte, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return nil, errCertificateClosed
	}
	return c.b.encodedCertificate(c.h)
}

// X509 parses the certificate.
func (c *Certificate) X509() (*x509.Certificate, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return nil, errCertificateClosed
	}

	if c.crt != nil {
		return c.crt, nil
	}

	der, err := c.b.encodedCertificate(c.h)
	if err != nil {
		return nil, errors.Wrap(err, "reading certificate context")
	}

	crt, err := x509.ParseCertificate(der)
	if err != nil {
		return nil, errors.Wrap(err, "parsing certificate")
	}

	c.crt = crt

	return c.crt, nil
}

// Close releases the certificate context. Calling Close more than once is a
// no-op.
func (c *Certificate) Close() {
	if c == nil {
		return
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return
	}
	c.closed = true
	runtime.SetFinalizer(c, nil)

	if c.h != nil {
		if err := c.b.freeCertificate(c.h); err != nil {
			c.log.Warn("releasing certificate context", "error", err)
		}
	}
	c.h = nil
}
