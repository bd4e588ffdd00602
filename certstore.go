// Package certstore provides access to the platform certificate store.
//
// A Store owns exactly one native store handle. It is obtained either from a
// system location with Open or from a PKCS#12 archive with Import, and must be
// released with Close. Searches return Certificates that hold their own
// reference to the native certificate context and must be closed
// independently of the Store they came from.
package certstore

import (
	"log/slog"
	"runtime"
	"sync"

	"github.com/pkg/errors"
)

// Store is an open native certificate store. It is safe for concurrent use.
type Store struct {
	b   backend
	log *slog.Logger

	mu     sync.RWMutex
	h      storeHandle
	closed bool
}

// Open opens the existing system store name (for example "MY" or "ROOT") at
// loc. It never creates a store.
func Open(loc Location, name string, opts ...Option) (*Store, error) {
	o := newOptions(opts)

	flags := loc.flags()
	if flags == 0 {
		return nil, errors.Wrapf(ErrInvalidParameter, "opening %s store %q", loc, name)
	}

	wname, err := utf16z(name)
	if err != nil {
		return nil, errors.Wrapf(err, "opening %s store %q", loc, name)
	}

	h, err := o.backend.openStore(certStoreProvSystem, 0, flags|certStoreOpenExisting, wname)
	if err != nil {
		return nil, errors.Wrapf(err, "opening %s store %q", loc, name)
	}

	o.log.Debug("opened certificate store", "location", loc, "name", name)
	return newStore(o, h), nil
}

// Import builds an in-memory store from a PKCS#12 archive. An empty password
// is valid. Keys are imported without any flags: they are not exportable and
// do not outlive the process.
func Import(data []byte, password string, opts ...Option) (*Store, error) {
	o := newOptions(opts)

	wpass, err := utf16z(password)
	if err != nil {
		return nil, errors.Wrap(err, "importing PKCS#12 archive")
	}

	h, err := o.backend.importPFX(data, wpass, pfxImportDefaultFlags)
	if err != nil {
		return nil, errors.Wrap(err, "importing PKCS#12 archive")
	}

	o.log.Debug("imported PKCS#12 archive", "bytes", len(data))
	return newStore(o, h), nil
}

func newStore(o *options, h storeHandle) *Store {
	s := &Store{b: o.backend, log: o.log, h: h}
	runtime.SetFinalizer(s, (*Store).Close)
	return s
}

// Handle returns the native HCERTSTORE for store-bound certificate
// operations. The handle stays owned by s and is zero once s is closed.
func (s *Store) Handle() uintptr {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return uintptr(s.h)
}

// Close releases the native store. It waits for searches in progress and
// may be called more than once. Certificates returned by earlier searches
// remain valid until they are closed.
func (s *Store) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return
	}
	s.closed = true
	runtime.SetFinalizer(s, nil)

	if err := s.b.closeStore(s.h, certCloseStoreNoFlags); err != nil {
		s.log.Warn("closing certificate store", "error", err)
	}
	s.h = 0
}
