package certstore

import (
	"crypto/x509"
	"strings"
	"sync"
	"unsafe"
)

// memoryBackend is an in-process certificate store API with the same
// reference counting and cursor rules as crypt32. Contexts handed out by
// findCertificate and duplicateCertificate are counted, and a find call
// releases the context passed to it as prev.
type memoryBackend struct {
	mu     sync.Mutex
	next   storeHandle
	open   map[storeHandle]*memStore
	system map[systemStoreKey]*memStore
	known  map[*memStore]bool
	stats  memoryStats
}

// memoryStats counts calls that succeeded.
type memoryStats struct {
	Opens      int
	Imports    int
	Closes     int
	Finds      int
	Duplicates int
	Frees      int
}

type systemStoreKey struct {
	location uint32
	name     string
}

type memStore struct {
	certs []*memCert
}

type memCert struct {
	der     []byte
	subject string
	issuer  string
	key     any
	refs    int
}

func newMemoryBackend() *memoryBackend {
	return &memoryBackend{
		next:   1,
		open:   make(map[storeHandle]*memStore),
		system: make(map[systemStoreKey]*memStore),
		known:  make(map[*memStore]bool),
	}
}

func newMemCert(crt *x509.Certificate, key any) *memCert {
	return &memCert{
		der:     append([]byte(nil), crt.Raw...),
		subject: strings.ToLower(crt.Subject.String()),
		issuer:  strings.ToLower(crt.Issuer.String()),
		key:     key,
	}
}

// addSystemStore creates or extends the named system store at loc.
func (b *memoryBackend) addSystemStore(loc Location, name string, crts ...*x509.Certificate) {
	b.mu.Lock()
	defer b.mu.Unlock()

	k := systemStoreKey{location: loc.flags(), name: strings.ToUpper(name)}
	s, ok := b.system[k]
	if !ok {
		s = &memStore{}
		b.system[k] = s
		b.known[s] = true
	}
	for _, crt := range crts {
		s.certs = append(s.certs, newMemCert(crt, nil))
	}
}

// snapshot returns the call counters.
func (b *memoryBackend) snapshot() memoryStats {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.stats
}

// liveRefs returns the number of certificate references not yet freed.
func (b *memoryBackend) liveRefs() int {
	b.mu.Lock()
	defer b.mu.Unlock()

	n := 0
	for s := range b.known {
		for _, c := range s.certs {
			n += c.refs
		}
	}
	return n
}

// openHandles returns the number of store handles not yet closed.
func (b *memoryBackend) openHandles() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.open)
}

func (b *memoryBackend) register(s *memStore) storeHandle {
	h := b.next
	b.next++
	b.open[h] = s
	return h
}

func (b *memoryBackend) openStore(provider uintptr, encoding, flags uint32, name []uint16) (storeHandle, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if provider != certStoreProvSystem || flags&certStoreOpenExisting == 0 {
		return 0, ErrInvalidParameter
	}
	k := systemStoreKey{
		location: flags & systemStoreLocationMask,
		name:     strings.ToUpper(utf16zString(name)),
	}
	if k.name == "" {
		return 0, ErrInvalidParameter
	}
	s, ok := b.system[k]
	if !ok {
		return 0, ErrFileNotFound
	}

	b.stats.Opens++
	return b.register(s), nil
}

func (b *memoryBackend) importPFX(data []byte, password []uint16, flags uint32) (storeHandle, error) {
	s, err := decodeArchive(data, utf16zString(password))
	if err != nil {
		return 0, err
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	b.known[s] = true
	b.stats.Imports++
	return b.register(s), nil
}

func (b *memoryBackend) findCertificate(store storeHandle, encoding, findFlags, findType uint32, para []uint16, prev certHandle) (certHandle, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	s, ok := b.open[store]
	if !ok {
		return nil, ErrInvalidHandle
	}

	start := 0
	if prev != nil {
		p := (*memCert)(prev)
		if p.refs <= 0 {
			return nil, ErrInvalidParameter
		}
		p.refs--
		b.stats.Frees++

		start = len(s.certs)
		for i, c := range s.certs {
			if c == p {
				start = i + 1
				break
			}
		}
	}

	if encoding&encodingX509ASN == 0 {
		return nil, ErrCryptNotFound
	}

	text := strings.ToLower(utf16zString(para))
	for _, c := range s.certs[start:] {
		var name string
		switch findType {
		case certFindSubjectStr:
			name = c.subject
		case certFindIssuerStr:
			name = c.issuer
		default:
			return nil, ErrInvalidParameter
		}
		if strings.Contains(name, text) {
			c.refs++
			b.stats.Finds++
			return certHandle(unsafe.Pointer(c)), nil
		}
	}
	return nil, ErrCryptNotFound
}

func (b *memoryBackend) duplicateCertificate(cert certHandle) certHandle {
	if cert == nil {
		return nil
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	(*memCert)(cert).refs++
	b.stats.Duplicates++
	return cert
}

func (b *memoryBackend) freeCertificate(cert certHandle) error {
	if cert == nil {
		return nil
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	c := (*memCert)(cert)
	if c.refs <= 0 {
		return ErrInvalidParameter
	}
	c.refs--
	b.stats.Frees++
	return nil
}

func (b *memoryBackend) encodedCertificate(cert certHandle) ([]byte, error) {
	if cert == nil {
		return nil, ErrInvalidParameter
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	c := (*memCert)(cert)
	if c.refs <= 0 {
		return nil, ErrInvalidHandle
	}
	return append([]byte(nil), c.der...), nil
}

func (b *memoryBackend) closeStore(store storeHandle, flags uint32) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if _, ok := b.open[store]; !ok {
		return ErrInvalidHandle
	}
	delete(b.open, store)
	b.stats.Closes++
	return nil
}
