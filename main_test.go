package certstore

import (
	"crypto/x509"
	"crypto/x509/pkix"
	"io"
	"log/slog"
	"sort"
	"testing"

	"github.com/github/fakeca"
	gopkcs12 "software.sslmate.com/src/go-pkcs12"
)

type identityFixture int

const (
	iCA identityFixture = iota
	iLeaf
	iOther
)

var (
	caIdentity = fakeca.New(fakeca.IsCA, fakeca.Subject(pkix.Name{
		Organization: []string{"certstore"},
		CommonName:   "ca",
	}))
	leafIdentity = caIdentity.Issue(fakeca.Subject(pkix.Name{
		Organization: []string{"certstore"},
		CommonName:   "leaf",
	}))
	otherIdentity = fakeca.New(fakeca.Subject(pkix.Name{
		Organization: []string{"elsewhere"},
		CommonName:   "other",
	}))
)

func (i identityFixture) identity() *fakeca.Identity {
	switch i {
	case iCA:
		return caIdentity
	case iLeaf:
		return leafIdentity
	case iOther:
		return otherIdentity
	}

	panic("bad fixture")
}

func (i identityFixture) cn() string {
	switch i {
	case iCA:
		return "ca"
	case iLeaf:
		return "leaf"
	case iOther:
		return "other"
	}

	panic("bad fixture")
}

func (i identityFixture) cert() *x509.Certificate {
	return i.identity().Certificate
}

// pfx encodes the leaf identity together with its CA, giving an archive
// with two certificates and one key.
func pfx(t *testing.T, password string) []byte {
	t.Helper()

	enc := gopkcs12.Modern
	if password == "" {
		enc = gopkcs12.Passwordless
	}

	data, err := enc.Encode(leafIdentity.PrivateKey, leafIdentity.Certificate, []*x509.Certificate{caIdentity.Certificate}, password)
	if err != nil {
		t.Fatal(err)
	}

	return data
}

var discardLogger = slog.New(slog.NewTextHandler(io.Discard, nil))

// withStore imports the two certificate fixture archive into b.
func withStore(t *testing.T, b *memoryBackend, cb func(*Store)) {
	t.Helper()

	store, err := Import(pfx(t, "changeit"), "changeit", withBackend(b), WithLogger(discardLogger))
	if err != nil {
		t.Fatal(err)
	}
	defer store.Close()

	cb(store)
}

// withSystemStore registers fixtures as the CurrentUser "MY" store of b and
// opens it.
func withSystemStore(t *testing.T, b *memoryBackend, fixtures []identityFixture, cb func(*Store)) {
	t.Helper()

	b.addSystemStore(CurrentUser, "MY")
	for _, f := range fixtures {
		b.addSystemStore(CurrentUser, "MY", f.cert())
	}

	store, err := Open(CurrentUser, "MY", withBackend(b), WithLogger(discardLogger))
	if err != nil {
		t.Fatal(err)
	}
	defer store.Close()

	cb(store)
}

func closeAll(certs []*Certificate) {
	for _, c := range certs {
		c.Close()
	}
}

// commonNames returns the sorted subject common names of certs.
func commonNames(t *testing.T, certs []*Certificate) []string {
	t.Helper()

	names := make([]string, 0, len(certs))
	for _, c := range certs {
		crt, err := c.X509()
		if err != nil {
			t.Fatal(err)
		}
		names = append(names, crt.Subject.CommonName)
	}
	sort.Strings(names)

	return names
}
