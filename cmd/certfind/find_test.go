package main

import (
	"crypto/x509"
	"crypto/x509/pkix"
	"os"
	"path/filepath"
	"testing"

	"github.com/github/fakeca"
	gopkcs12 "software.sslmate.com/src/go-pkcs12"
)

func TestOpenStoreFromArchive(t *testing.T) {
	ca := fakeca.New(fakeca.IsCA, fakeca.Subject(pkix.Name{CommonName: "ca"}))
	id := ca.Issue(fakeca.Subject(pkix.Name{CommonName: "client"}))

	data, err := gopkcs12.Modern.Encode(id.PrivateKey, id.Certificate, []*x509.Certificate{ca.Certificate}, "changeit")
	if err != nil {
		t.Fatal(err)
	}

	path := filepath.Join(t.TempDir(), "client.pfx")
	if err := os.WriteFile(path, data, 0o600); err != nil {
		t.Fatal(err)
	}

	pfxPath, pfxPassword = path, "changeit"
	defer func() { pfxPath, pfxPassword = "", "" }()

	store, err := openStore()
	if err != nil {
		t.Fatal(err)
	}
	defer store.Close()

	certs, err := store.FindByIssuer("CN=ca")
	if err != nil {
		t.Fatal(err)
	}
	for _, c := range certs {
		defer c.Close()
	}

	if len(certs) != 2 {
		t.Fatalf("expected 2 certificates. got %d", len(certs))
	}
}

func TestOpenStoreMissingArchive(t *testing.T) {
	pfxPath = filepath.Join(t.TempDir(), "missing.pfx")
	defer func() { pfxPath = "" }()

	if _, err := openStore(); err == nil {
		t.Fatal("expected error for missing archive")
	}
}
