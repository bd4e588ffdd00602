package main

import (
	"crypto/sha1"
	"crypto/x509"
	"fmt"
	"io"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"
)

// certRecord is the printed form of a certificate.
type certRecord struct {
	Subject    string    `yaml:"subject"`
	Issuer     string    `yaml:"issuer"`
	Serial     string    `yaml:"serial"`
	NotBefore  time.Time `yaml:"not_before"`
	NotAfter   time.Time `yaml:"not_after"`
	Thumbprint string    `yaml:"thumbprint"`
}

func newCertRecord(crt *x509.Certificate) certRecord {
	return certRecord{
		Subject:    crt.Subject.String(),
		Issuer:     crt.Issuer.String(),
		Serial:     crt.SerialNumber.Text(16),
		NotBefore:  crt.NotBefore.UTC(),
		NotAfter:   crt.NotAfter.UTC(),
		Thumbprint: fmt.Sprintf("%X", sha1.Sum(crt.Raw)),
	}
}

// writeRecords prints recs as yaml or text. Text output is aligned into
// columns with a header when tty is set, and is one tab-separated line per
// certificate otherwise.
func writeRecords(w io.Writer, recs []certRecord, format string, tty bool) error {
	switch strings.ToLower(format) {
	case "yaml":
		enc := yaml.NewEncoder(w)
		if err := enc.Encode(recs); err != nil {
			return err
		}
		return enc.Close()
	case "text", "":
	default:
		return errors.Errorf("unsupported output format %q", format)
	}

	out := w
	var tw *tabwriter.Writer
	if tty {
		tw = tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
		out = tw
		fmt.Fprintln(out, "THUMBPRINT\tSUBJECT\tISSUER\tNOT AFTER")
	}
	for _, r := range recs {
		fmt.Fprintf(out, "%s\t%s\t%s\t%s\n", r.Thumbprint, r.Subject, r.Issuer, r.NotAfter.Format(time.RFC3339))
	}
	if tw != nil {
		return tw.Flush()
	}
	return nil
}
