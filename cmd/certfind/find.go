package main

import (
	"log/slog"
	"os"

	"github.com/github/certstore/v2"
	"github.com/mattn/go-isatty"
	"github.com/pkg/errors"
	"github.com/spf13/cobra"
)

var subjectCmd = &cobra.Command{
	Use:   "subject <text>",
	Short: "Find certificates by subject",
	Example: `  certfind subject "Ben Toews"
  certfind subject "" --location local_machine --store ROOT
  certfind subject example.com --pfx client.pfx --password changeit --format yaml`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runFind(args[0], (*certstore.Store).FindBySubject)
	},
}

var issuerCmd = &cobra.Command{
	Use:   "issuer <text>",
	Short: "Find certificates by issuer",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runFind(args[0], (*certstore.Store).FindByIssuer)
	},
}

type finder func(*certstore.Store, string) ([]*certstore.Certificate, error)

func runFind(text string, find finder) error {
	store, err := openStore()
	if err != nil {
		return err
	}
	defer store.Close()

	certs, err := find(store, text)
	if err != nil {
		return err
	}
	for _, c := range certs {
		defer c.Close()
	}

	recs := make([]certRecord, 0, len(certs))
	for _, c := range certs {
		crt, err := c.X509()
		if err != nil {
			slog.Warn("skipping unreadable certificate", "error", err)
			continue
		}
		recs = append(recs, newCertRecord(crt))
	}

	tty := isatty.IsTerminal(os.Stdout.Fd()) || isatty.IsCygwinTerminal(os.Stdout.Fd())
	return writeRecords(os.Stdout, recs, outputFormat, tty)
}

func openStore() (*certstore.Store, error) {
	if pfxPath == "" {
		return certstore.Open(location.Location, storeName, certstore.WithLogger(slog.Default()))
	}

	data, err := os.ReadFile(pfxPath)
	if err != nil {
		return nil, errors.Wrap(err, "reading archive")
	}
	return certstore.Import(data, pfxPassword, certstore.WithLogger(slog.Default()))
}
