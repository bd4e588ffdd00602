package main

import (
	"github.com/github/certstore/v2"
	"github.com/spf13/cobra"
)

var (
	logLevel     string
	location     = locationValue{certstore.CurrentUser}
	storeName    string
	pfxPath      string
	pfxPassword  string
	outputFormat string
)

var rootCmd = &cobra.Command{
	Use:   "certfind",
	Short: "Search a certificate store",
	Long:  "List the certificates in a system certificate store or PKCS#12 archive whose subject or issuer contains a string.",
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		setupLogger(logLevel)
	},
	SilenceUsage: true,
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&logLevel, "log-level", "l", "warn", "Log level: debug, info, warn, error")
	rootCmd.PersistentFlags().VarP(&location, "location", "L", "Store location: current_user, local_machine, current_service")
	rootCmd.PersistentFlags().StringVarP(&storeName, "store", "s", "MY", "System store name, e.g. MY or ROOT")
	rootCmd.PersistentFlags().StringVar(&pfxPath, "pfx", "", "Search a PKCS#12 archive instead of a system store")
	rootCmd.PersistentFlags().StringVarP(&pfxPassword, "password", "p", "", "Password for --pfx")
	rootCmd.PersistentFlags().StringVarP(&outputFormat, "format", "f", "text", "Output format: text or yaml")

	rootCmd.AddCommand(subjectCmd)
	rootCmd.AddCommand(issuerCmd)
}
