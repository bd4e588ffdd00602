package main

import (
	"github.com/github/certstore/v2"
	"github.com/spf13/pflag"
)

// locationValue is a pflag.Value for a certstore.Location.
type locationValue struct {
	certstore.Location
}

var _ pflag.Value = (*locationValue)(nil)

func (v *locationValue) Set(s string) error {
	loc, err := certstore.ParseLocation(s)
	if err != nil {
		return err
	}
	v.Location = loc
	return nil
}

func (v *locationValue) Type() string {
	return "location"
}
