package main

import (
	"testing"

	"github.com/github/certstore/v2"
)

func TestLocationValue(t *testing.T) {
	v := locationValue{certstore.CurrentUser}

	if err := v.Set("local_machine"); err != nil {
		t.Fatal(err)
	}
	if v.Location != certstore.LocalMachine {
		t.Fatalf("expected local_machine, got %s", v)
	}
	if v.String() != "local_machine" {
		t.Fatalf("unexpected string %q", v.String())
	}

	if err := v.Set("nowhere"); err == nil {
		t.Fatal("expected error for unknown location")
	}
	if v.Location != certstore.LocalMachine {
		t.Fatal("failed Set changed the value")
	}
}

func TestLocationFlag(t *testing.T) {
	f := rootCmd.PersistentFlags().Lookup("location")
	if f == nil {
		t.Fatal("expected --location flag")
	}
	if f.Value.Type() != "location" || f.DefValue != "current_user" {
		t.Fatalf("unexpected flag %s=%s", f.Value.Type(), f.DefValue)
	}
}
