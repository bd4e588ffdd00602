package certstore

import "testing"

func TestLocationFlags(t *testing.T) {
	for loc, expected := range map[Location]uint32{
		LocalMachine:   0x00020000,
		CurrentUser:    0x00010000,
		CurrentService: 0x00040000,
	} {
		if f := loc.flags(); f != expected {
			t.Fatalf("%s: expected 0x%08X, got 0x%08X", loc, expected, f)
		}
		if f := loc.flags() | certStoreOpenExisting; f&systemStoreLocationMask != expected {
			t.Fatalf("%s: open flags overlap location field", loc)
		}
	}

	if f := Location(9).flags(); f != 0 {
		t.Fatalf("expected no flags for unknown location. got 0x%08X", f)
	}
}

func TestParseLocation(t *testing.T) {
	for s, expected := range map[string]Location{
		"local_machine":   LocalMachine,
		"LocalMachine":    LocalMachine,
		"current-user":    CurrentUser,
		"CURRENT_USER":    CurrentUser,
		"current_service": CurrentService,
	} {
		loc, err := ParseLocation(s)
		if err != nil {
			t.Fatal(err)
		}
		if loc != expected {
			t.Fatalf("%q: expected %s, got %s", s, expected, loc)
		}
	}

	for _, loc := range []Location{LocalMachine, CurrentUser, CurrentService} {
		parsed, err := ParseLocation(loc.String())
		if err != nil || parsed != loc {
			t.Fatalf("round trip of %s failed: %v", loc, err)
		}
	}

	if _, err := ParseLocation("roaming"); err == nil {
		t.Fatal("expected error for unknown location")
	}
}
