package certstore

import (
	"fmt"
	"strings"

	"github.com/pkg/errors"
)

// Location is the system namespace a certificate store lives in.
type Location int

const (
	// LocalMachine stores are shared by every user on the machine.
	LocalMachine Location = iota
	// CurrentUser stores belong to the calling user's profile.
	CurrentUser
	// CurrentService stores belong to the service the caller runs as.
	CurrentService
)

// wincrypt.h system store location IDs.
const (
	systemStoreCurrentUserID    = 1  // CERT_SYSTEM_STORE_CURRENT_USER_ID
	systemStoreLocalMachineID   = 2  // CERT_SYSTEM_STORE_LOCAL_MACHINE_ID
	systemStoreCurrentServiceID = 4  // CERT_SYSTEM_STORE_CURRENT_SERVICE_ID
	systemStoreLocationShift    = 16 // CERT_SYSTEM_STORE_LOCATION_SHIFT
)

// flags returns the CertOpenStore location flag for l, or zero when l is
// not a known location.
func (l Location) flags() uint32 {
	switch l {
	case LocalMachine:
		return systemStoreLocalMachineID << systemStoreLocationShift
	case CurrentUser:
		return systemStoreCurrentUserID << systemStoreLocationShift
	case CurrentService:
		return systemStoreCurrentServiceID << systemStoreLocationShift
	}
	return 0
}

func (l Location) String() string {
	switch l {
	case LocalMachine:
		return "local_machine"
	case CurrentUser:
		return "current_user"
	case CurrentService:
		return "current_service"
	}
	return fmt.Sprintf("Location(%d)", int(l))
}

// ParseLocation parses the names produced by Location.String. Case, dashes
// and underscores are ignored, so "CurrentUser" and "current-user" are
// accepted too.
func ParseLocation(s string) (Location, error) {
	norm := strings.NewReplacer("_", "", "-", "").Replace(strings.ToLower(s))
	switch norm {
	case "localmachine":
		return LocalMachine, nil
	case "currentuser":
		return CurrentUser, nil
	case "currentservice":
		return CurrentService, nil
	}
	return 0, errors.Errorf("unknown store location %q", s)
}
