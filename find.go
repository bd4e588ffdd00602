package certstore

import "github.com/pkg/errors"

// FindBySubject returns every certificate whose subject name contains
// subject. The match is a case-insensitive substring match performed by the
// platform; an empty string matches every certificate in the store.
func (s *Store) FindBySubject(subject string) ([]*Certificate, error) {
	return s.findByString(subject, certFindSubjectStr)
}

// FindByIssuer returns every certificate whose issuer name contains issuer.
func (s *Store) FindByIssuer(issuer string) ([]*Certificate, error) {
	return s.findByString(issuer, certFindIssuerStr)
}

// findByString walks the store with the platform find cursor. The context
// returned by each call is only valid until it is passed back as prev, so it
// is duplicated before the next call and the duplicate is what the caller
// receives.
//
// A nil result always ends the search. The platform reports the end of the
// results and a failed lookup the same way, so the last error is only logged.
func (s *Store) findByString(text string, findType uint32) ([]*Certificate, error) {
	para, err := utf16z(text)
	if err != nil {
		return nil, errors.Wrapf(err, "searching for %q", text)
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.closed {
		return nil, ErrClosed
	}

	var (
		certs []*Certificate
		cur   certHandle
	)
	for {
		cur, err = s.b.findCertificate(s.h, encodingType, 0, findType, para, cur)
		if cur == nil {
			break
		}
		certs = append(certs, newCertificate(s.b, s.log, s.b.duplicateCertificate(cur)))
	}

	if code, ok := Code(err); err != nil && (!ok || code != ErrCryptNotFound) {
		s.log.Debug("certificate search ended with error", "text", text, "error", err)
	}
	s.log.Debug("searched certificate store", "text", text, "matches", len(certs))

	return certs, nil
}
