package certstore

import (
	"bytes"
	"crypto/aes"
	"crypto/cipher"
	"crypto/sha1"
	"crypto/sha256"
	"crypto/sha512"
	"crypto/x509"
	"crypto/x509/pkix"
	"encoding/asn1"
	"encoding/hex"
	"encoding/pem"
	"hash"

	"github.com/pkg/errors"
	"golang.org/x/crypto/pbkdf2"
	gopkcs12 "software.sslmate.com/src/go-pkcs12"
)

var (
	oidDataContentType          = asn1.ObjectIdentifier{1, 2, 840, 113549, 1, 7, 1}
	oidEncryptedDataContentType = asn1.ObjectIdentifier{1, 2, 840, 113549, 1, 7, 6}
	oidKeyBag                   = asn1.ObjectIdentifier{1, 2, 840, 113549, 1, 12, 10, 1, 1}
	oidShroudedKeyBag           = asn1.ObjectIdentifier{1, 2, 840, 113549, 1, 12, 10, 1, 2}
	oidCertBag                  = asn1.ObjectIdentifier{1, 2, 840, 113549, 1, 12, 10, 1, 3}
	oidCertTypeX509             = asn1.ObjectIdentifier{1, 2, 840, 113549, 1, 9, 22, 1}
	oidLocalKeyID               = asn1.ObjectIdentifier{1, 2, 840, 113549, 1, 9, 21}
	oidPBES2                    = asn1.ObjectIdentifier{1, 2, 840, 113549, 1, 5, 13}
	oidPBKDF2                   = asn1.ObjectIdentifier{1, 2, 840, 113549, 1, 5, 12}
	oidHMACWithSHA1             = asn1.ObjectIdentifier{1, 2, 840, 113549, 2, 7}
	oidHMACWithSHA256           = asn1.ObjectIdentifier{1, 2, 840, 113549, 2, 9}
	oidHMACWithSHA512           = asn1.ObjectIdentifier{1, 2, 840, 113549, 2, 11}
	oidAES128CBC                = asn1.ObjectIdentifier{2, 16, 840, 1, 101, 3, 4, 1, 2}
	oidAES192CBC                = asn1.ObjectIdentifier{2, 16, 840, 1, 101, 3, 4, 1, 22}
	oidAES256CBC                = asn1.ObjectIdentifier{2, 16, 840, 1, 101, 3, 4, 1, 42}
)

// decodeArchive reads every certificate, and any private key paired with
// one, out of a PKCS#12 archive. Archives are tried against go-pkcs12's
// decoders from the strictest to the most general:
//
//   - DecodeChain: one key and its chain
//   - DecodeTrustStore: Java trust stores
//   - ToPEM: two safes holding any number of keys and certificates
//
// Anything left, such as the single encrypted safe that
// `openssl pkcs12 -export -nokeys` writes, is walked bag by bag.
func decodeArchive(data []byte, password string) (*memStore, error) {
	key, leaf, chain, err := gopkcs12.DecodeChain(data, password)
	if err == nil {
		s := &memStore{certs: []*memCert{newMemCert(leaf, key)}}
		for _, crt := range chain {
			s.certs = append(s.certs, newMemCert(crt, nil))
		}
		return s, nil
	}
	if errors.Is(err, gopkcs12.ErrIncorrectPassword) {
		return nil, ErrInvalidPassword
	}

	if crts, err := gopkcs12.DecodeTrustStore(data, password); err == nil && len(crts) > 0 {
		s := &memStore{}
		for _, crt := range crts {
			s.certs = append(s.certs, newMemCert(crt, nil))
		}
		return s, nil
	}

	blocks, err := gopkcs12.ToPEM(data, password)
	if errors.Is(err, gopkcs12.ErrIncorrectPassword) {
		return nil, ErrInvalidPassword
	}
	var a *archive
	if err == nil {
		a, err = archiveFromPEM(blocks)
	} else {
		// ToPEM has verified the MAC by the time it rejects the layout.
		a, err = walkArchive(data, password)
	}
	if err != nil || len(a.certs) == 0 {
		return nil, ErrCryptBadEncode
	}
	return a.store(), nil
}

// archive collects the bags of a PKCS#12 file. Keys are matched to
// certificates by their localKeyId attribute.
type archive struct {
	certs []archiveCert
	keys  map[string]any
}

type archiveCert struct {
	crt   *x509.Certificate
	keyID string
}

func (a *archive) addCert(der []byte, keyID string) error {
	crt, err := x509.ParseCertificate(der)
	if err != nil {
		return err
	}
	a.certs = append(a.certs, archiveCert{crt: crt, keyID: keyID})
	return nil
}

func (a *archive) addKey(key any, keyID string) {
	if a.keys == nil {
		a.keys = make(map[string]any)
	}
	a.keys[keyID] = key
}

func (a *archive) store() *memStore {
	s := &memStore{}
	for _, c := range a.certs {
		var key any
		if c.keyID != "" {
			key = a.keys[c.keyID]
		}
		s.certs = append(s.certs, newMemCert(c.crt, key))
	}
	return s
}

func archiveFromPEM(blocks []*pem.Block) (*archive, error) {
	a := &archive{}
	for _, block := range blocks {
		keyID := block.Headers["localKeyId"]
		switch block.Type {
		case "CERTIFICATE":
			if err := a.addCert(block.Bytes, keyID); err != nil {
				return nil, err
			}
		case "PRIVATE KEY":
			key, err := parsePrivateKey(block.Bytes)
			if err != nil {
				return nil, err
			}
			a.addKey(key, keyID)
		}
	}
	return a, nil
}

// parsePrivateKey accepts PKCS#8 and, since ToPEM labels them all
// "PRIVATE KEY", PKCS#1 and SEC 1 keys.
func parsePrivateKey(der []byte) (any, error) {
	if key, err := x509.ParsePKCS8PrivateKey(der); err == nil {
		return key, nil
	}
	if key, err := x509.ParsePKCS1PrivateKey(der); err == nil {
		return key, nil
	}
	if key, err := x509.ParseECPrivateKey(der); err == nil {
		return key, nil
	}
	return nil, errors.New("parsing PRIVATE KEY block with any known format")
}

type pfxPDU struct {
	Version  int
	AuthSafe contentInfo
	MacData  asn1.RawValue `asn1:"optional"`
}

type contentInfo struct {
	ContentType asn1.ObjectIdentifier
	Content     asn1.RawValue `asn1:"tag:0,explicit,optional"`
}

type encryptedData struct {
	Version              int
	EncryptedContentInfo encryptedContentInfo
}

type encryptedContentInfo struct {
	ContentType                asn1.ObjectIdentifier
	ContentEncryptionAlgorithm pkix.AlgorithmIdentifier
	EncryptedContent           []byte `asn1:"tag:0,optional"`
}

type encryptedPrivateKeyInfo struct {
	Algorithm     pkix.AlgorithmIdentifier
	EncryptedData []byte
}

type safeBag struct {
	ID         asn1.ObjectIdentifier
	Value      asn1.RawValue  `asn1:"tag:0,explicit"`
	Attributes []bagAttribute `asn1:"set,optional"`
}

type bagAttribute struct {
	ID    asn1.ObjectIdentifier
	Value asn1.RawValue `asn1:"set"`
}

type certBag struct {
	ID   asn1.ObjectIdentifier
	Data []byte `asn1:"tag:0,explicit"`
}

type pbes2Params struct {
	KDF              pkix.AlgorithmIdentifier
	EncryptionScheme pkix.AlgorithmIdentifier
}

type pbkdf2Params struct {
	Salt       asn1.RawValue
	Iterations int
	KeyLength  int                      `asn1:"optional"`
	PRF        pkix.AlgorithmIdentifier `asn1:"optional"`
}

// walkArchive reads the bags of any number of plain or PBES2 encrypted
// safes. The legacy PKCS#12 PBE ciphers are left to go-pkcs12. The caller
// must have checked the MAC.
func walkArchive(data []byte, password string) (*archive, error) {
	var pfx pfxPDU
	if err := unmarshalDER(data, &pfx); err != nil {
		return nil, err
	}
	if pfx.Version != 3 || !pfx.AuthSafe.ContentType.Equal(oidDataContentType) {
		return nil, errors.New("unsupported PFX layout")
	}
	if len(pfx.MacData.FullBytes) == 0 && password != "" {
		return nil, errors.New("archive has no MAC")
	}

	var authSafe []byte
	if err := unmarshalDER(pfx.AuthSafe.Content.Bytes, &authSafe); err != nil {
		return nil, err
	}
	var safes []contentInfo
	if err := unmarshalDER(authSafe, &safes); err != nil {
		return nil, err
	}

	a := &archive{}
	for _, ci := range safes {
		var contents []byte
		switch {
		case ci.ContentType.Equal(oidDataContentType):
			if err := unmarshalDER(ci.Content.Bytes, &contents); err != nil {
				return nil, err
			}
		case ci.ContentType.Equal(oidEncryptedDataContentType):
			var ed encryptedData
			if err := unmarshalDER(ci.Content.Bytes, &ed); err != nil {
				return nil, err
			}
			var err error
			info := ed.EncryptedContentInfo
			if contents, err = pbes2Decrypt(info.ContentEncryptionAlgorithm, info.EncryptedContent, password); err != nil {
				return nil, err
			}
		default:
			return nil, errors.Errorf("unsupported safe content type %s", ci.ContentType)
		}

		var bags []safeBag
		if err := unmarshalDER(contents, &bags); err != nil {
			return nil, err
		}
		for _, bag := range bags {
			if err := a.addBag(bag, password); err != nil {
				return nil, err
			}
		}
	}
	return a, nil
}

func (a *archive) addBag(bag safeBag, password string) error {
	keyID, err := bagKeyID(bag.Attributes)
	if err != nil {
		return err
	}

	switch {
	case bag.ID.Equal(oidCertBag):
		var cb certBag
		if err := unmarshalDER(bag.Value.Bytes, &cb); err != nil {
			return err
		}
		if !cb.ID.Equal(oidCertTypeX509) {
			return nil
		}
		return a.addCert(cb.Data, keyID)
	case bag.ID.Equal(oidKeyBag):
		key, err := x509.ParsePKCS8PrivateKey(bag.Value.Bytes)
		if err != nil {
			return err
		}
		a.addKey(key, keyID)
	case bag.ID.Equal(oidShroudedKeyBag):
		var epki encryptedPrivateKeyInfo
		if err := unmarshalDER(bag.Value.Bytes, &epki); err != nil {
			return err
		}
		der, err := pbes2Decrypt(epki.Algorithm, epki.EncryptedData, password)
		if err != nil {
			return err
		}
		key, err := x509.ParsePKCS8PrivateKey(der)
		if err != nil {
			return err
		}
		a.addKey(key, keyID)
	}
	return nil
}

func bagKeyID(attrs []bagAttribute) (string, error) {
	for _, attr := range attrs {
		if !attr.ID.Equal(oidLocalKeyID) {
			continue
		}
		var id []byte
		if err := unmarshalDER(attr.Value.Bytes, &id); err != nil {
			return "", err
		}
		return hex.EncodeToString(id), nil
	}
	return "", nil
}

// pbes2Decrypt decrypts PBES2 (RFC 8018) content with a PBKDF2 key and
// AES-CBC. The password is used as UTF-8, as Windows and OpenSSL do.
func pbes2Decrypt(alg pkix.AlgorithmIdentifier, encrypted []byte, password string) ([]byte, error) {
	if !alg.Algorithm.Equal(oidPBES2) {
		return nil, errors.Errorf("unsupported encryption algorithm %s", alg.Algorithm)
	}

	var params pbes2Params
	if err := unmarshalDER(alg.Parameters.FullBytes, &params); err != nil {
		return nil, err
	}
	if !params.KDF.Algorithm.Equal(oidPBKDF2) {
		return nil, errors.Errorf("unsupported key derivation %s", params.KDF.Algorithm)
	}
	var kdf pbkdf2Params
	if err := unmarshalDER(params.KDF.Parameters.FullBytes, &kdf); err != nil {
		return nil, err
	}
	if kdf.Salt.Tag != asn1.TagOctetString {
		return nil, errors.New("unsupported PBKDF2 salt source")
	}

	var prf func() hash.Hash
	switch {
	case kdf.PRF.Algorithm == nil, kdf.PRF.Algorithm.Equal(oidHMACWithSHA1):
		prf = sha1.New
	case kdf.PRF.Algorithm.Equal(oidHMACWithSHA256):
		prf = sha256.New
	case kdf.PRF.Algorithm.Equal(oidHMACWithSHA512):
		prf = sha512.New
	default:
		return nil, errors.Errorf("unsupported PBKDF2 PRF %s", kdf.PRF.Algorithm)
	}

	var keyLen int
	switch {
	case params.EncryptionScheme.Algorithm.Equal(oidAES128CBC):
		keyLen = 16
	case params.EncryptionScheme.Algorithm.Equal(oidAES192CBC):
		keyLen = 24
	case params.EncryptionScheme.Algorithm.Equal(oidAES256CBC):
		keyLen = 32
	default:
		return nil, errors.Errorf("unsupported cipher %s", params.EncryptionScheme.Algorithm)
	}

	block, err := aes.NewCipher(pbkdf2.Key([]byte(password), kdf.Salt.Bytes, kdf.Iterations, keyLen, prf))
	if err != nil {
		return nil, err
	}
	iv := params.EncryptionScheme.Parameters.Bytes
	if len(iv) != block.BlockSize() {
		return nil, errors.New("bad initialization vector")
	}
	if len(encrypted) == 0 || len(encrypted)%block.BlockSize() != 0 {
		return nil, errors.New("encrypted content is not a whole number of blocks")
	}

	out := make([]byte, len(encrypted))
	cipher.NewCBCDecrypter(block, iv).CryptBlocks(out, encrypted)

	n := int(out[len(out)-1])
	if n == 0 || n > block.BlockSize() || !bytes.Equal(out[len(out)-n:], bytes.Repeat([]byte{byte(n)}, n)) {
		return nil, errors.New("bad padding")
	}
	return out[:len(out)-n], nil
}

func unmarshalDER(in []byte, out any) error {
	rest, err := asn1.Unmarshal(in, out)
	if err != nil {
		return err
	}
	if len(rest) != 0 {
		return errors.New("trailing data after DER value")
	}
	return nil
}
