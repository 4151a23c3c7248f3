package catalog

import (
	"crypto/hmac"
	"crypto/md5" //nolint:gosec // the provider's legacy signing scheme
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"hash"
	"sort"
	"strings"

	"github.com/IsaacDawn/Alibee-Affiliate-API/internal/domain"
)

// Scheme selects how a request is signed.
type Scheme int

const (
	// SchemeMD5Wrap is MD5(secret + k1v1k2v2... + secret).
	SchemeMD5Wrap Scheme = iota + 1
	// SchemeHMACSHA256 is HMAC-SHA256("k1=v1&k2=v2...") keyed by the secret.
	SchemeHMACSHA256
)

// ParseScheme maps a sign_method tag to its Scheme.
func ParseScheme(method string) (Scheme, error) {
	switch strings.ToLower(strings.TrimSpace(method)) {
	case "md5":
		return SchemeMD5Wrap, nil
	case "sha256", "hmac-sha256", "hmac_sha256":
		return SchemeHMACSHA256, nil
	default:
		return 0, &domain.ConfigurationError{Field: "ALI_SIGN_METHOD"}
	}
}

// String returns the sign_method tag sent to the provider.
func (s Scheme) String() string {
	switch s {
	case SchemeMD5Wrap:
		return "md5"
	case SchemeHMACSHA256:
		return "sha256"
	default:
		return fmt.Sprintf("Scheme(%d)", int(s))
	}
}

// Sign computes the uppercase hex signature of params. The result does not
// depend on map iteration order.
func Sign(params map[string]string, secret string, scheme Scheme) (string, error) {
	if secret == "" {
		return "", &domain.ConfigurationError{Field: "ALI_APP_SECRET"}
	}

	switch scheme {
	case SchemeMD5Wrap:
		return signMD5Wrap(params, secret), nil
	case SchemeHMACSHA256:
		return signHMAC(params, secret), nil
	default:
		return "", &domain.ConfigurationError{Field: "ALI_SIGN_METHOD"}
	}
}

func signMD5Wrap(params map[string]string, secret string) string {
	keys := make([]string, 0, len(params))
	for k, v := range params {
		if v == "" {
			continue
		}
		keys = append(keys, k)
	}
	sort.Strings(keys)

	h := md5.New() //nolint:gosec
	h.Write([]byte(secret))
	for _, k := range keys {
		h.Write([]byte(k))
		h.Write([]byte(params[k]))
	}
	h.Write([]byte(secret))
	return upperHex(h)
}

func signHMAC(params map[string]string, secret string) string {
	keys := make([]string, 0, len(params))
	for k := range params {
		if k == "sign" {
			continue
		}
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var b strings.Builder
	for i, k := range keys {
		if i > 0 {
			b.WriteByte('&')
		}
		b.WriteString(k)
		b.WriteByte('=')
		b.WriteString(params[k])
	}

	h := hmac.New(sha256.New, []byte(secret))
	h.Write([]byte(b.String()))
	return upperHex(h)
}

func upperHex(h hash.Hash) string {
	return strings.ToUpper(hex.EncodeToString(h.Sum(nil)))
}
