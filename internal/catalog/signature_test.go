package catalog

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/IsaacDawn/Alibee-Affiliate-API/internal/domain"
)

func sampleParams() map[string]string {
	return map[string]string{
		"app_key":   "12345",
		"method":    "aliexpress.affiliate.product.query",
		"timestamp": "2024-01-02 03:04:05",
		"keywords":  "watch",
		"empty":     "",
	}
}

func TestSign_KnownValues(t *testing.T) {
	md5Sig, err := Sign(sampleParams(), "secret", SchemeMD5Wrap)
	require.NoError(t, err)
	assert.Equal(t, "B5625CD7CA6946452F2A23569583A450", md5Sig)

	hmacSig, err := Sign(sampleParams(), "secret", SchemeHMACSHA256)
	require.NoError(t, err)
	assert.Equal(t, "9B5D0CE9059EEB410E33D92D4AC0FC945D384128A9880E90C07B6B114CBF5200", hmacSig)
}

func TestSign_DeterministicAndOrderIndependent(t *testing.T) {
	for _, scheme := range []Scheme{SchemeMD5Wrap, SchemeHMACSHA256} {
		t.Run(scheme.String(), func(t *testing.T) {
			first, err := Sign(sampleParams(), "secret", scheme)
			require.NoError(t, err)

			// Build the same set in a different insertion order.
			reordered := map[string]string{}
			keys := []string{"empty", "timestamp", "keywords", "method", "app_key"}
			src := sampleParams()
			for _, k := range keys {
				reordered[k] = src[k]
			}

			for i := 0; i < 20; i++ {
				again, err := Sign(reordered, "secret", scheme)
				require.NoError(t, err)
				assert.Equal(t, first, again)
			}
		})
	}
}

func TestSign_MD5IgnoresEmptyValues(t *testing.T) {
	withEmpty := sampleParams()
	without := sampleParams()
	delete(without, "empty")

	a, _ := Sign(withEmpty, "secret", SchemeMD5Wrap)
	b, _ := Sign(without, "secret", SchemeMD5Wrap)
	assert.Equal(t, a, b)
}

func TestSign_HMACKeepsEmptyValuesDropsSign(t *testing.T) {
	withEmpty := sampleParams()
	without := sampleParams()
	delete(without, "empty")

	a, _ := Sign(withEmpty, "secret", SchemeHMACSHA256)
	b, _ := Sign(without, "secret", SchemeHMACSHA256)
	assert.NotEqual(t, a, b)

	signed := sampleParams()
	signed["sign"] = "STALE"
	c, _ := Sign(signed, "secret", SchemeHMACSHA256)
	assert.Equal(t, a, c)
}

func TestSign_SecretMatters(t *testing.T) {
	a, _ := Sign(sampleParams(), "secret", SchemeMD5Wrap)
	b, _ := Sign(sampleParams(), "other", SchemeMD5Wrap)
	assert.NotEqual(t, a, b)
}

func TestSign_MissingSecret(t *testing.T) {
	_, err := Sign(sampleParams(), "", SchemeMD5Wrap)
	var cfgErr *domain.ConfigurationError
	require.True(t, errors.As(err, &cfgErr))
	assert.Equal(t, "ALI_APP_SECRET", cfgErr.Field)
}

func TestSign_UnknownScheme(t *testing.T) {
	_, err := Sign(sampleParams(), "secret", Scheme(99))
	var cfgErr *domain.ConfigurationError
	assert.True(t, errors.As(err, &cfgErr))
}

func TestParseScheme(t *testing.T) {
	s, err := ParseScheme("MD5")
	require.NoError(t, err)
	assert.Equal(t, SchemeMD5Wrap, s)

	s, err = ParseScheme("sha256")
	require.NoError(t, err)
	assert.Equal(t, SchemeHMACSHA256, s)

	_, err = ParseScheme("sha1")
	assert.Error(t, err)
}
