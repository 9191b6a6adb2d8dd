package transport

import (
	"crypto/tls"
	"crypto/x509"
	"sync"

	"github.com/pkg/errors"
)

// TrustConfig decides which server certificates are accepted.
// It is never modified after construction and is safe to share.
type TrustConfig struct {
	roots    *x509.CertPool
	insecure bool
}

// NewTrustConfig trusts certificates issued by roots only.
func NewTrustConfig(roots *x509.CertPool) *TrustConfig {
	return &TrustConfig{roots: roots}
}

// InsecureTrust accepts any certificate for any name. Test use only.
func InsecureTrust() *TrustConfig {
	return &TrustConfig{insecure: true}
}

// DefaultTrust returns the configuration trusting the system roots.
// The pool is loaded on first call and shared afterwards.
var DefaultTrust = sync.OnceValues(func() (*TrustConfig, error) {
	pool, err := x509.SystemCertPool()
	if err != nil {
		return nil, errors.Wrap(err, "loading system root certificates")
	}
	return NewTrustConfig(pool), nil
})

func (t *TrustConfig) clientConfig(serverName string) *tls.Config {
	return &tls.Config{
		ServerName:         serverName,
		RootCAs:            t.roots,
		InsecureSkipVerify: t.insecure,
		MinVersion:         tls.VersionTLS12,
	}
}
