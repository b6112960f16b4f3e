package push

import (
	"net/url"
	"strings"
)

// ProviderKind identifies the authorization header dialect a push service
// expects. Firebase Cloud Messaging predates the final RFC 8292 scheme and
// still wants the legacy "vapid t=..., k=..." form; everything else takes
// the WebPush/Crypto-Key pair.
type ProviderKind int

const (
	ProviderGeneric ProviderKind = iota
	ProviderFCM
)

// ClassifyEndpoint resolves the dialect for a subscription endpoint. The
// classification is by host only; the path never matters.
func ClassifyEndpoint(endpoint string) ProviderKind {
	host := endpoint
	if u, err := url.Parse(endpoint); err == nil && u.Host != "" {
		host = u.Host
	}
	if strings.Contains(host, "fcm.googleapis.com") || strings.Contains(host, "firebase") {
		return ProviderFCM
	}
	return ProviderGeneric
}

// AuthHeaders builds the provider-specific authorization headers for a
// minted assertion. Adding a third dialect means adding a variant here.
func (k ProviderKind) AuthHeaders(assertion, publicKey string) map[string]string {
	switch k {
	case ProviderFCM:
		return map[string]string{
			"Authorization": "vapid t=" + assertion + ", k=" + publicKey,
		}
	default:
		return map[string]string{
			"Authorization": "WebPush " + assertion,
			"Crypto-Key":    "p256ecdsa=" + publicKey,
		}
	}
}

func (k ProviderKind) String() string {
	if k == ProviderFCM {
		return "fcm"
	}
	return "generic"
}
