// Package portal contains the captive portal probe and the authenticator for
// Sophos/Cyberoam captive portals.
package portal

import (
	"crypto/tls"
	"net/http"
	"net/http/cookiejar"

	"golang.org/x/net/publicsuffix"
)

// NewClient returns a new http client for requests to the captive portal.
//
// The client does not verify the portal's certificate. Captive portal
// appliances terminate TLS on their management address with self-signed or
// vendor certificates, so the trust trade-off is accepted here. The client
// keeps the portal's cookies, so a session set on the landing page is sent
// with the login.
func NewClient() *http.Client {
	transport := http.DefaultTransport.(*http.Transport).Clone()
	transport.TLSClientConfig = &tls.Config{
		InsecureSkipVerify: true, // #nosec G402
	}

	// cookiejar.New only fails for invalid options
	jar, _ := cookiejar.New(&cookiejar.Options{
		PublicSuffixList: publicsuffix.List,
	})

	return &http.Client{
		Transport: transport,
		Jar:       jar,
	}
}
