package validation

import (
	"fmt"
	"net"
	"net/netip"
	"net/url"
	"strings"
)

// URLValidator checks the URLs the client sends to or receives from the
// service: the API base URL and feed URLs submitted for following.
type URLValidator struct {
	// AllowLocalhost permits localhost and loopback hosts
	AllowLocalhost bool
	// AllowPrivateIPs permits RFC 1918, link-local and ULA addresses
	AllowPrivateIPs bool
	MaxLength       int
}

// NewURLValidator blocks local and private hosts.
func NewURLValidator() *URLValidator {
	return &URLValidator{MaxLength: 2048}
}

// NewPermissiveURLValidator allows local development servers.
func NewPermissiveURLValidator() *URLValidator {
	return &URLValidator{
		AllowLocalhost:  true,
		AllowPrivateIPs: true,
		MaxLength:       2048,
	}
}

// ValidateAndNormalize returns input as an absolute http(s) URL. A missing
// scheme defaults to https.
func (v *URLValidator) ValidateAndNormalize(input string) (string, error) {
	input = strings.TrimSpace(input)
	if input == "" {
		return "", fmt.Errorf("URL cannot be empty")
	}
	if v.MaxLength > 0 && len(input) > v.MaxLength {
		return "", fmt.Errorf("URL too long (max %d characters)", v.MaxLength)
	}
	if strings.ContainsAny(input, "<>\"'` ") {
		return "", fmt.Errorf("URL contains invalid characters")
	}

	if !strings.Contains(input, "://") {
		input = "https://" + input
	}
	u, err := url.Parse(input)
	if err != nil {
		return "", fmt.Errorf("invalid URL format: %w", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return "", fmt.Errorf("URL must use http or https protocol")
	}
	if u.Hostname() == "" {
		return "", fmt.Errorf("URL must have a valid hostname")
	}
	if err := v.checkHost(u.Hostname()); err != nil {
		return "", err
	}
	if strings.Contains(u.Path, "..") {
		return "", fmt.Errorf("directory traversal patterns not allowed in URL path")
	}
	if q := strings.ToLower(u.RawQuery); strings.Contains(q, "<script") || strings.Contains(q, "javascript:") {
		return "", fmt.Errorf("suspicious query parameters detected")
	}

	u.Host = strings.ToLower(u.Host)
	return u.String(), nil
}

func (v *URLValidator) checkHost(host string) error {
	host = strings.ToLower(host)
	if host == "0.0.0.0" || host == "255.255.255.255" {
		return fmt.Errorf("suspicious hostname detected")
	}

	addr, err := netip.ParseAddr(host)
	isIP := err == nil
	if !v.AllowLocalhost {
		if host == "localhost" || strings.HasSuffix(host, ".localhost") || (isIP && addr.IsLoopback()) {
			return fmt.Errorf("localhost URLs are not permitted")
		}
	}
	if !v.AllowPrivateIPs && isIP {
		if addr.IsPrivate() || addr.IsLinkLocalUnicast() || addr.IsLoopback() {
			return fmt.Errorf("private IP addresses are not permitted")
		}
	}
	return nil
}

// Fingerprint reduces a feed URL to the form used to detect two feed
// records pointing at the same source: no scheme, lowercase host without
// "www." or a default port, no trailing slash, no fragment. Query strings
// are kept since they often select the feed.
func Fingerprint(raw string) string {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return ""
	}
	if !strings.Contains(raw, "://") {
		raw = "https://" + raw
	}
	u, err := url.Parse(raw)
	if err != nil || u.Host == "" {
		return strings.ToLower(raw)
	}

	host := strings.ToLower(u.Hostname())
	host = strings.TrimPrefix(host, "www.")
	if port := u.Port(); port != "" && port != "80" && port != "443" {
		host = net.JoinHostPort(host, port)
	}

	path := strings.TrimRight(u.EscapedPath(), "/")
	fp := host + path
	if u.RawQuery != "" {
		fp += "?" + u.RawQuery
	}
	return fp
}
