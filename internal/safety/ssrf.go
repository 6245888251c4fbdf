// Package safety implements the perimeter the core scheduling engine sits
// behind: SSRF-safe URL validation, cron injection whitelisting, payload
// sanitization, and HMAC envelope signing. Grounded on the teacher's
// security.SSRFGuard (resolve-then-check, embedded-IPv4 unwrapping) but
// expanded to the exact block tables and anti-TOCTOU dispatch this spec
// requires.
package safety

import (
	"context"
	"fmt"
	"net"
	"net/url"
	"strings"
)

// blockedHostnames are exact internal/metadata names, always blocked.
var blockedHostnames = map[string]bool{
	"localhost":              true,
	"localhost.localdomain":  true,
	"metadata.google.internal": true,
	"metadata":                true,
	"instance-data":           true,
	"metadata.internal":       true,
}

// blockedHostnameSuffixes covers *.local and cluster-internal service DNS.
var blockedHostnameSuffixes = []string{
	".local",
	".localdomain",
	".cluster.local",
	".svc.cluster.local",
	".internal",
}

func mustCIDR(s string) *net.IPNet {
	_, n, err := net.ParseCIDR(s)
	if err != nil {
		panic(fmt.Sprintf("safety: invalid built-in CIDR %q: %v", s, err))
	}
	return n
}

var blockedV4Nets = []*net.IPNet{
	mustCIDR("127.0.0.0/8"),
	mustCIDR("10.0.0.0/8"),
	mustCIDR("172.16.0.0/12"),
	mustCIDR("192.168.0.0/16"),
	mustCIDR("169.254.0.0/16"),
	mustCIDR("0.0.0.0/8"),
	mustCIDR("100.64.0.0/10"),   // CGNAT
	mustCIDR("192.0.0.0/24"),    // protocol assignments
	mustCIDR("192.0.2.0/24"),    // documentation (TEST-NET-1)
	mustCIDR("198.51.100.0/24"), // documentation (TEST-NET-2)
	mustCIDR("203.0.113.0/24"),  // documentation (TEST-NET-3)
	mustCIDR("224.0.0.0/4"),     // multicast
	mustCIDR("240.0.0.0/4"),     // reserved
}

var broadcastV4 = net.ParseIP("255.255.255.255")

var blockedV6Nets = []*net.IPNet{
	mustCIDR("fe80::/10"), // link-local
	mustCIDR("fd00::/8"),  // ULA (specific /8 of fc00::/7)
	mustCIDR("fc00::/7"),  // ULA (full range)
	mustCIDR("ff00::/8"),  // multicast
	mustCIDR("2001:db8::/32"), // documentation
	mustCIDR("100::/64"),      // discard-only
	mustCIDR("64:ff9b::/96"),  // NAT64
}

var loopbackV6 = net.ParseIP("::1")
var unspecifiedV6 = net.ParseIP("::")

// URLValidationConfig parameterizes ValidateWebhookURL.
type URLValidationConfig struct {
	Production     bool
	AllowedDomains []string // exact or subdomain match; empty = no allowlist
}

// ValidatedURL is the outcome of a successful validation: the original URL
// plus the first safe resolved IP, for connection pinning in
// SecureHTTPSend.
type ValidatedURL struct {
	Original *url.URL
	Hostname string
	SafeIP   net.IP
}

// ValidateWebhookURL runs the full SSRF gauntlet against a proposed webhook
// target: scheme, hostname blocklist, IPv6-literal check, optional
// allowlist, and DNS resolution (both address families) against the IPv4
// and IPv6 block tables, including ::ffff:-mapped unwrapping.
func ValidateWebhookURL(rawURL string, cfg URLValidationConfig) (*ValidatedURL, error) {
	parsed, err := url.Parse(rawURL)
	if err != nil {
		return nil, fmt.Errorf("UrlRejected: invalid URL: %w", err)
	}

	scheme := strings.ToLower(parsed.Scheme)
	switch scheme {
	case "http":
		if cfg.Production {
			return nil, fmt.Errorf("UrlRejected: SchemeNotAllowed: https required in production")
		}
	case "https":
		// ok
	default:
		return nil, fmt.Errorf("UrlRejected: SchemeNotAllowed: scheme %q not allowed", parsed.Scheme)
	}

	host := parsed.Hostname()
	if host == "" {
		return nil, fmt.Errorf("UrlRejected: HostnameBlocked: no host in URL")
	}
	hostLower := strings.ToLower(host)

	if blockedHostnames[hostLower] {
		return nil, fmt.Errorf("UrlRejected: HostnameBlocked: host %s is not allowed", host)
	}
	for _, suffix := range blockedHostnameSuffixes {
		if strings.HasSuffix(hostLower, suffix) {
			return nil, fmt.Errorf("UrlRejected: HostnameBlocked: host %s matches blocked suffix %s", host, suffix)
		}
	}

	// Bracketed IPv6 literal: test directly against the IPv6 blocklist.
	if ip := net.ParseIP(hostLower); ip != nil && strings.Contains(parsed.Host, "[") {
		if err := checkIP(ip); err != nil {
			return nil, err
		}
		if len(cfg.AllowedDomains) > 0 && !hostAllowed(hostLower, cfg.AllowedDomains) {
			return nil, fmt.Errorf("UrlRejected: HostnameBlocked: host %s is not in the allowed list", host)
		}
		return &ValidatedURL{Original: parsed, Hostname: host, SafeIP: ip}, nil
	}

	if len(cfg.AllowedDomains) > 0 && !hostAllowed(hostLower, cfg.AllowedDomains) {
		return nil, fmt.Errorf("UrlRejected: HostnameBlocked: host %s is not in the allowed list", host)
	}

	// A bare IPv4 literal host (no brackets) also resolves via ParseIP.
	if ip := net.ParseIP(hostLower); ip != nil {
		if err := checkIP(ip); err != nil {
			return nil, err
		}
		return &ValidatedURL{Original: parsed, Hostname: host, SafeIP: ip}, nil
	}

	ips4, err4 := net.DefaultResolver.LookupIP(context.Background(), "ip4", host)
	ips6, err6 := net.DefaultResolver.LookupIP(context.Background(), "ip6", host)
	if err4 != nil && err6 != nil && len(ips4) == 0 && len(ips6) == 0 {
		return nil, fmt.Errorf("DnsFailure: cannot resolve host %s", host)
	}

	all := append(append([]net.IP{}, ips4...), ips6...)
	if len(all) == 0 {
		return nil, fmt.Errorf("DnsFailure: host %s resolved to no addresses", host)
	}

	var safe net.IP
	for _, ip := range all {
		if err := checkIP(ip); err != nil {
			return nil, err
		}
		if safe == nil {
			safe = ip
		}
	}

	return &ValidatedURL{Original: parsed, Hostname: host, SafeIP: safe}, nil
}

func hostAllowed(host string, allowed []string) bool {
	for _, a := range allowed {
		a = strings.ToLower(a)
		if host == a || strings.HasSuffix(host, "."+a) {
			return true
		}
	}
	return false
}

// checkIP tests a single resolved (or literal) IP against the IPv4 and IPv6
// block tables. ::ffff:-mapped IPv4 addresses are unwrapped via To4() and
// re-tested against the IPv4 table, satisfying the SSRF-closure property.
func checkIP(ip net.IP) error {
	if ip4 := ip.To4(); ip4 != nil {
		if ip4.Equal(broadcastV4) {
			return fmt.Errorf("UrlRejected: IpBlocked: broadcast address %s is not allowed", ip.String())
		}
		for _, n := range blockedV4Nets {
			if n.Contains(ip4) {
				return fmt.Errorf("UrlRejected: IpBlocked: address %s is not allowed", ip.String())
			}
		}
		return nil
	}

	if ip.Equal(loopbackV6) || ip.Equal(unspecifiedV6) {
		return fmt.Errorf("UrlRejected: IpBlocked: address %s is not allowed", ip.String())
	}
	for _, n := range blockedV6Nets {
		if n.Contains(ip) {
			return fmt.Errorf("UrlRejected: IpBlocked: address %s is not allowed", ip.String())
		}
	}
	return nil
}
