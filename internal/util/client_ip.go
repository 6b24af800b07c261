package util

import (
	"net"
	"net/http"
	"net/netip"
	"strings"
)

// TrustedProxies lists the proxy ranges whose forwarded headers are believed.
type TrustedProxies struct {
	prefixes []netip.Prefix
}

// NewTrustedProxies parses CIDR or bare IP entries. Empty input returns nil,
// which trusts no proxy.
func NewTrustedProxies(entries []string) (*TrustedProxies, error) {
	var prefixes []netip.Prefix
	for _, raw := range entries {
		entry := strings.TrimSpace(raw)
		if entry == "" {
			continue
		}
		if strings.Contains(entry, "/") {
			p, err := netip.ParsePrefix(entry)
			if err != nil {
				return nil, err
			}
			prefixes = append(prefixes, p.Masked())
			continue
		}
		addr, err := netip.ParseAddr(entry)
		if err != nil {
			return nil, err
		}
		prefixes = append(prefixes, netip.PrefixFrom(addr.Unmap(), addr.Unmap().BitLen()))
	}
	if len(prefixes) == 0 {
		return nil, nil
	}
	return &TrustedProxies{prefixes: prefixes}, nil
}

// Contains reports whether addr falls inside a trusted range.
func (t *TrustedProxies) Contains(addr netip.Addr) bool {
	if t == nil || !addr.IsValid() {
		return false
	}
	addr = addr.Unmap()
	for _, p := range t.prefixes {
		if p.Contains(addr) {
			return true
		}
	}
	return false
}

// ClientIP resolves the caller address used for rate limiting. Forwarded
// headers count only when the direct peer is a trusted proxy; the answer is
// then the right-most untrusted hop.
func ClientIP(r *http.Request, trusted *TrustedProxies) string {
	remote, ok := remoteAddr(r.RemoteAddr)
	if !ok {
		return strings.TrimSpace(r.RemoteAddr)
	}
	if !trusted.Contains(remote) {
		return remote.String()
	}

	if hops := forwardedFor(r.Header.Get("X-Forwarded-For")); len(hops) > 0 {
		hops = append(hops, remote)
		for i := len(hops) - 1; i >= 0; i-- {
			if !trusted.Contains(hops[i]) {
				return hops[i].String()
			}
		}
		return hops[0].String()
	}
	if ip, err := netip.ParseAddr(strings.TrimSpace(r.Header.Get("X-Real-IP"))); err == nil {
		return ip.Unmap().String()
	}
	return remote.String()
}

func forwardedFor(raw string) []netip.Addr {
	var out []netip.Addr
	for _, part := range strings.Split(raw, ",") {
		if addr, err := netip.ParseAddr(strings.TrimSpace(part)); err == nil {
			out = append(out, addr.Unmap())
		}
	}
	return out
}

func remoteAddr(raw string) (netip.Addr, bool) {
	raw = strings.TrimSpace(raw)
	if host, _, err := net.SplitHostPort(raw); err == nil {
		raw = host
	}
	addr, err := netip.ParseAddr(raw)
	if err != nil {
		return netip.Addr{}, false
	}
	return addr.Unmap(), true
}
