package domaincheck

import (
	"context"
	"fmt"
	"net"
	"strings"
	"time"

	"github.com/miekg/dns"

	"github.com/huntgrid/huntkit/internal/shared/constants"
)

// ResolveResult is one DNS resolution outcome. Lookup failures are carried
// in Response rather than as a Go error so batch callers get one record
// per target either way.
type ResolveResult struct {
	QName         string    `json:"qname"`
	RecordType    string    `json:"rdtype"`
	RecordClass   string    `json:"rdclass,omitempty"`
	Response      string    `json:"response"`
	Nameserver    string    `json:"nameserver,omitempty"`
	CanonicalName string    `json:"canonical_name,omitempty"`
	Expiration    time.Time `json:"expiration,omitzero"`
	Records       []string  `json:"rrset,omitempty"`
}

// Resolver performs DNS lookups for arbitrary record types.
type Resolver struct {
	Timeout time.Duration
	// Nameservers are host:port addresses; the system resolv.conf servers
	// are used when empty.
	Nameservers []string
}

// Resolve queries the given record type (e.g. "A", "MX", "TXT") for a
// domain or URL.
func (r *Resolver) Resolve(ctx context.Context, urlOrDomain, recordType string) ResolveResult {
	host := ExtractHost(urlOrDomain)
	result := ResolveResult{
		QName:       dns.Fqdn(host),
		RecordType:  strings.ToUpper(recordType),
		RecordClass: "IN",
	}
	if host == "" {
		result.Response = fmt.Sprintf("failed to parse url: %s", urlOrDomain)
		return result
	}

	qtype, ok := dns.StringToType[result.RecordType]
	if !ok {
		result.Response = fmt.Sprintf("unknown record type %q", recordType)
		return result
	}
	r.exchange(ctx, dns.Fqdn(host), qtype, &result)
	return result
}

// ReverseResolve performs a PTR lookup for an IP address.
func (r *Resolver) ReverseResolve(ctx context.Context, ipAddress string) ResolveResult {
	result := ResolveResult{
		QName:       ipAddress,
		RecordType:  "PTR",
		RecordClass: "IN",
	}
	reverse, err := dns.ReverseAddr(ipAddress)
	if err != nil {
		result.Response = fmt.Sprintf("invalid IP address %q: %v", ipAddress, err)
		return result
	}
	result.QName = reverse
	r.exchange(ctx, reverse, dns.TypePTR, &result)
	return result
}

// IsResolvable reports whether a domain or URL resolves to at least one A
// record.
func (r *Resolver) IsResolvable(ctx context.Context, urlOrDomain string) bool {
	result := r.Resolve(ctx, urlOrDomain, "A")
	return len(result.Records) > 0
}

func (r *Resolver) exchange(ctx context.Context, fqdn string, qtype uint16, result *ResolveResult) {
	timeout := r.Timeout
	if timeout <= 0 {
		timeout = constants.DefaultDNSTimeout
	}
	client := &dns.Client{Timeout: timeout}

	msg := new(dns.Msg)
	msg.SetQuestion(fqdn, qtype)
	msg.RecursionDesired = true

	var lastErr error
	for _, server := range r.servers() {
		resp, _, err := client.ExchangeContext(ctx, msg, server)
		if err != nil {
			lastErr = err
			continue
		}
		result.Nameserver = server
		if resp.Rcode != dns.RcodeSuccess {
			result.Response = dns.RcodeToString[resp.Rcode]
			return
		}
		result.Response = dns.RcodeToString[resp.Rcode]
		for _, rr := range resp.Answer {
			header := rr.Header()
			if result.Expiration.IsZero() {
				result.Expiration = time.Now().UTC().Add(time.Duration(header.Ttl) * time.Second)
			}
			if cname, ok := rr.(*dns.CNAME); ok {
				result.CanonicalName = cname.Target
			}
			result.Records = append(result.Records, strings.TrimSpace(rrValue(rr)))
		}
		if result.CanonicalName == "" {
			result.CanonicalName = fqdn
		}
		return
	}
	if lastErr != nil {
		result.Response = lastErr.Error()
	} else {
		result.Response = "no nameservers available"
	}
}

func (r *Resolver) servers() []string {
	if len(r.Nameservers) > 0 {
		return r.Nameservers
	}
	conf, err := dns.ClientConfigFromFile("/etc/resolv.conf")
	if err != nil || len(conf.Servers) == 0 {
		return []string{"8.8.8.8:53"}
	}
	servers := make([]string, 0, len(conf.Servers))
	for _, s := range conf.Servers {
		servers = append(servers, net.JoinHostPort(s, conf.Port))
	}
	return servers
}

// rrValue renders the data portion of a resource record, without the
// header fields.
func rrValue(rr dns.RR) string {
	full := rr.String()
	header := rr.Header().String()
	return strings.TrimPrefix(full, header)
}
