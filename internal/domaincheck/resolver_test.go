package domaincheck

import (
	"context"
	"net"
	"strings"
	"testing"
	"time"

	"github.com/miekg/dns"
)

// startTestDNS runs an in-process DNS server and returns its address.
func startTestDNS(t *testing.T, handler dns.HandlerFunc) string {
	t.Helper()
	pc, err := net.ListenPacket("udp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("listen udp: %v", err)
	}
	srv := &dns.Server{PacketConn: pc, Handler: handler}
	go func() { _ = srv.ActivateAndServe() }()
	t.Cleanup(func() { _ = srv.Shutdown() })
	return pc.LocalAddr().String()
}

func answeringHandler(t *testing.T) dns.HandlerFunc {
	t.Helper()
	return func(w dns.ResponseWriter, req *dns.Msg) {
		m := new(dns.Msg)
		m.SetReply(req)
		q := req.Question[0]
		switch {
		case q.Name == "example.test." && q.Qtype == dns.TypeA:
			rr, err := dns.NewRR("example.test. 300 IN A 192.0.2.10")
			if err != nil {
				t.Errorf("build rr: %v", err)
			}
			m.Answer = append(m.Answer, rr)
		case q.Name == "10.2.0.192.in-addr.arpa." && q.Qtype == dns.TypePTR:
			rr, err := dns.NewRR("10.2.0.192.in-addr.arpa. 300 IN PTR example.test.")
			if err != nil {
				t.Errorf("build rr: %v", err)
			}
			m.Answer = append(m.Answer, rr)
		default:
			m.Rcode = dns.RcodeNameError
		}
		_ = w.WriteMsg(m)
	}
}

func TestResolveARecord(t *testing.T) {
	addr := startTestDNS(t, answeringHandler(t))
	r := &Resolver{Timeout: 2 * time.Second, Nameservers: []string{addr}}

	result := r.Resolve(context.Background(), "example.test", "A")

	if result.Response != "NOERROR" {
		t.Fatalf("Response = %q, want NOERROR", result.Response)
	}
	if len(result.Records) != 1 || !strings.Contains(result.Records[0], "192.0.2.10") {
		t.Errorf("Records = %v, want one A record 192.0.2.10", result.Records)
	}
	if result.QName != "example.test." {
		t.Errorf("QName = %q", result.QName)
	}
	if result.Nameserver != addr {
		t.Errorf("Nameserver = %q, want %q", result.Nameserver, addr)
	}
	if result.Expiration.IsZero() {
		t.Error("Expiration not set from record TTL")
	}
}

func TestResolveStripsURLParts(t *testing.T) {
	addr := startTestDNS(t, answeringHandler(t))
	r := &Resolver{Timeout: 2 * time.Second, Nameservers: []string{addr}}

	result := r.Resolve(context.Background(), "https://example.test:8443/path", "A")
	if len(result.Records) != 1 {
		t.Errorf("URL input should resolve its host, got %+v", result)
	}
}

func TestResolveNXDomainCarriesResponseText(t *testing.T) {
	addr := startTestDNS(t, answeringHandler(t))
	r := &Resolver{Timeout: 2 * time.Second, Nameservers: []string{addr}}

	result := r.Resolve(context.Background(), "missing.test", "A")
	if result.Response != "NXDOMAIN" {
		t.Errorf("Response = %q, want NXDOMAIN", result.Response)
	}
	if len(result.Records) != 0 {
		t.Errorf("Records = %v, want none", result.Records)
	}
}

func TestResolveUnknownRecordType(t *testing.T) {
	r := &Resolver{Nameservers: []string{"127.0.0.1:1"}}

	result := r.Resolve(context.Background(), "example.test", "NOPE")
	if !strings.Contains(result.Response, "unknown record type") {
		t.Errorf("Response = %q, want unknown record type", result.Response)
	}
}

func TestReverseResolve(t *testing.T) {
	addr := startTestDNS(t, answeringHandler(t))
	r := &Resolver{Timeout: 2 * time.Second, Nameservers: []string{addr}}

	result := r.ReverseResolve(context.Background(), "192.0.2.10")
	if result.RecordType != "PTR" {
		t.Errorf("RecordType = %q, want PTR", result.RecordType)
	}
	if len(result.Records) != 1 || !strings.Contains(result.Records[0], "example.test.") {
		t.Errorf("Records = %v, want PTR to example.test.", result.Records)
	}
}

func TestReverseResolveInvalidIP(t *testing.T) {
	r := &Resolver{}

	result := r.ReverseResolve(context.Background(), "not-an-ip")
	if !strings.Contains(result.Response, "invalid IP address") {
		t.Errorf("Response = %q, want invalid IP error", result.Response)
	}
}

func TestIsResolvable(t *testing.T) {
	addr := startTestDNS(t, answeringHandler(t))
	r := &Resolver{Timeout: 2 * time.Second, Nameservers: []string{addr}}

	if !r.IsResolvable(context.Background(), "example.test") {
		t.Error("IsResolvable(example.test) = false, want true")
	}
	if r.IsResolvable(context.Background(), "missing.test") {
		t.Error("IsResolvable(missing.test) = true, want false")
	}
}
