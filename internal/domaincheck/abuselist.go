package domaincheck

import (
	"bufio"
	"context"
	"crypto/sha1" //nolint:gosec // the abuse list is keyed by SHA-1 fingerprints
	"crypto/tls"
	"crypto/x509"
	"encoding/csv"
	"encoding/hex"
	"fmt"
	"net"
	"net/http"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/huntgrid/huntkit/internal/shared/constants"
)

// DefaultAbuseListURL is the abuse.ch SSL certificate blocklist feed.
const DefaultAbuseListURL = "https://sslbl.abuse.ch/blacklist/sslblacklist.csv"

// Verdict distinguishes a listed certificate from a clean one and from a
// lookup that could not be completed, so callers can tell a network
// failure apart from a genuine negative match.
type Verdict int

const (
	VerdictNotListed Verdict = iota
	VerdictListed
	VerdictLookupFailed
)

// String returns the verdict name.
func (v Verdict) String() string {
	switch v {
	case VerdictListed:
		return "listed"
	case VerdictNotListed:
		return "not-listed"
	default:
		return "lookup-failed"
	}
}

// AbuseCheck is the outcome of one abuse-list certificate check.
type AbuseCheck struct {
	Verdict     Verdict
	Reason      string
	Fingerprint string
	Certificate *x509.Certificate
}

// AbuseList is a caller-owned cache of blocklisted certificate
// fingerprints. It is only populated by an explicit Refresh call; checks
// against an unloaded list report a lookup failure instead of silently
// downloading.
type AbuseList struct {
	URL        string
	HTTPClient *http.Client

	log *zap.SugaredLogger

	mu           sync.RWMutex
	fingerprints map[string]struct{}
	refreshedAt  time.Time
}

// NewAbuseList builds an empty abuse-list cache.
func NewAbuseList(log *zap.SugaredLogger) *AbuseList {
	if log == nil {
		log = zap.NewNop().Sugar()
	}
	return &AbuseList{
		URL:        DefaultAbuseListURL,
		HTTPClient: &http.Client{Timeout: constants.DefaultHTTPTimeout},
		log:        log,
	}
}

// Refresh downloads and parses the blocklist, replacing the cached
// fingerprint set.
func (a *AbuseList) Refresh(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, a.URL, nil)
	if err != nil {
		return fmt.Errorf("build abuse list request: %w", err)
	}
	req.Header.Set("User-Agent", constants.UserAgent)

	resp, err := a.HTTPClient.Do(req)
	if err != nil {
		return fmt.Errorf("fetch abuse list: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("fetch abuse list: status %d", resp.StatusCode)
	}

	fingerprints, err := parseAbuseCSV(bufio.NewReader(resp.Body))
	if err != nil {
		return fmt.Errorf("parse abuse list: %w", err)
	}

	a.mu.Lock()
	a.fingerprints = fingerprints
	a.refreshedAt = time.Now().UTC()
	a.mu.Unlock()
	a.log.Infow("abuse list refreshed", "fingerprints", len(fingerprints))
	return nil
}

// Loaded reports whether Refresh has populated the cache.
func (a *AbuseList) Loaded() bool {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.fingerprints != nil
}

// Len returns the number of cached fingerprints.
func (a *AbuseList) Len() int {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return len(a.fingerprints)
}

// RefreshedAt returns the time of the last successful refresh.
func (a *AbuseList) RefreshedAt() time.Time {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.refreshedAt
}

// Contains reports whether a SHA-1 fingerprint (hex) is on the list.
func (a *AbuseList) Contains(sha1Hex string) bool {
	a.mu.RLock()
	defer a.mu.RUnlock()
	_, ok := a.fingerprints[strings.ToLower(sha1Hex)]
	return ok
}

// CheckDomain fetches the server certificate for a domain and checks its
// SHA-1 fingerprint against the cached list. The certificate is returned
// whenever it could be retrieved, regardless of verdict.
func (a *AbuseList) CheckDomain(ctx context.Context, urlOrDomain string) AbuseCheck {
	if !a.Loaded() {
		return AbuseCheck{
			Verdict: VerdictLookupFailed,
			Reason:  "abuse list not loaded; call Refresh first",
		}
	}

	host := ExtractHost(urlOrDomain)
	if host == "" {
		return AbuseCheck{Verdict: VerdictLookupFailed, Reason: "no host in " + urlOrDomain}
	}

	cert, err := fetchServerCertificate(ctx, host)
	if err != nil {
		return AbuseCheck{
			Verdict: VerdictLookupFailed,
			Reason:  fmt.Sprintf("fetch certificate: %v", err),
		}
	}

	sum := sha1.Sum(cert.Raw) //nolint:gosec // list entries are SHA-1
	fingerprint := hex.EncodeToString(sum[:])
	check := AbuseCheck{
		Fingerprint: fingerprint,
		Certificate: cert,
	}
	if a.Contains(fingerprint) {
		check.Verdict = VerdictListed
		check.Reason = "certificate fingerprint on abuse list"
	} else {
		check.Verdict = VerdictNotListed
	}
	return check
}

// fetchServerCertificate retrieves the leaf certificate presented on port
// 443. Verification is skipped: blocklisted sites routinely present
// invalid chains and the fingerprint must still be checked.
func fetchServerCertificate(ctx context.Context, host string) (*x509.Certificate, error) {
	dialer := &tls.Dialer{
		NetDialer: &net.Dialer{Timeout: constants.DefaultHTTPTimeout},
		Config:    &tls.Config{InsecureSkipVerify: true}, //nolint:gosec
	}
	conn, err := dialer.DialContext(ctx, "tcp", net.JoinHostPort(host, "443"))
	if err != nil {
		return nil, err
	}
	defer conn.Close()

	state := conn.(*tls.Conn).ConnectionState()
	if len(state.PeerCertificates) == 0 {
		return nil, fmt.Errorf("no certificate presented by %s", host)
	}
	return state.PeerCertificates[0], nil
}

// parseAbuseCSV reads the blocklist feed: comment lines, then a header
// row, then one row per listed fingerprint.
func parseAbuseCSV(r *bufio.Reader) (map[string]struct{}, error) {
	var dataLines []string
	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		dataLines = append(dataLines, line)
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	if len(dataLines) == 0 {
		return map[string]struct{}{}, nil
	}

	reader := csv.NewReader(strings.NewReader(strings.Join(dataLines, "\n")))
	reader.FieldsPerRecord = -1
	records, err := reader.ReadAll()
	if err != nil {
		return nil, err
	}

	sha1Col := -1
	for i, name := range records[0] {
		if strings.Contains(strings.ToLower(name), "sha1") {
			sha1Col = i
			break
		}
	}
	if sha1Col < 0 {
		return nil, fmt.Errorf("no SHA1 column in header %v", records[0])
	}

	fingerprints := make(map[string]struct{}, len(records)-1)
	for _, record := range records[1:] {
		if sha1Col >= len(record) {
			continue
		}
		value := strings.ToLower(strings.TrimSpace(record[sha1Col]))
		if value != "" {
			fingerprints[value] = struct{}{}
		}
	}
	return fingerprints, nil
}
