package domaincheck

import (
	"context"
	"sort"
	"sync"
	"time"

	"golang.org/x/time/rate"

	"github.com/huntgrid/huntkit/internal/shared/constants"
)

// CheckResult is the outcome of one reputation check against one target.
type CheckResult struct {
	Target    string         `json:"target"`
	Check     string         `json:"check"`
	CheckedAt time.Time      `json:"checked_at"`
	OK        bool           `json:"ok"`
	Summary   string         `json:"summary,omitempty"`
	Details   map[string]any `json:"details,omitempty"`
	Error     string         `json:"error,omitempty"`
}

// Checker performs one kind of reputation check against a target.
type Checker interface {
	Check(ctx context.Context, target string) CheckResult
	Name() string
}

// ProgressFunc is called after each completed check with the running
// completion count.
type ProgressFunc func(done, total int, result CheckResult)

// Runner fans targets out over a bounded worker pool with a global rate
// limit, so batch checks do not hammer resolvers or remote services.
type Runner struct {
	Concurrency int
	RateLimit   int
	Timeout     time.Duration
}

// NewRunner builds a runner with the default pool size and a matching
// per-second rate limit.
func NewRunner() *Runner {
	return &Runner{
		Concurrency: constants.DefaultMaxParallel,
		RateLimit:   constants.DefaultMaxParallel,
		Timeout:     constants.DefaultDNSTimeout,
	}
}

// Run executes checker against every target. Results come back sorted by
// target so batch output is stable regardless of completion order.
func (r *Runner) Run(ctx context.Context, targets []string, checker Checker, progress ProgressFunc) []CheckResult {
	limiter := rate.NewLimiter(rate.Limit(r.RateLimit), r.RateLimit)

	sem := make(chan struct{}, r.Concurrency)
	var wg sync.WaitGroup
	var mu sync.Mutex
	results := make([]CheckResult, 0, len(targets))

	for _, target := range targets {
		wg.Add(1)
		go func(t string) {
			defer wg.Done()

			sem <- struct{}{}
			defer func() { <-sem }()

			if err := limiter.Wait(ctx); err != nil {
				mu.Lock()
				results = append(results, CheckResult{
					Target:    t,
					Check:     checker.Name(),
					CheckedAt: time.Now().UTC(),
					Error:     err.Error(),
				})
				if progress != nil {
					progress(len(results), len(targets), results[len(results)-1])
				}
				mu.Unlock()
				return
			}

			checkCtx, cancel := context.WithTimeout(ctx, r.Timeout)
			defer cancel()
			result := checker.Check(checkCtx, t)

			mu.Lock()
			results = append(results, result)
			if progress != nil {
				progress(len(results), len(targets), result)
			}
			mu.Unlock()
		}(target)
	}

	wg.Wait()
	sort.Slice(results, func(i, j int) bool { return results[i].Target < results[j].Target })
	return results
}

// TLDChecker validates that a target carries a registered public suffix.
type TLDChecker struct{}

func (TLDChecker) Name() string { return "tld" }

func (TLDChecker) Check(_ context.Context, target string) CheckResult {
	result := CheckResult{Target: target, Check: "tld", CheckedAt: time.Now().UTC()}
	result.OK = ValidateTLD(target)
	if result.OK {
		result.Summary = "registered TLD ." + DomainComponents(target).Suffix
	} else {
		result.Summary = "unregistered TLD"
	}
	return result
}

// ResolveChecker reports whether a target's domain resolves to an
// address.
type ResolveChecker struct {
	Resolver *Resolver
}

func (ResolveChecker) Name() string { return "resolve" }

func (c ResolveChecker) Check(ctx context.Context, target string) CheckResult {
	result := CheckResult{Target: target, Check: "resolve", CheckedAt: time.Now().UTC()}
	resolver := c.Resolver
	if resolver == nil {
		resolver = &Resolver{}
	}
	res := resolver.Resolve(ctx, target, "A")
	result.OK = len(res.Records) > 0
	result.Summary = res.Response
	result.Details = map[string]any{
		"records":    res.Records,
		"nameserver": res.Nameserver,
	}
	return result
}

// AbuseChecker matches a target's TLS certificate against an abuse list.
// The list must be refreshed before the batch starts.
type AbuseChecker struct {
	List *AbuseList
}

func (AbuseChecker) Name() string { return "abuse" }

func (c AbuseChecker) Check(ctx context.Context, target string) CheckResult {
	result := CheckResult{Target: target, Check: "abuse", CheckedAt: time.Now().UTC()}
	if c.List == nil {
		result.Error = "no abuse list configured"
		return result
	}
	check := c.List.CheckDomain(ctx, target)
	switch check.Verdict {
	case VerdictLookupFailed:
		result.Error = check.Reason
	case VerdictListed:
		result.OK = false
		result.Summary = check.Reason
	default:
		result.OK = true
		result.Summary = "certificate not on abuse list"
	}
	if check.Fingerprint != "" {
		result.Details = map[string]any{"sha1": check.Fingerprint}
		if check.Certificate != nil {
			result.Details["subject"] = check.Certificate.Subject.String()
			result.Details["issuer"] = check.Certificate.Issuer.String()
			result.Details["not_after"] = check.Certificate.NotAfter.Format(time.RFC3339)
		}
	}
	return result
}
