package cmd

import (
	"bufio"
	"encoding/json"
	"fmt"
	"os"
	"sort"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/huntgrid/huntkit/internal/domaincheck"
)

var domainFlags struct {
	recordType  string
	nameservers []string
	targetsFile string
	abuseURL    string
	apiKey      string
	outFile     string
	jsonOut     bool
}

var domainCmd = &cobra.Command{
	Use:   "domain",
	Short: "Domain and URL reputation checks",
}

var domainTLDCmd = &cobra.Command{
	Use:   "tld <domain-or-url>...",
	Short: "Validate that a domain carries a registered top-level domain",
	Args:  cobra.MinimumNArgs(0),
	RunE: func(cmd *cobra.Command, args []string) error {
		targets, err := collectTargets(args)
		if err != nil {
			return err
		}
		return runBatch(cmd, targets, domaincheck.TLDChecker{})
	},
}

var domainComponentsCmd = &cobra.Command{
	Use:   "components <domain-or-url>",
	Short: "Split a domain into subdomain, registered domain and suffix",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		out := cmd.OutOrStdout()
		c := domaincheck.DomainComponents(args[0])
		fmt.Fprintf(out, "subdomain: %s\n", c.Subdomain)
		fmt.Fprintf(out, "domain:    %s\n", c.Domain)
		fmt.Fprintf(out, "suffix:    %s\n", c.Suffix)

		parts := domaincheck.URLComponents(args[0])
		if len(parts) > 0 {
			keys := make([]string, 0, len(parts))
			for k := range parts {
				keys = append(keys, k)
			}
			sort.Strings(keys)
			fmt.Fprintln(out, "url:")
			for _, k := range keys {
				fmt.Fprintf(out, "  %s: %s\n", k, parts[k])
			}
		}
		return nil
	},
}

var domainResolveCmd = &cobra.Command{
	Use:   "resolve <domain-or-url>...",
	Short: "Resolve DNS records for a domain",
	Args:  cobra.MinimumNArgs(0),
	RunE: func(cmd *cobra.Command, args []string) error {
		resolver := &domaincheck.Resolver{Nameservers: domainFlags.nameservers}
		targets, err := collectTargets(args)
		if err != nil {
			return err
		}
		if len(targets) == 1 && domainFlags.recordType != "A" {
			// Non-A lookups go through the full resolver output.
			result := resolver.Resolve(cmd.Context(), targets[0], domainFlags.recordType)
			return printResolveResult(cmd, result)
		}
		return runBatch(cmd, targets, domaincheck.ResolveChecker{Resolver: resolver})
	},
}

var domainRevResolveCmd = &cobra.Command{
	Use:   "rev-resolve <ip-address>",
	Short: "Reverse-resolve an IP address to its PTR record",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		resolver := &domaincheck.Resolver{Nameservers: domainFlags.nameservers}
		return printResolveResult(cmd, resolver.ReverseResolve(cmd.Context(), args[0]))
	},
}

var domainAbuseCmd = &cobra.Command{
	Use:   "abuse <domain-or-url>...",
	Short: "Check a domain's TLS certificate against the SSL abuse blocklist",
	Args:  cobra.MinimumNArgs(0),
	RunE: func(cmd *cobra.Command, args []string) error {
		list := domaincheck.NewAbuseList(logger)
		if domainFlags.abuseURL != "" {
			list.URL = domainFlags.abuseURL
		}
		logger.Debugw("refreshing abuse list", "url", list.URL)
		if err := list.Refresh(cmd.Context()); err != nil {
			return err
		}

		targets, err := collectTargets(args)
		if err != nil {
			return err
		}
		return runBatch(cmd, targets, domaincheck.AbuseChecker{List: list})
	},
}

var domainScreenshotCmd = &cobra.Command{
	Use:   "screenshot <url>",
	Short: "Capture a page screenshot through the Browshot API",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		key := domainFlags.apiKey
		if key == "" {
			key = settings.BrowshotKey()
		}
		client := domaincheck.NewScreenshotClient(key, logger)
		client.Progress = func(attempt int, status string) {
			fmt.Fprintf(cmd.OutOrStdout(), "\rwaiting for capture: attempt %d (%s) ", attempt, status)
		}

		image, err := client.Capture(cmd.Context(), args[0])
		fmt.Fprintln(cmd.OutOrStdout())
		if err != nil {
			return err
		}

		path := domainFlags.outFile
		if path == "" {
			path = resultFilePath("screenshot", "png")
		}
		if err := os.WriteFile(path, image, 0o644); err != nil {
			return fmt.Errorf("write screenshot: %w", err)
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Saved screenshot (%d bytes) to %s\n", len(image), path)
		return nil
	},
}

func addNameserverFlag(fs *pflag.FlagSet) {
	fs.StringSliceVar(&domainFlags.nameservers, "nameserver", nil, "nameserver host:port (repeatable; default from resolv.conf)")
}

// collectTargets merges positional targets with a targets file (one per
// line, '#' comments skipped).
func collectTargets(args []string) ([]string, error) {
	targets := append([]string(nil), args...)
	if domainFlags.targetsFile != "" {
		f, err := os.Open(domainFlags.targetsFile)
		if err != nil {
			return nil, fmt.Errorf("open targets file: %w", err)
		}
		defer f.Close()
		scanner := bufio.NewScanner(f)
		for scanner.Scan() {
			line := strings.TrimSpace(scanner.Text())
			if line == "" || strings.HasPrefix(line, "#") {
				continue
			}
			targets = append(targets, line)
		}
		if err := scanner.Err(); err != nil {
			return nil, fmt.Errorf("read targets file: %w", err)
		}
	}
	if len(targets) == 0 {
		return nil, fmt.Errorf("no targets: pass them as arguments or via --targets-file")
	}
	return targets, nil
}

// runBatch fans targets through the check runner and renders one line per
// result, with a progress display for larger batches.
func runBatch(cmd *cobra.Command, targets []string, checker domaincheck.Checker) error {
	runner := domaincheck.NewRunner()
	runner.Timeout = 30 * time.Second

	var progress *progressPrinter
	if len(targets) > 3 && !domainFlags.jsonOut {
		progress = newProgressPrinter(len(targets), checker.Name())
		progress.Start()
	}

	results := runner.Run(cmd.Context(), targets, checker, func(done, total int, result domaincheck.CheckResult) {
		if progress != nil {
			progress.Increment(result.OK)
		}
	})
	if progress != nil {
		progress.Stop()
	}

	out := cmd.OutOrStdout()
	if domainFlags.jsonOut {
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		return enc.Encode(results)
	}

	failures := 0
	for _, result := range results {
		switch {
		case result.Error != "":
			failures++
			fmt.Fprintf(out, "%-40s %s %s\n", result.Target, formatStatusWithColor("error"), result.Error)
		case result.OK:
			fmt.Fprintf(out, "%-40s %s %s\n", result.Target, formatStatusWithColor("pass"), result.Summary)
		default:
			failures++
			fmt.Fprintf(out, "%-40s %s %s\n", result.Target, formatStatusWithColor("fail"), result.Summary)
		}
	}
	if failures > 0 {
		return fmt.Errorf("%d of %d target(s) failed the %s check", failures, len(results), checker.Name())
	}
	return nil
}

func printResolveResult(cmd *cobra.Command, result domaincheck.ResolveResult) error {
	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "qname:      %s\n", result.QName)
	fmt.Fprintf(out, "rdtype:     %s\n", result.RecordType)
	fmt.Fprintf(out, "response:   %s\n", result.Response)
	if result.Nameserver != "" {
		fmt.Fprintf(out, "nameserver: %s\n", result.Nameserver)
	}
	if result.CanonicalName != "" {
		fmt.Fprintf(out, "canonical:  %s\n", result.CanonicalName)
	}
	if !result.Expiration.IsZero() {
		fmt.Fprintf(out, "expires:    %s\n", result.Expiration.Format(time.RFC3339))
	}
	for _, record := range result.Records {
		fmt.Fprintf(out, "  %s\n", record)
	}
	return nil
}

func init() {
	domainCmd.PersistentFlags().StringVar(&domainFlags.targetsFile, "targets-file", "", "file with one target per line")
	domainCmd.PersistentFlags().BoolVar(&domainFlags.jsonOut, "json", false, "emit results as JSON")
	domainResolveCmd.Flags().StringVarP(&domainFlags.recordType, "type", "t", "A", "DNS record type (A, AAAA, MX, TXT, ...)")
	addNameserverFlag(domainResolveCmd.Flags())
	addNameserverFlag(domainRevResolveCmd.Flags())
	domainAbuseCmd.Flags().StringVar(&domainFlags.abuseURL, "list-url", "", "override the abuse blocklist feed URL")
	domainScreenshotCmd.Flags().StringVar(&domainFlags.apiKey, "api-key", "", "Browshot API key (default from settings)")
	domainScreenshotCmd.Flags().StringVarP(&domainFlags.outFile, "out", "o", "", "output image path (default into the results directory)")

	domainCmd.AddCommand(domainTLDCmd)
	domainCmd.AddCommand(domainComponentsCmd)
	domainCmd.AddCommand(domainResolveCmd)
	domainCmd.AddCommand(domainRevResolveCmd)
	domainCmd.AddCommand(domainAbuseCmd)
	domainCmd.AddCommand(domainScreenshotCmd)
}
