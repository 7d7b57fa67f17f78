// Package azmon implements the log-analytics query driver: workspace
// resolution, credential acquisition, client binding, best-effort schema
// fetch, and query dispatch with result classification.
package azmon

import (
	"context"
	stderrors "errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/Azure/azure-sdk-for-go/sdk/azcore"
	"github.com/Azure/azure-sdk-for-go/sdk/monitor/azquery"
	"go.uber.org/zap"

	"github.com/huntgrid/huntkit/internal/config"
	"github.com/huntgrid/huntkit/internal/shared/constants"
	"github.com/huntgrid/huntkit/internal/shared/errors"
	"github.com/huntgrid/huntkit/internal/table"
)

const helpURL = "https://github.com/huntgrid/huntkit/blob/main/docs/providers.md"

const defaultLogsBaseURL = "https://api.loganalytics.io/"
const defaultMgmtEndpoint = "https://management.azure.com/"

// Query status names reported in the Status record.
const (
	StatusSuccess        = "success"
	StatusPartial        = "partial"
	StatusUnknownFailure = "unknown failure"
)

// Status is the per-query status record.
type Status struct {
	Status string `json:"status"`
	Tables int    `json:"tables"`
	// Raw carries the unclassifiable service response for diagnostics.
	Raw any `json:"result,omitempty"`
}

// TimeSpan bounds a query. Instants are passed through as given; they are
// never reinterpreted into another timezone.
type TimeSpan struct {
	Start time.Time
	End   time.Time
}

// QuerySource describes a pre-defined query and its declared target table,
// used for pre-dispatch schema validation.
type QuerySource struct {
	Name  string
	Table string
}

// Options configures a Driver.
type Options struct {
	Logger             *zap.SugaredLogger
	Settings           *config.Store
	CredentialProvider CredentialProvider
	// Compat overrides the endpoint compatibility descriptor; resolved
	// from build info when nil.
	Compat *EndpointCompat
	// LogsBaseURL and MgmtEndpoint override the service endpoints
	// (primarily for tests and sovereign clouds).
	LogsBaseURL  string
	MgmtEndpoint string
	HTTPClient   *http.Client

	ConnectionString string
	Timeout          time.Duration
	Proxies          map[string]string
	FailOnPartial    bool
	MaxParallel      int
	SkipSchema       bool
}

// ConnectOptions are the per-connect parameters. Explicit lists take
// priority over the single workspace name, which takes priority over the
// connection string.
type ConnectOptions struct {
	ConnectionString string
	Workspace        string
	Workspaces       []string
	WorkspaceIDs     []string
	TenantID         string
	AuthMethods      []string
	Timeout          time.Duration
	Proxies          map[string]string
	FailOnPartial    *bool
	SkipSchema       bool
	// Args are caller overrides merged over the workspace's stored Args,
	// caller values winning.
	Args map[string]string
}

// QueryOptions are the per-query parameters.
type QueryOptions struct {
	TimeSpan *TimeSpan
	// DefaultTimeParams suppresses the time restriction even when a
	// TimeSpan is present.
	DefaultTimeParams bool
	Timeout           time.Duration
	FailOnPartial     *bool
}

// Driver executes KQL queries against log-analytics workspaces. One driver
// holds at most one active client binding. Connect and the query methods
// are meant to be called sequentially by one caller; no internal locking
// protects the connection state (see SupportsThreading / MaxParallel for
// the caller-managed concurrency contract).
type Driver struct {
	log          *zap.SugaredLogger
	settings     *config.Store
	credProvider CredentialProvider
	compat       EndpointCompat
	logsBaseURL  string
	mgmtEndpoint string
	httpClient   *http.Client
	newClient    func(cred azcore.TokenCredential, endpoint string, proxies map[string]string) (logsQuerier, error)

	defConnStr    string
	defTimeout    time.Duration
	defProxies    map[string]string
	failOnPartial bool
	maxParallel   int
	tryGetSchema  bool
	authMethods   []string

	connected    bool
	client       logsQuerier
	wsConfig     *WorkspaceConfig
	wsName       string
	tenantID     string
	workspaceID  string
	workspaceIDs []string
	schema       Schema
}

// NewDriver builds a disconnected driver.
func NewDriver(opts Options) *Driver {
	log := opts.Logger
	if log == nil {
		log = zap.NewNop().Sugar()
	}
	settings := opts.Settings
	if settings == nil {
		settings = config.NewStore(nil)
	}
	credProvider := opts.CredentialProvider
	if credProvider == nil {
		credProvider = IdentityCredentialProvider{}
	}
	compat := ResolveEndpointCompat()
	if opts.Compat != nil {
		compat = *opts.Compat
	}
	logsBase := opts.LogsBaseURL
	if logsBase == "" {
		logsBase = defaultLogsBaseURL
	}
	mgmt := opts.MgmtEndpoint
	if mgmt == "" {
		mgmt = defaultMgmtEndpoint
	}
	httpClient := opts.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: settings.HTTPTimeout()}
		if transport := proxyTransport(opts.Proxies); transport != nil {
			httpClient.Transport = transport
		}
	}
	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = constants.DefaultQueryTimeout
	}
	maxParallel := opts.MaxParallel
	if maxParallel <= 0 {
		maxParallel = constants.DefaultMaxParallel
	}
	proxies := opts.Proxies
	if proxies == nil {
		proxies = settings.Proxies()
	}
	connStr := opts.ConnectionString
	if connStr == "" {
		connStr = settings.DefaultConnectionString()
	}
	return &Driver{
		log:           log,
		settings:      settings,
		credProvider:  credProvider,
		compat:        compat,
		logsBaseURL:   logsBase,
		mgmtEndpoint:  mgmt,
		httpClient:    httpClient,
		newClient:     newLogsClient,
		defConnStr:    connStr,
		defTimeout:    timeout,
		defProxies:    proxies,
		failOnPartial: opts.FailOnPartial,
		maxParallel:   maxParallel,
		tryGetSchema:  !opts.SkipSchema,
		schema:        Schema{},
	}
}

// Connected reports whether a Connect call has succeeded.
func (d *Driver) Connected() bool {
	return d.connected
}

// Schema returns the cached workspace schema (empty when the best-effort
// fetch did not produce one).
func (d *Driver) Schema() Schema {
	return d.schema
}

// SupportsThreading reports that callers may issue queries concurrently
// against one connected driver; enforcing MaxParallel is the caller's
// responsibility.
func (d *Driver) SupportsThreading() bool {
	return true
}

// MaxParallel is the parallelism hint for concurrent callers.
func (d *Driver) MaxParallel() int {
	return d.maxParallel
}

// CurrentConnection names the active binding for display purposes.
func (d *Driver) CurrentConnection() string {
	if d.wsName != "" {
		return d.wsName
	}
	if d.defConnStr != "" {
		return d.defConnStr
	}
	if d.workspaceID != "" {
		return d.workspaceID
	}
	if len(d.workspaceIDs) > 0 {
		return d.workspaceIDs[0]
	}
	return "AzureMonitor"
}

// Connect resolves the target workspace(s), builds the query client, and
// fetches the schema best-effort. It either fully succeeds or returns an
// error while the driver stays disconnected; a later Connect replaces any
// earlier binding.
func (d *Driver) Connect(ctx context.Context, opts ConnectOptions) error {
	d.connected = false

	if opts.Timeout > 0 {
		d.defTimeout = opts.Timeout
	}
	if opts.Proxies != nil {
		d.defProxies = opts.Proxies
	}
	if len(opts.AuthMethods) > 0 {
		d.authMethods = opts.AuthMethods
	}
	if err := d.resolveWorkspaces(opts); err != nil {
		return err
	}

	args := d.mergeConnectArgs(opts)
	if methods := args["auth_methods"]; methods != "" && len(opts.AuthMethods) == 0 {
		d.authMethods = strings.Split(methods, ",")
	}
	if tenant := args["tenant_id"]; tenant != "" && opts.TenantID == "" && d.tenantID == "" {
		d.tenantID = tenant
	}

	client, err := d.createQueryClient(ctx)
	if err != nil {
		return err
	}
	d.client = client

	if opts.FailOnPartial != nil {
		d.failOnPartial = *opts.FailOnPartial
	}
	d.schema = Schema{}
	if d.tryGetSchema && !opts.SkipSchema {
		d.schema = d.fetchSchema(ctx)
	}
	d.connected = true
	d.log.Infow("connected", "connection", d.CurrentConnection(), "tables", len(d.schema))
	return nil
}

// mergeConnectArgs merges the stored workspace Args with caller-supplied
// overrides, caller values winning.
func (d *Driver) mergeConnectArgs(opts ConnectOptions) map[string]string {
	merged := map[string]string{}
	if d.wsName != "" {
		for k, v := range d.settings.WorkspaceArgs(d.wsName) {
			merged[k] = v
		}
	}
	for k, v := range opts.Args {
		merged[k] = v
	}
	return merged
}

func (d *Driver) createQueryClient(ctx context.Context) (logsQuerier, error) {
	cred, err := d.credProvider.GetCredential(ctx, d.tenantID, d.authMethods)
	if err != nil {
		return nil, errors.Wrap(errors.KindConnection, err,
			"Credential error", helpURL,
			"could not obtain a credential for the workspace tenant")
	}
	endpoint := d.compat.LogsEndpoint(d.logsBaseURL)
	d.log.Infow("created query client",
		"endpoint", endpoint, "sdk_version", d.compat.SDKVersion, "proxies", len(d.defProxies))
	return d.newClient(cred, endpoint, d.defProxies)
}

// Query executes a query string and returns the result table, or the raw
// unclassifiable result when the service response had no usable shape.
func (d *Driver) Query(ctx context.Context, query string, source *QuerySource, opts QueryOptions) (any, error) {
	if err := d.requireConnected(); err != nil {
		return nil, err
	}
	if err := d.checkTableExists(source); err != nil {
		return nil, err
	}
	tbl, status, err := d.QueryWithResults(ctx, query, opts)
	if err != nil {
		return nil, err
	}
	if tbl == nil {
		return status.Raw, nil
	}
	return tbl, nil
}

// QueryWithResults executes a query string and returns the result table
// plus the query status record.
func (d *Driver) QueryWithResults(ctx context.Context, query string, opts QueryOptions) (*table.Table, Status, error) {
	if err := d.requireConnected(); err != nil {
		return nil, Status{Status: StatusUnknownFailure}, err
	}

	interval := d.timeSpanValue(opts)
	failOnPartial := d.failOnPartial
	if opts.FailOnPartial != nil {
		failOnPartial = *opts.FailOnPartial
	}
	timeout := d.defTimeout
	if opts.Timeout > 0 {
		timeout = opts.Timeout
	}

	workspaceID := d.workspaceID
	var additional []*string
	if len(d.workspaceIDs) > 0 {
		workspaceID = d.workspaceIDs[0]
		for _, id := range d.workspaceIDs[1:] {
			id := id
			additional = append(additional, &id)
		}
	}

	d.log.Infow("query to run", "query", query)
	d.log.Infow("query target", "workspace", workspaceID, "additional", len(additional),
		"timespan", intervalString(interval), "timeout", timeout)

	waitSecs := int(timeout / time.Second)
	body := azquery.Body{
		Query:                &query,
		Timespan:             interval,
		AdditionalWorkspaces: additional,
	}
	resp, err := d.client.QueryWorkspace(ctx, workspaceID, body, &azquery.LogsClientQueryWorkspaceOptions{
		Options: &azquery.LogsQueryOptions{Wait: &waitSecs},
	})
	if err != nil {
		var respErr *azcore.ResponseError
		if stderrors.As(err, &respErr) {
			return nil, Status{Status: StatusUnknownFailure}, queryFailure(query, respErr)
		}
		// unexpected error type from the SDK
		return nil, Status{Status: StatusUnknownFailure}, unknownFailure(err)
	}

	status := queryStatus(resp.Results)
	d.log.Infow("query status", "status", status.Status, "tables", status.Tables)

	var azTable *azquery.Table
	switch {
	case resp.Results.Error != nil && len(resp.Results.Tables) > 0:
		if failOnPartial {
			return nil, status, errors.New(errors.KindQueryFailure,
				"Partial results returned", helpURL,
				"this may indicate a query timeout")
		}
		d.log.Warn("partial results returned; this may indicate a query timeout")
		azTable = resp.Results.Tables[0]
	case resp.Results.Error != nil:
		return nil, status, queryFailure(query, resp.Results.Error)
	case len(resp.Results.Tables) > 0:
		azTable = resp.Results.Tables[0]
	default:
		return nil, status, nil
	}

	tbl := tableFromLogs(azTable)
	d.log.Infow("table returned", "rows", tbl.RowCount())
	return tbl, status, nil
}

func (d *Driver) requireConnected() error {
	if !d.connected || d.client == nil {
		return errors.New(errors.KindNotConnected,
			"Workspace not connected", helpURL,
			"run Connect before running a query")
	}
	return nil
}

// checkTableExists validates the query source's declared table against the
// cached schema. Skipped entirely when no schema was fetched.
func (d *Driver) checkTableExists(source *QuerySource) error {
	if source == nil || len(d.schema) == 0 {
		return nil
	}
	tableName := strings.TrimSpace(source.Table)
	if tableName == "" {
		return nil
	}
	if idx := strings.Index(tableName, " "); idx >= 0 {
		tableName = tableName[:idx]
	}
	if _, ok := d.schema[tableName]; !ok {
		return errors.New(errors.KindNoDataSource,
			tableName+" not found", helpURL,
			fmt.Sprintf("the table %s for this query is not in your workspace or database schema", tableName))
	}
	return nil
}

// timeSpanValue computes the wire timespan. No restriction is sent when
// default time handling is requested or either bound is missing. Instants
// keep their original zone offsets.
func (d *Driver) timeSpanValue(opts QueryOptions) *azquery.TimeInterval {
	if opts.DefaultTimeParams || opts.TimeSpan == nil ||
		opts.TimeSpan.Start.IsZero() || opts.TimeSpan.End.IsZero() {
		d.log.Info("no time parameters supplied")
		return nil
	}
	interval := azquery.NewTimeInterval(opts.TimeSpan.Start, opts.TimeSpan.End)
	return &interval
}

func intervalString(interval *azquery.TimeInterval) string {
	if interval == nil {
		return "none"
	}
	return string(*interval)
}

// queryStatus classifies the raw service result. An unrecognized shape
// reports an unknown failure and retains the raw result for diagnostics.
func queryStatus(results azquery.Results) Status {
	switch {
	case results.Error == nil && len(results.Tables) > 0:
		return Status{Status: StatusSuccess, Tables: len(results.Tables)}
	case results.Error != nil && len(results.Tables) > 0:
		return Status{Status: StatusPartial, Tables: len(results.Tables)}
	default:
		return Status{Status: StatusUnknownFailure, Tables: 0, Raw: results}
	}
}

func tableFromLogs(azTable *azquery.Table) *table.Table {
	columns := make([]string, len(azTable.Columns))
	for i, col := range azTable.Columns {
		if col != nil && col.Name != nil {
			columns[i] = *col.Name
		}
	}
	rows := make([][]any, len(azTable.Rows))
	for i, row := range azTable.Rows {
		rows[i] = row
	}
	return table.New(columns, rows)
}

// queryFailure wraps a service-level query error with its message lines
// plus a rendering of the original query text.
func queryFailure(query string, cause error) error {
	lines := strings.Split(cause.Error(), "\n")
	if len(lines) == 0 || (len(lines) == 1 && lines[0] == "") {
		lines = []string{"unknown query error"}
	}
	lines = append(lines, "Query:\n"+query)
	return errors.Wrap(errors.KindQueryFailure, cause,
		"Query Failure", helpURL, lines...)
}

// unknownFailure wraps an unrecognized dispatch error, preserving the
// original error chain.
func unknownFailure(cause error) error {
	return errors.Wrap(errors.KindQueryFailure, cause,
		"connection failed", helpURL,
		"an unknown error was returned by the service")
}
