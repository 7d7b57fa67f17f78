package azmon

import (
	"fmt"
	"regexp"
	"sort"

	"github.com/huntgrid/huntkit/internal/config"
	"github.com/huntgrid/huntkit/internal/shared/errors"
)

// WorkspaceConfig identifies one target log-analytics workspace. Immutable
// once resolved; a connection is only considered valid when both
// WorkspaceID and TenantID are present.
type WorkspaceConfig struct {
	WorkspaceID    string
	TenantID       string
	WorkspaceName  string
	SubscriptionID string
	ResourceGroup  string
}

// Valid reports whether the config carries the identifiers required to
// connect.
func (w WorkspaceConfig) Valid() bool {
	return w.WorkspaceID != "" && w.TenantID != ""
}

// connection strings use kql-magic style key(value) segments, e.g.
// loganalytics://workspace('<ws-id>').tenant('<tenant-id>')
var connStrSegment = regexp.MustCompile(`(\w+)\(\s*['"]?([^'")]+?)['"]?\s*\)`)

// ParseConnectionString extracts a WorkspaceConfig from a connection
// string. Recognized segments: workspace, tenant, subscription,
// resourcegroup, alias. Unknown segments are ignored.
func ParseConnectionString(connStr string) (WorkspaceConfig, error) {
	matches := connStrSegment.FindAllStringSubmatch(connStr, -1)
	if len(matches) == 0 {
		return WorkspaceConfig{}, fmt.Errorf("no workspace segments in connection string %q", connStr)
	}
	var ws WorkspaceConfig
	for _, m := range matches {
		key, value := m[1], m[2]
		switch key {
		case "workspace":
			ws.WorkspaceID = value
		case "tenant":
			ws.TenantID = value
		case "subscription":
			ws.SubscriptionID = value
		case "resourcegroup":
			ws.ResourceGroup = value
		case "alias", "workspacename":
			ws.WorkspaceName = value
		}
	}
	if ws.WorkspaceID == "" && ws.TenantID == "" {
		return WorkspaceConfig{}, fmt.Errorf("connection string %q has no workspace or tenant segment", connStr)
	}
	return ws, nil
}

func workspaceFromEntry(entry config.WorkspaceEntry) WorkspaceConfig {
	name := entry.WorkspaceName
	if name == "" {
		name = entry.Name
	}
	return WorkspaceConfig{
		WorkspaceID:    entry.WorkspaceID,
		TenantID:       entry.TenantID,
		WorkspaceName:  name,
		SubscriptionID: entry.SubscriptionID,
		ResourceGroup:  entry.ResourceGroup,
	}
}

// resolveWorkspaces turns the connect options into driver workspace state.
// Priority: Workspaces list > WorkspaceIDs list > Workspace name >
// connection string > stored default connection string. Later calls
// overwrite earlier state.
func (d *Driver) resolveWorkspaces(opts ConnectOptions) error {
	d.tenantID = opts.TenantID
	d.workspaceID = ""
	d.workspaceIDs = nil
	d.wsConfig = nil
	d.wsName = ""

	if len(opts.Workspaces) > 0 {
		return d.resolveByNames(opts.Workspaces)
	}
	if len(opts.WorkspaceIDs) > 0 {
		return d.resolveByIDs(opts.WorkspaceIDs)
	}
	return d.resolveSingle(opts)
}

// resolveByNames looks up each named workspace in settings and requires a
// single distinct tenant ID across all of them.
func (d *Driver) resolveByNames(names []string) error {
	tenants := make(map[string]struct{})
	ids := make([]string, 0, len(names))
	for _, name := range names {
		entry, ok := d.settings.Workspace(name)
		if !ok {
			return errors.New(errors.KindConfiguration,
				"Workspace not configured", helpURL,
				fmt.Sprintf("no settings entry for workspace %q", name))
		}
		ws := workspaceFromEntry(entry)
		if !ws.Valid() {
			return errors.New(errors.KindConfiguration,
				"Incomplete workspace settings", helpURL,
				fmt.Sprintf("workspace %q needs both workspace_id and tenant_id", name))
		}
		tenants[ws.TenantID] = struct{}{}
		ids = append(ids, ws.WorkspaceID)
	}
	if len(tenants) > 1 {
		return errors.New(errors.KindConfiguration,
			"Mismatched tenant IDs", helpURL,
			"all workspaces must have the same tenant ID")
	}
	for tenant := range tenants {
		d.tenantID = tenant
	}
	sort.Strings(ids)
	d.workspaceIDs = dedupe(ids)
	d.log.Infow("resolved workspaces by name", "count", len(d.workspaceIDs))
	return nil
}

// resolveByIDs accepts explicit workspace IDs; a tenant ID is mandatory
// since there is no settings entry to take it from.
func (d *Driver) resolveByIDs(ids []string) error {
	if d.tenantID == "" {
		return errors.New(errors.KindConfiguration,
			"No tenant_id supplied", helpURL,
			"a tenant_id is required with the workspace_ids parameter")
	}
	d.workspaceIDs = append([]string(nil), ids...)
	d.log.Infow("resolved workspaces by id", "count", len(d.workspaceIDs))
	return nil
}

func (d *Driver) resolveSingle(opts ConnectOptions) error {
	var (
		ws    WorkspaceConfig
		found bool
	)
	connStr := opts.ConnectionString
	if connStr == "" {
		connStr = d.defConnStr
	}
	switch {
	case opts.Workspace != "":
		entry, ok := d.settings.Workspace(opts.Workspace)
		if ok {
			ws, found = workspaceFromEntry(entry), true
			d.wsName = opts.Workspace
		}
	case connStr != "":
		d.defConnStr = connStr
		parsed, err := ParseConnectionString(connStr)
		if err == nil {
			ws, found = parsed, true
		}
	default:
		entry, ok := d.settings.DefaultWorkspace()
		if ok {
			ws, found = workspaceFromEntry(entry), true
			d.wsName = entry.Name
		}
	}

	if !found {
		return errors.New(errors.KindConnection,
			"No connection details", helpURL,
			"a workspace name, config or connection string is needed to connect to a workspace")
	}
	if !ws.Valid() {
		return errors.New(errors.KindConnection,
			"No connection details", helpURL,
			"the workspace config or connection string did not have the required parameters",
			"at least a workspace ID and tenant ID are required")
	}
	d.wsConfig = &ws
	if d.wsName == "" {
		d.wsName = ws.WorkspaceName
	}
	if d.tenantID == "" {
		d.tenantID = ws.TenantID
	}
	d.workspaceID = ws.WorkspaceID
	d.log.Infow("resolved single workspace", "workspace_id", d.workspaceID, "name", d.wsName)
	return nil
}

func dedupe(sorted []string) []string {
	out := sorted[:0]
	var prev string
	for i, s := range sorted {
		if i == 0 || s != prev {
			out = append(out, s)
		}
		prev = s
	}
	return out
}
