package azmon

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"sort"
	"strings"

	"github.com/Azure/azure-sdk-for-go/sdk/azcore/policy"
	"github.com/huntgrid/huntkit/internal/shared/constants"
)

// Schema maps table names to column name/type mappings. Populated once
// after connect, read-only afterwards; used only to validate that a
// query's target table exists before dispatch.
type Schema map[string]map[string]string

// Tables returns the table names in sorted order.
func (s Schema) Tables() []string {
	names := make([]string, 0, len(s))
	for name := range s {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Columns returns the column names of a table in sorted order.
func (s Schema) Columns(tableName string) []string {
	cols := s[tableName]
	names := make([]string, 0, len(cols))
	for name := range cols {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

const tablesAPIVersion = "2021-12-01-preview"

// wire shape of the management-plane tables listing
type tablesResponse struct {
	Value []struct {
		Name       string `json:"name"`
		Properties struct {
			Schema tableSchema `json:"schema"`
		} `json:"properties"`
	} `json:"value"`
}

type tableSchema struct {
	StandardColumns []schemaColumn `json:"standardColumns"`
	CustomColumns   []schemaColumn `json:"customColumns"`
}

type schemaColumn struct {
	Name string `json:"name"`
	Type string `json:"type"`
}

// fetchSchema retrieves the workspace table schema, best-effort. Any
// missing config field, credential failure, or non-OK response degrades to
// an empty schema; the connect flow never fails here.
func (d *Driver) fetchSchema(ctx context.Context) Schema {
	if d.wsConfig == nil {
		d.log.Info("no workspace config - cannot get schema")
		return Schema{}
	}
	ws := d.wsConfig
	if ws.WorkspaceName == "" || ws.WorkspaceName == "Default" ||
		ws.SubscriptionID == "" || ws.ResourceGroup == "" {
		d.log.Info("not all workspace config available - cannot get schema")
		return Schema{}
	}

	endpoint := strings.TrimSuffix(d.mgmtEndpoint, "/")
	tablesURL := fmt.Sprintf(
		"%s/subscriptions/%s/resourcegroups/%s/providers/Microsoft.OperationalInsights/workspaces/%s/tables?api-version=%s",
		endpoint, ws.SubscriptionID, ws.ResourceGroup, ws.WorkspaceName, tablesAPIVersion)

	cred, err := d.credProvider.GetCredential(ctx, d.tenantID, d.authMethods)
	if err != nil {
		d.log.Infow("schema credential request failed", "error", err)
		return Schema{}
	}
	token, err := cred.GetToken(ctx, policy.TokenRequestOptions{
		Scopes: []string{endpoint + "/.default"},
	})
	if err != nil {
		d.log.Infow("schema token request failed", "error", err)
		return Schema{}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, tablesURL, nil)
	if err != nil {
		d.log.Infow("schema request build failed", "error", err)
		return Schema{}
	}
	req.Header.Set("Authorization", "Bearer "+token.Token)
	req.Header.Set("User-Agent", constants.UserAgent)
	d.log.Debugw("schema request", "url", tablesURL)

	resp, err := d.httpClient.Do(req)
	if err != nil {
		d.log.Infow("schema request failed", "error", err)
		return Schema{}
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		d.log.Infow("schema request failed", "status", resp.StatusCode)
		return Schema{}
	}

	var tables tablesResponse
	if err := json.NewDecoder(resp.Body).Decode(&tables); err != nil {
		d.log.Infow("schema response decode failed", "error", err)
		return Schema{}
	}
	d.log.Infow("schema retrieved from workspace", "tables", len(tables.Value))
	return formatTables(tables)
}

// formatTables flattens the management-plane listing into a Schema.
// Custom columns override standard columns of the same name. The result is
// deterministic for any input ordering.
func formatTables(resp tablesResponse) Schema {
	schema := make(Schema, len(resp.Value))
	for _, tbl := range resp.Value {
		schema[tbl.Name] = formatColumns(tbl.Properties.Schema)
	}
	return schema
}

func formatColumns(ts tableSchema) map[string]string {
	columns := make(map[string]string, len(ts.StandardColumns)+len(ts.CustomColumns))
	for _, col := range ts.StandardColumns {
		columns[col.Name] = col.Type
	}
	for _, col := range ts.CustomColumns {
		columns[col.Name] = col.Type
	}
	return columns
}
