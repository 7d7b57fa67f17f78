// Package config wraps viper as the toolkit's settings store: workspace
// entries for the log-analytics driver, HTTP/proxy settings, and provider
// arguments (e.g. the Browshot API key).
package config

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/viper"

	"github.com/huntgrid/huntkit/internal/shared/constants"
)

// WorkspaceEntry is one configured log-analytics workspace.
type WorkspaceEntry struct {
	Name           string
	WorkspaceID    string
	TenantID       string
	SubscriptionID string
	ResourceGroup  string
	WorkspaceName  string
}

// Store reads toolkit settings. The zero value is unusable; construct with
// NewStore.
type Store struct {
	v *viper.Viper
}

// NewStore returns a Store over the given viper instance, or the global
// viper when v is nil.
func NewStore(v *viper.Viper) *Store {
	if v == nil {
		v = viper.GetViper()
	}
	return &Store{v: v}
}

// Workspace looks up a named workspace entry. The second return value is
// false when no entry exists under that name.
func (s *Store) Workspace(name string) (WorkspaceEntry, bool) {
	prefix := "workspaces." + name
	if !s.v.IsSet(prefix) {
		return WorkspaceEntry{}, false
	}
	return WorkspaceEntry{
		Name:           name,
		WorkspaceID:    s.v.GetString(prefix + ".workspace_id"),
		TenantID:       s.v.GetString(prefix + ".tenant_id"),
		SubscriptionID: s.v.GetString(prefix + ".subscription_id"),
		ResourceGroup:  s.v.GetString(prefix + ".resource_group"),
		WorkspaceName:  s.v.GetString(prefix + ".workspace_name"),
	}, true
}

// DefaultWorkspace returns the entry named by the default_workspace key.
func (s *Store) DefaultWorkspace() (WorkspaceEntry, bool) {
	name := s.v.GetString("default_workspace")
	if name == "" {
		return WorkspaceEntry{}, false
	}
	return s.Workspace(name)
}

// WorkspaceArgs returns the resolved Args map for a workspace. Values are
// either literal strings or protected settings of the form
// {env: VAR_NAME}, which read through the named environment variable.
func (s *Store) WorkspaceArgs(name string) map[string]string {
	raw := s.v.GetStringMap("workspaces." + name + ".args")
	return resolveArgs(raw)
}

// ProviderArgs returns the resolved Args map for an external provider
// section (e.g. "browshot"). Same protected-value handling as workspaces.
func (s *Store) ProviderArgs(provider string) map[string]string {
	raw := s.v.GetStringMap("providers." + provider + ".args")
	return resolveArgs(raw)
}

// BrowshotKey returns the configured Browshot API key, or "".
func (s *Store) BrowshotKey() string {
	return s.ProviderArgs("browshot")["authkey"]
}

// HTTPTimeout returns the configured HTTP timeout in seconds, falling back
// to the toolkit default.
func (s *Store) HTTPTimeout() time.Duration {
	if secs := s.v.GetInt("http_timeout"); secs > 0 {
		return time.Duration(secs) * time.Second
	}
	return constants.DefaultHTTPTimeout
}

// Proxies returns the configured proxy map {protocol: proxy_url}. Empty
// when unset.
func (s *Store) Proxies() map[string]string {
	return s.v.GetStringMapString("proxies")
}

// DefaultConnectionString returns a stored connection string, or "".
func (s *Store) DefaultConnectionString() string {
	return s.v.GetString("connection_string")
}

func resolveArgs(raw map[string]any) map[string]string {
	if len(raw) == 0 {
		return nil
	}
	args := make(map[string]string, len(raw))
	for key, val := range raw {
		switch v := val.(type) {
		case string:
			args[key] = v
		case map[string]any:
			if envName, ok := v["env"].(string); ok {
				args[key] = os.Getenv(envName)
			}
		default:
			args[key] = fmt.Sprint(v)
		}
	}
	return args
}
