package azmon

import (
	"context"
	"fmt"
	"net/http"
	"net/url"

	"github.com/Azure/azure-sdk-for-go/sdk/azcore"
	"github.com/Azure/azure-sdk-for-go/sdk/azcore/cloud"
	"github.com/Azure/azure-sdk-for-go/sdk/azidentity"
	"github.com/Azure/azure-sdk-for-go/sdk/monitor/azquery"
	"github.com/huntgrid/huntkit/internal/shared/errors"
)

// CredentialProvider supplies a token credential for a tenant given the
// accepted auth-method names.
type CredentialProvider interface {
	GetCredential(ctx context.Context, tenantID string, authMethods []string) (azcore.TokenCredential, error)
}

// IdentityCredentialProvider builds azidentity credentials. Recognized
// method names: "env", "cli", "msi", "devicecode". An empty method list
// falls back to the SDK default chain.
type IdentityCredentialProvider struct{}

// GetCredential implements CredentialProvider.
func (IdentityCredentialProvider) GetCredential(_ context.Context, tenantID string, authMethods []string) (azcore.TokenCredential, error) {
	if len(authMethods) == 0 {
		cred, err := azidentity.NewDefaultAzureCredential(&azidentity.DefaultAzureCredentialOptions{
			TenantID: tenantID,
		})
		if err != nil {
			return nil, fmt.Errorf("default credential: %w", err)
		}
		return cred, nil
	}

	chain := make([]azcore.TokenCredential, 0, len(authMethods))
	for _, method := range authMethods {
		cred, err := credentialForMethod(method, tenantID)
		if err != nil {
			return nil, err
		}
		chain = append(chain, cred)
	}
	if len(chain) == 1 {
		return chain[0], nil
	}
	cred, err := azidentity.NewChainedTokenCredential(chain, nil)
	if err != nil {
		return nil, fmt.Errorf("chained credential: %w", err)
	}
	return cred, nil
}

func credentialForMethod(method, tenantID string) (azcore.TokenCredential, error) {
	switch method {
	case "env":
		cred, err := azidentity.NewEnvironmentCredential(nil)
		if err != nil {
			return nil, fmt.Errorf("environment credential: %w", err)
		}
		return cred, nil
	case "cli":
		cred, err := azidentity.NewAzureCLICredential(&azidentity.AzureCLICredentialOptions{
			TenantID: tenantID,
		})
		if err != nil {
			return nil, fmt.Errorf("cli credential: %w", err)
		}
		return cred, nil
	case "msi":
		cred, err := azidentity.NewManagedIdentityCredential(nil)
		if err != nil {
			return nil, fmt.Errorf("managed identity credential: %w", err)
		}
		return cred, nil
	case "devicecode":
		cred, err := azidentity.NewDeviceCodeCredential(&azidentity.DeviceCodeCredentialOptions{
			TenantID: tenantID,
		})
		if err != nil {
			return nil, fmt.Errorf("device code credential: %w", err)
		}
		return cred, nil
	default:
		return nil, errors.New(errors.KindConfiguration,
			"Unknown auth method", helpURL,
			fmt.Sprintf("auth method %q is not one of env, cli, msi, devicecode", method))
	}
}

// logsQuerier is the slice of azquery.LogsClient the driver depends on.
// Tests substitute fakes; production code binds the real client.
type logsQuerier interface {
	QueryWorkspace(ctx context.Context, workspaceID string, body azquery.Body, options *azquery.LogsClientQueryWorkspaceOptions) (azquery.LogsClientQueryWorkspaceResponse, error)
}

const logsAudience = "https://api.loganalytics.io"

// newLogsClient builds the real azquery client bound to the given endpoint
// and proxy configuration. No connectivity validation happens here;
// connectivity is proven by the first query or schema fetch.
func newLogsClient(cred azcore.TokenCredential, endpoint string, proxies map[string]string) (logsQuerier, error) {
	opts := &azquery.LogsClientOptions{}
	opts.Cloud = cloud.Configuration{
		ActiveDirectoryAuthorityHost: cloud.AzurePublic.ActiveDirectoryAuthorityHost,
		Services: map[cloud.ServiceName]cloud.ServiceConfiguration{
			azquery.ServiceNameLogs: {
				Endpoint: endpoint,
				Audience: logsAudience,
			},
		},
	}
	if transport := proxyTransport(proxies); transport != nil {
		opts.Transport = &http.Client{Transport: transport}
	}
	client, err := azquery.NewLogsClient(cred, opts)
	if err != nil {
		return nil, fmt.Errorf("create logs client: %w", err)
	}
	return client, nil
}

// proxyTransport returns a transport honoring a {protocol: proxy_url} map,
// or nil when no proxies are configured.
func proxyTransport(proxies map[string]string) *http.Transport {
	if len(proxies) == 0 {
		return nil
	}
	return &http.Transport{
		Proxy: func(req *http.Request) (*url.URL, error) {
			proxyURL, ok := proxies[req.URL.Scheme]
			if !ok {
				return nil, nil
			}
			return url.Parse(proxyURL)
		},
	}
}
