package azmon

import (
	"runtime/debug"
	"strings"

	"golang.org/x/mod/semver"
)

const (
	azqueryModulePath = "github.com/Azure/azure-sdk-for-go/sdk/monitor/azquery"

	// Releases after this version moved the logs query API under a
	// "v1"-suffixed path. The descriptor below is resolved once at startup
	// and injected into the client factory, so no call site compares
	// version strings.
	logsPathCutover = "v1.1.0"
)

// EndpointCompat describes which endpoint path form the installed query
// SDK expects.
type EndpointCompat struct {
	// SDKVersion is the resolved azquery module version ("" when the
	// toolkit is built without module metadata).
	SDKVersion string
	// V1PathSuffix is true when the logs endpoint needs a "v1" suffix.
	V1PathSuffix bool
}

// ResolveEndpointCompat inspects the build info for the installed azquery
// module version and returns the matching descriptor. Unknown or missing
// versions resolve to the modern path form.
func ResolveEndpointCompat() EndpointCompat {
	info, ok := debug.ReadBuildInfo()
	if !ok {
		return compatForVersion("")
	}
	for _, dep := range info.Deps {
		if dep.Path == azqueryModulePath {
			return compatForVersion(dep.Version)
		}
	}
	return compatForVersion("")
}

func compatForVersion(version string) EndpointCompat {
	if version == "" || !semver.IsValid(version) {
		return EndpointCompat{SDKVersion: version, V1PathSuffix: true}
	}
	return EndpointCompat{
		SDKVersion:   version,
		V1PathSuffix: semver.Compare(version, logsPathCutover) > 0,
	}
}

// LogsEndpoint returns the query endpoint for the given base URL in the
// path form this SDK version expects.
func (c EndpointCompat) LogsEndpoint(base string) string {
	if !c.V1PathSuffix {
		return base
	}
	if !strings.HasSuffix(base, "/") {
		base += "/"
	}
	return base + "v1"
}
