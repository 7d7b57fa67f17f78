package azmon

import "testing"

func TestCompatForVersion(t *testing.T) {
	testCases := []struct {
		name    string
		version string
		wantV1  bool
	}{
		{"before cutover", "v1.0.0", false},
		{"at cutover", "v1.1.0", false},
		{"after cutover patch", "v1.1.1", true},
		{"after cutover minor", "v1.2.0", true},
		{"unknown version", "", true},
		{"garbage version", "devel", true},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			compat := compatForVersion(tc.version)
			if compat.V1PathSuffix != tc.wantV1 {
				t.Errorf("compatForVersion(%q).V1PathSuffix = %v, want %v",
					tc.version, compat.V1PathSuffix, tc.wantV1)
			}
		})
	}
}

func TestLogsEndpoint(t *testing.T) {
	legacy := EndpointCompat{V1PathSuffix: false}
	if got := legacy.LogsEndpoint("https://api.loganalytics.io/"); got != "https://api.loganalytics.io/" {
		t.Errorf("legacy endpoint = %q", got)
	}

	modern := EndpointCompat{V1PathSuffix: true}
	if got := modern.LogsEndpoint("https://api.loganalytics.io/"); got != "https://api.loganalytics.io/v1" {
		t.Errorf("modern endpoint = %q", got)
	}
	// missing trailing slash is tolerated
	if got := modern.LogsEndpoint("https://api.loganalytics.io"); got != "https://api.loganalytics.io/v1" {
		t.Errorf("modern endpoint without slash = %q", got)
	}
}
