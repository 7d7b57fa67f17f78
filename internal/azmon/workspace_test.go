package azmon

import "testing"

func TestParseConnectionString(t *testing.T) {
	testCases := []struct {
		name    string
		input   string
		want    WorkspaceConfig
		wantErr bool
	}{
		{
			name:  "workspace and tenant",
			input: "loganalytics://workspace('W1').tenant('T1')",
			want:  WorkspaceConfig{WorkspaceID: "W1", TenantID: "T1"},
		},
		{
			name:  "double quotes",
			input: `loganalytics://workspace("W1").tenant("T1")`,
			want:  WorkspaceConfig{WorkspaceID: "W1", TenantID: "T1"},
		},
		{
			name:  "all segments",
			input: "loganalytics://workspace('W1').tenant('T1').subscription('S1').resourcegroup('rg1').alias('soc')",
			want: WorkspaceConfig{
				WorkspaceID: "W1", TenantID: "T1",
				SubscriptionID: "S1", ResourceGroup: "rg1", WorkspaceName: "soc",
			},
		},
		{
			name:    "no usable segments",
			input:   "loganalytics://code()",
			wantErr: true,
		},
		{
			name:    "empty string",
			input:   "",
			wantErr: true,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			got, err := ParseConnectionString(tc.input)
			if tc.wantErr {
				if err == nil {
					t.Fatalf("expected error for %q, got %+v", tc.input, got)
				}
				return
			}
			if err != nil {
				t.Fatalf("ParseConnectionString(%q) error: %v", tc.input, err)
			}
			if got != tc.want {
				t.Errorf("got %+v, want %+v", got, tc.want)
			}
		})
	}
}

func TestWorkspaceConfigValid(t *testing.T) {
	if (WorkspaceConfig{WorkspaceID: "W1"}).Valid() {
		t.Error("config without tenant ID should be invalid")
	}
	if (WorkspaceConfig{TenantID: "T1"}).Valid() {
		t.Error("config without workspace ID should be invalid")
	}
	if !(WorkspaceConfig{WorkspaceID: "W1", TenantID: "T1"}).Valid() {
		t.Error("config with both IDs should be valid")
	}
}
