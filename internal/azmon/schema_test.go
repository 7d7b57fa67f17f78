package azmon

import (
	"encoding/json"
	"reflect"
	"testing"
)

const tablesPayload = `{
  "value": [
    {
      "name": "Syslog",
      "properties": {
        "schema": {
          "standardColumns": [
            {"name": "TimeGenerated", "type": "datetime"},
            {"name": "Computer", "type": "string"}
          ],
          "customColumns": [
            {"name": "Extra_CF", "type": "string"}
          ]
        }
      }
    },
    {
      "name": "SecurityAlert",
      "properties": {
        "schema": {
          "standardColumns": [
            {"name": "AlertName", "type": "string"},
            {"name": "TimeGenerated", "type": "datetime"}
          ]
        }
      }
    }
  ]
}`

// same tables and columns, listed in a different order
const tablesPayloadReordered = `{
  "value": [
    {
      "name": "SecurityAlert",
      "properties": {
        "schema": {
          "standardColumns": [
            {"name": "TimeGenerated", "type": "datetime"},
            {"name": "AlertName", "type": "string"}
          ]
        }
      }
    },
    {
      "name": "Syslog",
      "properties": {
        "schema": {
          "standardColumns": [
            {"name": "Computer", "type": "string"},
            {"name": "TimeGenerated", "type": "datetime"}
          ],
          "customColumns": [
            {"name": "Extra_CF", "type": "string"}
          ]
        }
      }
    }
  ]
}`

func decodeTables(t *testing.T, payload string) tablesResponse {
	t.Helper()
	var resp tablesResponse
	if err := json.Unmarshal([]byte(payload), &resp); err != nil {
		t.Fatalf("decode payload: %v", err)
	}
	return resp
}

func TestFormatTablesMergesAndSorts(t *testing.T) {
	schema := formatTables(decodeTables(t, tablesPayload))

	wantTables := []string{"SecurityAlert", "Syslog"}
	if got := schema.Tables(); !reflect.DeepEqual(got, wantTables) {
		t.Errorf("Tables() = %v, want %v", got, wantTables)
	}

	wantCols := []string{"Computer", "Extra_CF", "TimeGenerated"}
	if got := schema.Columns("Syslog"); !reflect.DeepEqual(got, wantCols) {
		t.Errorf("Columns(Syslog) = %v, want %v", got, wantCols)
	}
	if got := schema["Syslog"]["Extra_CF"]; got != "string" {
		t.Errorf("custom column type = %q, want string", got)
	}
}

func TestFormatTablesCustomOverridesStandard(t *testing.T) {
	resp := decodeTables(t, `{
	  "value": [{
	    "name": "Heartbeat",
	    "properties": {"schema": {
	      "standardColumns": [{"name": "Category", "type": "string"}],
	      "customColumns": [{"name": "Category", "type": "dynamic"}]
	    }}
	  }]
	}`)

	schema := formatTables(resp)
	if got := schema["Heartbeat"]["Category"]; got != "dynamic" {
		t.Errorf("custom column should override standard, got type %q", got)
	}
}

func TestFormatTablesIdempotentAndOrderIndependent(t *testing.T) {
	first := formatTables(decodeTables(t, tablesPayload))
	second := formatTables(decodeTables(t, tablesPayload))
	reordered := formatTables(decodeTables(t, tablesPayloadReordered))

	if !reflect.DeepEqual(first, second) {
		t.Error("formatting the same payload twice produced different schemas")
	}
	if !reflect.DeepEqual(first, reordered) {
		t.Error("input ordering changed the formatted schema")
	}
	if !reflect.DeepEqual(first.Tables(), reordered.Tables()) {
		t.Error("sorted table listing differs between input orderings")
	}
}
