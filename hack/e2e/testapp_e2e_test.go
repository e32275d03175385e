//go:build e2e

package e2e

import (
	"bytes"
	"encoding/json"
	"net/http"
	"os"
	"path/filepath"
	"testing"
	"time"
)

var checkNames = []string{"test_create_drug", "test_update_drug", "test_disable_drug", "test_upload_file", "test_persistent_data", "test_download_file"}

// Test_TestAppAgainstLiveTarget posts a run to a deployed tester and checks the
// shape of the report. Every check passing is only required with TESTER_E2E_STRICT.
func Test_TestAppAgainstLiveTarget(t *testing.T) {
	tester := os.Getenv("TESTER_E2E_URL")
	base := os.Getenv("TESTER_E2E_BASE_URL")
	if tester == "" || base == "" {
		t.Skip("TESTER_E2E_URL and TESTER_E2E_BASE_URL not set")
	}
	body, _ := json.Marshal(map[string]string{
		"baseUrl":          base,
		"openshiftUrl":     os.Getenv("TESTER_E2E_OPENSHIFT_URL"),
		"accountToken":     os.Getenv("TESTER_E2E_TOKEN"),
		"deployment":       os.Getenv("TESTER_E2E_DEPLOYMENT"),
		"appType":          envOr("TESTER_E2E_APP_TYPE", "deployment"),
		"openshiftProject": os.Getenv("TESTER_E2E_PROJECT"),
	})

	httpc := &http.Client{Timeout: 7 * time.Minute}
	resp, err := httpc.Post(tester+"/testApp", "application/json", bytes.NewReader(body))
	if err != nil {
		t.Fatalf("post /testApp: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200 got %d", resp.StatusCode)
	}
	var report map[string]string
	if err := json.NewDecoder(resp.Body).Decode(&report); err != nil {
		t.Fatalf("decode report: %v", err)
	}

	if dir := os.Getenv("ARTIFACTS_DIR"); dir != "" {
		b, _ := json.MarshalIndent(report, "", "  ")
		_ = os.MkdirAll(dir, 0o755)
		_ = os.WriteFile(filepath.Join(dir, "testapp-report.json"), b, 0o644)
	}

	if len(report) != len(checkNames) {
		t.Fatalf("expected %d keys, got %v", len(checkNames), report)
	}
	for _, name := range checkNames {
		v, ok := report[name]
		if !ok {
			t.Fatalf("report missing %s", name)
		}
		t.Logf("%-22s %s", name, v)
		if os.Getenv("TESTER_E2E_STRICT") != "" && v != "ok" {
			t.Errorf("%s: %s", name, v)
		}
	}
}

func envOr(k, def string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return def
}
