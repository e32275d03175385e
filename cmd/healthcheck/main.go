// Command healthcheck probes the tester's readiness endpoint; it is the
// container image's HEALTHCHECK and exits non-zero when the tester is not ready.
package main

import (
	"net/http"
	"os"
	"strings"
	"time"
)

func main() {
	url := os.Getenv("HEALTH_URL")
	if url == "" {
		url = "http://localhost" + listenPort() + "/readyz"
	}
	c := &http.Client{Timeout: 2 * time.Second}
	resp, err := c.Get(url)
	if err != nil {
		os.Stderr.WriteString("healthcheck: " + err.Error() + "\n")
		os.Exit(1)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		os.Stderr.WriteString("healthcheck: " + resp.Status + "\n")
		os.Exit(1)
	}
	os.Exit(0)
}

// listenPort returns the ":port" part of TESTER_HTTP_ADDR, defaulting to :8080.
func listenPort() string {
	addr := os.Getenv("TESTER_HTTP_ADDR")
	if i := strings.LastIndex(addr, ":"); i >= 0 {
		return addr[i:]
	}
	return ":8080"
}
