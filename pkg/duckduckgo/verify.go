package duckduckgo

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"regexp"
	"strconv"
	"strings"
	"time"
)

// VerificationResult is the outcome of a connectivity self-test.
type VerificationResult struct {
	Success bool   `json:"success"`
	Message string `json:"message,omitempty"`
}

// An error body containing markup means the remote served a page instead of
// JSON, which usually indicates a breaking API change rather than a
// well-formed error response.
var htmlBodyRe = regexp.MustCompile(`(?is)<(html|head|body|div|span|img|p>|a href)`)

// Verify issues an empty query and classifies the response: transport
// failure, authentication failure, likely breaking change (HTML or empty
// body), or the remote-reported error message verbatim.
func (c *httpClient) Verify(ctx context.Context) VerificationResult {
	q := url.Values{}
	q.Set("format", "json")
	q.Set("timestamp", strconv.FormatInt(time.Now().UnixNano(), 10))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/?"+q.Encode(), nil)
	if err != nil {
		return VerificationResult{Success: false, Message: fmt.Sprintf("Duck Duck Go request could not be constructed. %v.", err)}
	}
	req.Header.Set("User-Agent", userAgent)

	resp, err := c.http.Do(req)
	if err != nil {
		return VerificationResult{
			Success: false,
			Message: fmt.Sprintf("Duck Duck Go could not be reached. %v. This could be due to breaking changes in the external system.", err),
		}
	}
	defer resp.Body.Close()

	body, readErr := io.ReadAll(resp.Body)
	if readErr != nil {
		body = nil
	}

	base := fmt.Sprintf("Duck Duck Go returned %q.", fmt.Sprintf("%d %s", resp.StatusCode, http.StatusText(resp.StatusCode)))

	if resp.StatusCode == http.StatusUnauthorized {
		return VerificationResult{Success: false, Message: base + " This could be due to invalid API key."}
	}

	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		return VerificationResult{Success: true}
	}

	content := strings.TrimSpace(string(body))
	if content == "" || htmlBodyRe.MatchString(content) {
		return VerificationResult{Success: false, Message: base + " This could be due to breaking changes in the external system."}
	}

	return VerificationResult{Success: false, Message: base + " " + content + "."}
}
