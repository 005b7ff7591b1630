package service

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

func GetExpiresAt(expiresIn int) time.Time {
	return time.Now().Add(time.Duration(expiresIn) * time.Second)
}

// truncateCode shortens an authorization code for logging. Codes are
// single-use secrets; only a prefix ever reaches the logs.
func truncateCode(code string) string {
	if len(code) <= 8 {
		return "(short code)"
	}
	return code[:8] + "..."
}

func getJSON(client *http.Client, url string, out interface{}) error {
	resp, err := client.Get(url)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("unexpected status %d: %s", resp.StatusCode, body)
	}

	return json.NewDecoder(resp.Body).Decode(out)
}
