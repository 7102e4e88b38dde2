package logger

import (
	"bytes"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"time"
)

var remoteClient = &http.Client{Timeout: 5 * time.Second}

// sendLog pushes the entry to REMOTE_LOG_HTTP_URI in the background.
// Failures go to stderr only so logging never breaks a request.
func sendLog(level, message string, attrs []slog.Attr) {
	remoteURI := os.Getenv("REMOTE_LOG_HTTP_URI")
	if remoteURI == "" {
		return
	}
	entry := buildLogEntry(level, message, attrs, time.Now())

	go func() {
		payload, err := json.Marshal(entry)
		if err != nil {
			fmt.Fprintf(os.Stderr, "remote log: marshal failed: %v\n", err)
			return
		}

		req, err := http.NewRequest(http.MethodPost, remoteURI, bytes.NewReader(payload))
		if err != nil {
			fmt.Fprintf(os.Stderr, "remote log: build request failed: %v\n", err)
			return
		}
		req.Header.Set("Content-Type", "application/json")

		resp, err := remoteClient.Do(req)
		if err != nil {
			fmt.Fprintf(os.Stderr, "remote log: send failed: %v\n", err)
			return
		}
		defer resp.Body.Close()

		if resp.StatusCode >= 400 {
			fmt.Fprintf(os.Stderr, "remote log: status %d\n", resp.StatusCode)
		}
	}()
}
