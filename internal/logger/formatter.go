package logger

import (
	"encoding/json"
	"log/slog"
	"os"
	"strconv"
	"time"
)

const defaultJob = "inventory-crud"

// buildLogEntry wraps one log line in the Loki push payload shape.
func buildLogEntry(level, message string, attrs []slog.Attr, now time.Time) map[string]interface{} {
	job := os.Getenv("APP_NAME")
	if job == "" {
		job = defaultJob
	}

	return map[string]interface{}{
		"streams": []map[string]interface{}{
			{
				"stream": map[string]string{
					"level": level,
					"job":   job,
				},
				"values": [][]string{
					{
						strconv.FormatInt(now.UnixNano(), 10),
						buildLogLine(level, message, attrs, now),
					},
				},
			},
		},
	}
}

func buildLogLine(level, message string, attrs []slog.Attr, now time.Time) string {
	line := map[string]interface{}{
		"level":   level,
		"message": message,
		"time":    now.Format(time.RFC3339),
	}
	for _, attr := range attrs {
		line[attr.Key] = attr.Value.Any()
	}

	b, _ := json.Marshal(line)
	return string(b)
}
