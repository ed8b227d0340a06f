package logx

import (
	"encoding/json"
	"fmt"
	"sort"
	"strings"
	"time"
)

type formatter interface {
	format(level Level, msg string, fields Fields) []byte
}

// consoleFormatter renders human-readable lines for dev terminals:
//
//	2026-08-31T10:00:00Z INFO  jobsrv: job submitted  job_id=6f1c...
type consoleFormatter struct {
	colors bool
}

const (
	ansiReset  = "\033[0m"
	ansiGray   = "\033[90m"
	ansiYellow = "\033[33m"
	ansiRed    = "\033[31m"
	ansiBold   = "\033[1m"
)

func (f consoleFormatter) format(level Level, msg string, fields Fields) []byte {
	var b strings.Builder
	b.WriteString(time.Now().Format(time.RFC3339))
	b.WriteByte(' ')

	label := fmt.Sprintf("%-5s", level)
	if f.colors {
		b.WriteString(f.color(level))
		b.WriteString(label)
		b.WriteString(ansiReset)
	} else {
		b.WriteString(label)
	}

	b.WriteByte(' ')
	b.WriteString(msg)

	for _, k := range sortedKeys(fields) {
		fmt.Fprintf(&b, " %s=%v", k, fields[k])
	}
	b.WriteByte('\n')
	return []byte(b.String())
}

func (f consoleFormatter) color(level Level) string {
	switch level {
	case LevelDebug:
		return ansiGray
	case LevelWarn:
		return ansiYellow
	case LevelError:
		return ansiRed
	case LevelFatal:
		return ansiBold + ansiRed
	}
	return ""
}

// jsonFormatter emits one JSON object per line for log shippers.
type jsonFormatter struct{}

func (jsonFormatter) format(level Level, msg string, fields Fields) []byte {
	record := make(map[string]interface{}, len(fields)+3)
	for k, v := range fields {
		record[k] = v
	}
	record["time"] = time.Now().Format(time.RFC3339Nano)
	record["level"] = level.String()
	record["msg"] = msg

	out, err := json.Marshal(record)
	if err != nil {
		out = []byte(fmt.Sprintf(`{"level":"ERROR","msg":"logx: marshal failed: %v"}`, err))
	}
	return append(out, '\n')
}

func sortedKeys(fields Fields) []string {
	if len(fields) == 0 {
		return nil
	}
	keys := make([]string, 0, len(fields))
	for k := range fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
