// Package runlog appends per-run verdict records to daily JSONL files so
// past recommendations remain auditable. Files older than the retention
// window are gzip-compressed in place.
package runlog

import (
	"compress/gzip"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/kdeep17/portfolio-ai/internal/types"
)

var mu sync.Mutex

type VerdictEntry struct {
	Time    string         `json:"time"`
	RunID   string         `json:"run_id"`
	Symbol  string         `json:"symbol"`
	Action  string         `json:"action"`
	Urgency string         `json:"urgency"`
	Reason  string         `json:"reason"`
	Rule    string         `json:"rule,omitempty"`
	Extra   map[string]any `json:"extra,omitempty"`
}

type RunEntry struct {
	Time        string  `json:"time"`
	RunID       string  `json:"run_id"`
	Holdings    int     `json:"holdings"`
	Actions     int     `json:"actions"`
	Bias        string  `json:"bias"`
	HealthScore int     `json:"health_score"`
	TotalValue  float64 `json:"total_value"`
}

func logDir() string {
	if v := os.Getenv("ADVISOR_LOG_DIR"); v != "" {
		return v
	}
	return "logs"
}

func dailyFilepath(t time.Time) string {
	d := t.In(time.FixedZone("IST", 19800)).Format("2006-01-02")
	return filepath.Join(logDir(), d+".txt")
}

func verdictsFilepath(t time.Time) string {
	d := t.In(time.FixedZone("IST", 19800)).Format("2006-01-02")
	return filepath.Join(logDir(), "verdicts", d+".txt")
}

// AppendRun records the run-level summary line.
func AppendRun(e RunEntry) error {
	mu.Lock()
	defer mu.Unlock()
	now := time.Now().In(time.FixedZone("IST", 19800))
	e.Time = now.Format("2006-01-02 15:04:05")
	return appendJSON(dailyFilepath(now), e)
}

// AppendVerdicts records one line per non-HOLD verdict.
func AppendVerdicts(runID string, verdicts []types.Verdict) error {
	mu.Lock()
	defer mu.Unlock()
	now := time.Now().In(time.FixedZone("IST", 19800))
	p := verdictsFilepath(now)
	for _, v := range verdicts {
		if v.Action == types.ActionHold {
			continue
		}
		e := VerdictEntry{
			Time:    now.Format("2006-01-02 15:04:05"),
			RunID:   runID,
			Symbol:  v.Symbol,
			Action:  string(v.Action),
			Urgency: string(v.Urgency),
			Reason:  v.Reason,
			Rule:    v.Rule,
		}
		if err := appendJSON(p, e); err != nil {
			return err
		}
	}
	return nil
}

func appendJSON(path string, v any) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return err
	}
	defer f.Close()
	b, _ := json.Marshal(v)
	_, err = fmt.Fprintln(f, string(b))
	return err
}

// CompressOlder gzips log files past the retention window.
func CompressOlder(retentionDays int) error {
	if retentionDays <= 0 {
		return nil
	}
	root := logDir()
	return filepath.WalkDir(root, func(p string, d os.DirEntry, err error) error {
		if err != nil || d.IsDir() || filepath.Ext(p) != ".txt" {
			return nil
		}
		info, er := os.Stat(p)
		if er != nil {
			return nil
		}
		cutoff := time.Now().AddDate(0, 0, -retentionDays)
		if !info.ModTime().Before(cutoff) {
			return nil
		}

		gz := p + ".gz"
		if _, e2 := os.Stat(gz); e2 == nil {
			_ = os.Remove(p)
			return nil
		}

		in, e3 := os.Open(p)
		if e3 != nil {
			return nil
		}
		defer in.Close()

		out, e4 := os.OpenFile(gz, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o644)
		if e4 != nil {
			return nil
		}
		gw := gzip.NewWriter(out)
		if _, e5 := io.Copy(gw, in); e5 == nil {
			_ = gw.Close()
			_ = out.Close()
			_ = os.Remove(p)
		} else {
			_ = gw.Close()
			_ = out.Close()
		}
		return nil
	})
}
