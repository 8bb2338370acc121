// internal/querylog/querylog_test.go
package querylog

import (
	"bufio"
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/powerman/check"

	"iterdns.io/internal/models"
)

func newTestLog(t *check.C) (*Log, string) {
	path := filepath.Join(t.TempDir(), "resolver.log")
	l, err := New(path)
	t.Nil(err)
	return l, path
}

func TestNewWritesHeader(tt *testing.T) {
	t := check.T(tt)

	l, path := newTestLog(t)
	t.Nil(l.Close())

	data, err := os.ReadFile(path)
	t.Nil(err)
	lines := strings.Split(strings.TrimRight(string(data), "\n"), "\n")
	t.Len(lines, 1)
	t.Match(lines[0], `^DNS Resolver Log Started: \d{4}-\d{2}-\d{2}T`)
}

func TestLogStepFields(tt *testing.T) {
	t := check.T(tt)

	l, path := newTestLog(t)

	l.LogStep(models.ResolutionStep{
		Timestamp:   time.Now(),
		Domain:      "example.com",
		Mode:        models.ModeResolved,
		ServerIP:    "199.43.135.53",
		Step:        models.StepAuthoritative,
		Description: "Answer: 93.184.216.34",
		RTT:         42 * time.Millisecond,
		TotalTime:   120 * time.Millisecond,
		HasTotal:    true,
		CacheStatus: models.CacheMiss,
	})
	l.LogStep(models.ResolutionStep{
		Timestamp:   time.Now(),
		Domain:      "example.com",
		Mode:        models.ModeQueryFailed,
		ServerIP:    "198.41.0.4",
		Step:        models.StepRoot,
		Description: "Timeout or invalid response",
		RTT:         2 * time.Second,
		CacheStatus: models.CacheMiss,
	})
	t.Nil(l.Close())

	file, err := os.Open(path)
	t.Nil(err)
	defer file.Close()

	scanner := bufio.NewScanner(file)
	t.True(scanner.Scan()) // header line

	t.True(scanner.Scan())
	var record map[string]any
	t.Nil(json.Unmarshal(scanner.Bytes(), &record))
	t.EQ(record["msg"], "resolution_step")
	t.EQ(record["domain_name"], "example.com")
	t.EQ(record["resolution_mode"], "Iterative (Resolved)")
	t.EQ(record["dns_server_ip"], "199.43.135.53")
	t.EQ(record["step_of_resolution"], "TLD/Authoritative")
	t.EQ(record["response_or_referral"], "Answer: 93.184.216.34")
	t.EQ(record["round_trip_time"], "0.0420s")
	t.EQ(record["total_time_to_resolution"], "0.1200s")
	t.EQ(record["cache_status"], "MISS")

	// A step without a resolution total reports N/A.
	t.True(scanner.Scan())
	record = map[string]any{}
	t.Nil(json.Unmarshal(scanner.Bytes(), &record))
	t.EQ(record["resolution_mode"], "Iterative (Query Failed)")
	t.EQ(record["step_of_resolution"], "Root")
	t.EQ(record["total_time_to_resolution"], "N/A")

	t.False(scanner.Scan())

	t.Len(l.Entries(), 2)
}

func TestPlotDataCap(tt *testing.T) {
	t := check.T(tt)

	l, _ := newTestLog(t)
	defer l.Close()

	for i := 0; i < 15; i++ {
		l.RecordPlotPoint(fmt.Sprintf("site%02d.example", i), i+1, time.Duration(i)*time.Millisecond)
	}

	points := l.PlotPoints()
	t.Len(points, 10)
	// First come first kept, in registration order.
	for i, p := range points {
		t.EQ(p.Domain, fmt.Sprintf("site%02d.example", i))
		t.EQ(p.ServersVisited, i+1)
	}
}

func TestPlotDataDedup(tt *testing.T) {
	t := check.T(tt)

	l, _ := newTestLog(t)
	defer l.Close()

	l.RecordPlotPoint("example.com", 3, 100*time.Millisecond)
	l.RecordPlotPoint("example.com", 1, time.Millisecond) // later cache hit, ignored

	points := l.PlotPoints()
	t.Len(points, 1)
	t.EQ(points[0].ServersVisited, 3)
	t.EQ(points[0].TotalLatency, 100*time.Millisecond)
}

func TestWriteSummary(tt *testing.T) {
	t := check.T(tt)

	l, _ := newTestLog(t)
	defer l.Close()

	l.RecordPlotPoint("example.com", 2, 123400*time.Microsecond)
	l.RecordPlotPoint("dns.google", 1, 1500*time.Microsecond)

	var buf bytes.Buffer
	l.WriteSummary(&buf)

	out := buf.String()
	t.Match(out, `Summary Data for Plotting \(First 10 Unique URLs\)`)
	t.Match(out, `\[1\] example\.com: Servers=2, Latency=0\.1234s`)
	t.Match(out, `\[2\] dns\.google: Servers=1, Latency=0\.0015s`)
}

func TestMain(m *testing.M) {
	check.TestMain(m)
}
