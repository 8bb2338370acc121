// internal/querylog/querylog.go
package querylog

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
	"sync"
	"time"

	"iterdns.io/internal/models"
)

// maxPlotDomains caps how many distinct domains contribute plot data.
const maxPlotDomains = 10

// Log is the append-only resolution event log plus the bounded plot-data
// aggregator consumed by the external plotting tool. Step records are
// written to the log file immediately, in event order, with no batching.
type Log struct {
	mu sync.Mutex

	file       *os.File
	stepLogger *slog.Logger

	entries []models.ResolutionStep

	plotOrder []string
	plotData  map[string]models.PlotPoint
}

// New creates the resolution log at path, truncating any previous run, and
// writes the human-readable header line with the start timestamp.
func New(path string) (*Log, error) {
	file, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0644)
	if err != nil {
		return nil, fmt.Errorf("failed to open resolution log %s: %w", path, err)
	}

	if _, err := fmt.Fprintf(file, "DNS Resolver Log Started: %s\n", time.Now().Format(time.RFC3339)); err != nil {
		file.Close()
		return nil, fmt.Errorf("failed to write log header: %w", err)
	}

	opts := &slog.HandlerOptions{Level: slog.LevelDebug}
	return &Log{
		file:       file,
		stepLogger: slog.New(slog.NewJSONHandler(file, opts)),
		plotData:   make(map[string]models.PlotPoint),
	}, nil
}

// LogStep appends one step record to the in-memory log and the log file.
func (l *Log) LogStep(step models.ResolutionStep) {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.entries = append(l.entries, step)

	total := "N/A"
	if step.HasTotal {
		total = models.FormatSeconds(step.TotalTime)
	}

	l.stepLogger.Info("resolution_step",
		"timestamp", step.Timestamp.Format(time.RFC3339Nano),
		"domain_name", step.Domain,
		"resolution_mode", string(step.Mode),
		"dns_server_ip", step.ServerIP,
		"step_of_resolution", string(step.Step),
		"response_or_referral", step.Description,
		"round_trip_time", models.FormatSeconds(step.RTT),
		"total_time_to_resolution", total,
		"cache_status", string(step.CacheStatus),
	)
}

// RecordPlotPoint registers a plot datum for domain if it is new and fewer
// than ten domains are registered. Later first-resolutions of new domains
// are not recorded: the capacity is fixed, not a sliding window.
func (l *Log) RecordPlotPoint(domain string, serversVisited int, totalLatency time.Duration) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if _, seen := l.plotData[domain]; seen {
		return
	}
	if len(l.plotOrder) >= maxPlotDomains {
		return
	}

	l.plotOrder = append(l.plotOrder, domain)
	l.plotData[domain] = models.PlotPoint{
		Domain:         domain,
		ServersVisited: serversVisited,
		TotalLatency:   totalLatency,
	}
}

// PlotPoints returns the registered plot data in registration order.
func (l *Log) PlotPoints() []models.PlotPoint {
	l.mu.Lock()
	defer l.mu.Unlock()

	points := make([]models.PlotPoint, 0, len(l.plotOrder))
	for _, domain := range l.plotOrder {
		points = append(points, l.plotData[domain])
	}
	return points
}

// Entries returns a copy of the in-memory step log.
func (l *Log) Entries() []models.ResolutionStep {
	l.mu.Lock()
	defer l.mu.Unlock()
	return append([]models.ResolutionStep(nil), l.entries...)
}

// PrintSummary writes the plot summary to stdout.
func (l *Log) PrintSummary() {
	l.WriteSummary(os.Stdout)
}

// WriteSummary emits the up-to-ten registered plot entries in registration
// order.
func (l *Log) WriteSummary(w io.Writer) {
	points := l.PlotPoints()

	rule := strings.Repeat("=", 50)
	fmt.Fprintln(w, rule)
	fmt.Fprintln(w, "Summary Data for Plotting (First 10 Unique URLs)")
	fmt.Fprintln(w, rule)
	for i, p := range points {
		fmt.Fprintf(w, "[%d] %s: Servers=%d, Latency=%s\n",
			i+1, p.Domain, p.ServersVisited, models.FormatSeconds(p.TotalLatency))
	}
	fmt.Fprintln(w, rule)
}

// Close closes the log file.
func (l *Log) Close() error {
	return l.file.Close()
}
