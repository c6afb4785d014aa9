// Package diagnostics produces the health report behind the doctor command:
// host resource usage plus reachability probes for the vendor CAD service
// and the saved-configuration store.
package diagnostics

import (
	"context"
	"fmt"
	"net/http"
	"runtime"
	"time"

	"github.com/shirou/gopsutil/v3/cpu"
	"github.com/shirou/gopsutil/v3/disk"
	"github.com/shirou/gopsutil/v3/load"
	"github.com/shirou/gopsutil/v3/mem"

	"github.com/fenestra-io/configurator/internal/config"
	"github.com/fenestra-io/configurator/internal/core"
)

// CheckStatus grades one probe.
type CheckStatus string

const (
	StatusOK   CheckStatus = "ok"
	StatusWarn CheckStatus = "warn"
	StatusFail CheckStatus = "fail"
	StatusSkip CheckStatus = "skip"
)

// Check is one probe result.
type Check struct {
	Name    string      `json:"name"`
	Status  CheckStatus `json:"status"`
	Message string      `json:"message"`
}

// HostMetrics holds system-wide resource usage.
type HostMetrics struct {
	GoVersion  string  `json:"go_version"`
	GOOS       string  `json:"goos"`
	CPUCores   int     `json:"cpu_cores"`
	CPUPercent float64 `json:"cpu_percent"`
	MemTotalMB float64 `json:"mem_total_mb"`
	MemUsedMB  float64 `json:"mem_used_mb"`
	MemPercent float64 `json:"mem_percent"`
	DiskFreeGB float64 `json:"disk_free_gb"`
	LoadAvg1   float64 `json:"load_avg_1"`
}

// Report is the full doctor output.
type Report struct {
	Timestamp time.Time   `json:"timestamp"`
	Host      HostMetrics `json:"host"`
	Checks    []Check     `json:"checks"`
}

// Healthy reports whether no probe failed outright.
func (r *Report) Healthy() bool {
	for _, c := range r.Checks {
		if c.Status == StatusFail {
			return false
		}
	}
	return true
}

// Doctor runs the probes.
type Doctor struct {
	cfg        *config.Config
	httpClient *http.Client
	store      core.ConfigStore
}

// DoctorOption configures the doctor.
type DoctorOption func(*Doctor)

// WithHTTPClient overrides the probe HTTP client.
func WithHTTPClient(c *http.Client) DoctorOption {
	return func(d *Doctor) {
		d.httpClient = c
	}
}

// WithStore adds a store round-trip probe.
func WithStore(s core.ConfigStore) DoctorOption {
	return func(d *Doctor) {
		d.store = s
	}
}

// NewDoctor creates a doctor for the given configuration.
func NewDoctor(cfg *config.Config, opts ...DoctorOption) *Doctor {
	d := &Doctor{
		cfg:        cfg,
		httpClient: &http.Client{Timeout: 5 * time.Second},
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// Run collects host metrics and probes each dependency.
func (d *Doctor) Run(ctx context.Context) *Report {
	r := &Report{
		Timestamp: time.Now().UTC(),
		Host:      collectHostMetrics(),
	}
	r.Checks = append(r.Checks, d.checkConfig())
	r.Checks = append(r.Checks, d.checkVendor(ctx))
	r.Checks = append(r.Checks, d.checkStore(ctx))
	return r
}

// collectHostMetrics is best effort: a missing /proc entry or an
// unsupported platform leaves the field zero rather than failing the report.
func collectHostMetrics() HostMetrics {
	m := HostMetrics{
		GoVersion: runtime.Version(),
		GOOS:      runtime.GOOS,
	}

	if counts, err := cpu.Counts(true); err == nil {
		m.CPUCores = counts
	}
	if percents, err := cpu.Percent(200*time.Millisecond, false); err == nil && len(percents) > 0 {
		m.CPUPercent = percents[0]
	}
	if vm, err := mem.VirtualMemory(); err == nil {
		m.MemTotalMB = float64(vm.Total) / 1024 / 1024
		m.MemUsedMB = float64(vm.Used) / 1024 / 1024
		m.MemPercent = vm.UsedPercent
	}
	if du, err := disk.Usage("."); err == nil {
		m.DiskFreeGB = float64(du.Free) / 1024 / 1024 / 1024
	}
	if avg, err := load.Avg(); err == nil {
		m.LoadAvg1 = avg.Load1
	}
	return m
}

func (d *Doctor) checkConfig() Check {
	v := config.NewValidator()
	if err := v.Validate(d.cfg); err != nil {
		return Check{Name: "config", Status: StatusFail, Message: err.Error()}
	}
	if d.cfg.Vendor.BaseURL == "" {
		return Check{Name: "config", Status: StatusWarn,
			Message: "no vendor configured, sessions will use the demo catalog"}
	}
	return Check{Name: "config", Status: StatusOK, Message: "configuration valid"}
}

func (d *Doctor) checkVendor(ctx context.Context) Check {
	if d.cfg.Vendor.BaseURL == "" {
		return Check{Name: "vendor", Status: StatusSkip, Message: "vendor.base_url not set"}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, d.cfg.Vendor.BaseURL, nil)
	if err != nil {
		return Check{Name: "vendor", Status: StatusFail, Message: err.Error()}
	}

	start := time.Now()
	resp, err := d.httpClient.Do(req)
	if err != nil {
		return Check{Name: "vendor", Status: StatusFail,
			Message: fmt.Sprintf("vendor unreachable: %v", err)}
	}
	defer func() { _ = resp.Body.Close() }()

	// Any HTTP response means the host answers; auth comes later.
	return Check{Name: "vendor", Status: StatusOK,
		Message: fmt.Sprintf("reachable in %s (HTTP %d)", time.Since(start).Round(time.Millisecond), resp.StatusCode)}
}

func (d *Doctor) checkStore(ctx context.Context) Check {
	if d.store == nil {
		return Check{Name: "store", Status: StatusSkip, Message: "no store configured"}
	}
	if _, err := d.store.List(ctx); err != nil {
		return Check{Name: "store", Status: StatusFail,
			Message: fmt.Sprintf("store listing failed: %v", err)}
	}
	return Check{Name: "store", Status: StatusOK, Message: "store readable"}
}
