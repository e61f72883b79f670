// Command kvd-bench drives hyperfine against a running kvd-server to
// measure set/get throughput across key counts. Adapted from
// cmd/tk-bench's hyperfine-wrapper shape (same exec.Command("hyperfine")
// plus JSON-results-file pattern), trimmed to the kvd domain: there is no
// cache, filter, or mutation-state-machine surface to benchmark here, only
// a single store reached over the wire.
package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"
	"strconv"
	"strings"
	"time"
)

var (
	errHyperfineNotFound = errors.New("hyperfine not found; install it first")
	errKvdNotFound       = errors.New("kvd client binary not found; run 'go build ./cmd/kvd' or set -bin flag")
	errNoHyperfineResult = errors.New("no results in hyperfine output")
)

// Config holds all benchmark configuration.
type Config struct {
	Bin     string
	Addr    string
	Counts  []int
	OutDir  string
	Warmup  int
	MinRuns int
	MaxRuns int
}

// HyperfineResultEntry represents a single hyperfine benchmark result.
type HyperfineResultEntry struct {
	Command string    `json:"command"`
	Mean    float64   `json:"mean"`
	Stddev  float64   `json:"stddev"`
	Median  float64   `json:"median"`
	Min     float64   `json:"min"`
	Max     float64   `json:"max"`
	Times   []float64 `json:"times"`
}

// HyperfineResult represents hyperfine JSON output.
type HyperfineResult struct {
	Results []HyperfineResultEntry `json:"results"`
}

// BenchResult holds a single benchmark result.
type BenchResult struct {
	Label string
	Runs  int
	Mean  float64
	Min   float64
	Max   float64
}

func main() {
	cfg := Config{}

	wd, _ := os.Getwd()

	flag.StringVar(&cfg.Bin, "bin", filepath.Join(wd, "kvd"), "path to kvd client binary")
	flag.StringVar(&cfg.Addr, "addr", "[::1]:4000", "address of a running kvd-server")
	flag.StringVar(&cfg.OutDir, "out", filepath.Join(wd, ".benchmarks"), "output directory for reports")

	countsStr := flag.String("counts", "1000,100000", "comma-separated list of key counts to benchmark")

	flag.IntVar(&cfg.Warmup, "warmup", 3, "number of warmup runs")
	flag.IntVar(&cfg.MinRuns, "min-runs", 20, "minimum number of benchmark runs")
	flag.IntVar(&cfg.MaxRuns, "max-runs", 0, "maximum number of benchmark runs, 0=unlimited")

	flag.Usage = func() {
		fmt.Fprint(os.Stderr, "Usage: kvd-bench [flags]\n\n")
		fmt.Fprint(os.Stderr, "Benchmarks kvd set/get throughput against a running kvd-server.\n\n")
		fmt.Fprint(os.Stderr, "Flags:\n")
		flag.PrintDefaults()
	}

	flag.Parse()

	for countStr := range strings.SplitSeq(*countsStr, ",") {
		countStr = strings.TrimSpace(countStr)
		if countStr == "" {
			continue
		}

		count, err := strconv.Atoi(countStr)
		if err != nil {
			fmt.Fprintf(os.Stderr, "invalid count %q: %v\n", countStr, err)
			os.Exit(1)
		}

		cfg.Counts = append(cfg.Counts, count)
	}

	if len(cfg.Counts) == 0 {
		fmt.Fprint(os.Stderr, "no counts specified\n")
		os.Exit(1)
	}

	if err := validatePrereqs(&cfg); err != nil {
		fmt.Fprintf(os.Stderr, "%v\n", err)
		os.Exit(1)
	}

	if err := os.MkdirAll(cfg.OutDir, 0o750); err != nil {
		fmt.Fprintf(os.Stderr, "failed to create output directory: %v\n", err)
		os.Exit(1)
	}

	if err := runThroughputBench(&cfg); err != nil {
		fmt.Fprintf(os.Stderr, "benchmark failed: %v\n", err)
		os.Exit(1)
	}
}

func validatePrereqs(cfg *Config) error {
	if _, err := exec.LookPath("hyperfine"); err != nil {
		return errHyperfineNotFound
	}

	info, err := os.Stat(cfg.Bin)
	if err != nil {
		return fmt.Errorf("%w: %s", errKvdNotFound, cfg.Bin)
	}

	if info.Mode()&0o111 == 0 {
		return fmt.Errorf("kvd binary at %s is not executable: %w", cfg.Bin, os.ErrPermission)
	}

	return nil
}

func getSystemInfo() string {
	var sb strings.Builder

	timestampUTC := time.Now().UTC().Format(time.RFC3339)
	sb.WriteString(fmt.Sprintf("## Run %s\n\n", timestampUTC))

	ctx := context.Background()

	if goVer, err := exec.CommandContext(ctx, "go", "version").Output(); err == nil {
		sb.WriteString(fmt.Sprintf("- %s\n", strings.TrimSpace(string(goVer))))
	}

	if hfVer, err := exec.CommandContext(ctx, "hyperfine", "--version").Output(); err == nil {
		sb.WriteString(fmt.Sprintf("- %s\n", strings.TrimSpace(string(hfVer))))
	}

	sb.WriteString(fmt.Sprintf("- %s/%s\n", runtime.GOOS, runtime.GOARCH))
	sb.WriteString("- note: hyperfine -N (no shell)\n\n")

	return sb.String()
}

// runThroughputBench benchmarks one set, a get hit and a get miss against
// addr for each configured count, writing a markdown report. The count only
// names the keys used (bench-key-<count>); no keys are loaded into the
// server beforehand.
func runThroughputBench(cfg *Config) error {
	timestamp := time.Now().UTC().Format("20060102-150405")
	outFile := filepath.Join(cfg.OutDir, fmt.Sprintf("throughput_%s.md", timestamp))

	var report strings.Builder
	report.WriteString(getSystemInfo())
	report.WriteString(fmt.Sprintf("- server: %s\n\n", cfg.Addr))

	for _, count := range cfg.Counts {
		fmt.Fprintf(os.Stderr, "\n%s\n", strings.Repeat("=", 60))
		fmt.Fprintf(os.Stderr, "THROUGHPUT BENCHMARKS: count %d\n", count)
		fmt.Fprintf(os.Stderr, "%s\n\n", strings.Repeat("=", 60))

		var results []BenchResult

		setCmd := fmt.Sprintf("%s set --addr %s bench-key-%d bench-value-%d", cfg.Bin, cfg.Addr, count, count)

		res, err := benchOne(cfg, "set", cfg.MinRuns, "", setCmd)
		if err != nil {
			return err
		}

		results = append(results, res)

		getHitCmd := fmt.Sprintf("%s get --addr %s bench-key-%d", cfg.Bin, cfg.Addr, count)

		res, err = benchOne(cfg, "get (hit)", cfg.MinRuns, "", getHitCmd)
		if err != nil {
			return err
		}

		results = append(results, res)

		getMissCmd := fmt.Sprintf("%s get --addr %s bench-key-missing-%d", cfg.Bin, cfg.Addr, count)

		res, err = benchOne(cfg, "get (miss)", cfg.MinRuns, "", getMissCmd)
		if err != nil {
			return err
		}

		results = append(results, res)

		report.WriteString(fmt.Sprintf("### Count: %d\n\n", count))
		report.WriteString("| Scenario | Runs | Mean [ms] | Min [ms] | Max [ms] |\n")
		report.WriteString("|:---|---:|---:|---:|---:|\n")

		for _, result := range results {
			report.WriteString(fmt.Sprintf("| %s | %d | %.3f | %.3f | %.3f |\n",
				result.Label, result.Runs, result.Mean*1000, result.Min*1000, result.Max*1000))
		}

		report.WriteString("\n")
	}

	if err := os.WriteFile(outFile, []byte(report.String()), 0o600); err != nil {
		return fmt.Errorf("failed to write report: %w", err)
	}

	fmt.Fprintf(os.Stderr, "wrote %s\n", outFile)

	return nil
}

func benchOne(cfg *Config, label string, runs int, prepare, cmd string) (BenchResult, error) {
	fmt.Fprintf(os.Stderr, "--- %s ---\n", label)

	tmpFile, err := os.CreateTemp("", "hyperfine-*.json")
	if err != nil {
		return BenchResult{}, fmt.Errorf("failed to create temp file: %w", err)
	}

	_ = tmpFile.Close()

	defer func() { _ = os.Remove(tmpFile.Name()) }()

	args := []string{"-N", "--warmup", strconv.Itoa(cfg.Warmup), "--runs", strconv.Itoa(runs), "--export-json", tmpFile.Name()}
	if prepare != "" {
		args = append(args, "--prepare", prepare)
	}

	if cfg.MaxRuns > 0 {
		args = append(args, "--max-runs", strconv.Itoa(cfg.MaxRuns))
	}

	args = append(args, cmd)

	hfCmd := exec.CommandContext(context.Background(), "hyperfine", args...)
	hfCmd.Stdout = os.Stdout
	hfCmd.Stderr = os.Stderr

	if err := hfCmd.Run(); err != nil {
		return BenchResult{}, fmt.Errorf("hyperfine failed: %w", err)
	}

	jsonData, err := os.ReadFile(tmpFile.Name())
	if err != nil {
		return BenchResult{}, fmt.Errorf("failed to read hyperfine output: %w", err)
	}

	var hfResult HyperfineResult

	if err := json.Unmarshal(jsonData, &hfResult); err != nil {
		return BenchResult{}, fmt.Errorf("failed to parse hyperfine JSON: %w", err)
	}

	if len(hfResult.Results) == 0 {
		return BenchResult{}, errNoHyperfineResult
	}

	hfRes := hfResult.Results[0]

	return BenchResult{Label: label, Runs: runs, Mean: hfRes.Mean, Min: hfRes.Min, Max: hfRes.Max}, nil
}
