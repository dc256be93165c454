package main

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/pkg/errors"
	"github.com/spf13/pflag"
	"github.com/tcnksm/go-latest"

	"strictjars/internal/burndown"
	"strictjars/internal/checks"
	"strictjars/internal/device"
	"strictjars/internal/inventory"
	"strictjars/internal/model"
	"strictjars/internal/report"
	"strictjars/internal/tui"
	"strictjars/internal/web"
)

// Exit codes.
const (
	exitPass  = 0
	exitFail  = 1
	exitError = 2
)

func checkUpdate(currentVer string, explicit bool) {
	githubTag := &latest.GithubTag{
		Owner:      "strictjars",
		Repository: "strictjars",
	}

	res, err := latest.Check(githubTag, currentVer)
	if err != nil {
		return // Silently fail
	}

	if res.Outdated {
		fmt.Printf("\n✨ A new version is available: %s (you have %s)\n", res.Current, currentVer)
		fmt.Println("👉 Download it from https://github.com/strictjars/strictjars/releases")
	} else if explicit {
		fmt.Printf("✅ You are using the latest version: %s\n", currentVer)
	}
}

type options struct {
	serial    string
	root      string
	checks    []string
	burndowns []string
	json      bool
	report    bool
	output    string
	verbose   bool
	tui       bool
	web       bool
	addr      string
	jobs      int
}

func main() {
	os.Exit(run())
}

func run() int {
	pflag.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: strictjars [options]\n\n")
		fmt.Fprintf(os.Stderr, "strictjars finds Java classes defined by more than one jar on an Android\n")
		fmt.Fprintf(os.Stderr, "device's BOOTCLASSPATH, SYSTEMSERVERCLASSPATH, shared libraries and APEX apks.\n")
		fmt.Fprintf(os.Stderr, "It exits 0 when every check passes, 1 when any fails and 2 on error.\n\n")
		fmt.Fprintf(os.Stderr, "Options:\n")
		pflag.PrintDefaults()
		fmt.Fprintf(os.Stderr, "\nExamples:\n")
		fmt.Fprintf(os.Stderr, "  strictjars                       # Check the device adb picks and print a report\n")
		fmt.Fprintf(os.Stderr, "  strictjars -s emulator-5554 -t   # Browse results interactively\n")
		fmt.Fprintf(os.Stderr, "  strictjars --root ./dump --json  # Check an offline copy of a device\n")
		fmt.Fprintf(os.Stderr, "  strictjars -c 'bootclasspath*'   # Run only the matching checks\n")
	}

	var opts options
	pflag.StringVarP(&opts.serial, "serial", "s", "", "Device serial passed to adb (default $ANDROID_SERIAL)")
	pflag.StringVar(&opts.root, "root", "", "Read an offline device snapshot from this directory instead of adb")
	pflag.StringSliceVarP(&opts.checks, "check", "c", nil, "Run only checks matching this glob (repeatable)")
	pflag.StringSliceVarP(&opts.burndowns, "burndown", "b", nil, "Extra burn-down list file to merge (repeatable)")
	pflag.BoolVarP(&opts.json, "json", "j", false, "Output results as JSON")
	pflag.BoolVarP(&opts.report, "report", "r", false, "Print the text report (default when no other mode is chosen)")
	pflag.StringVarP(&opts.output, "output", "o", "", "Save the report or JSON to the specified file")
	pflag.BoolVarP(&opts.verbose, "verbose", "v", false, "Show suppressed entries and progress logs")
	pflag.BoolVarP(&opts.tui, "tui", "t", false, "Browse results in an interactive terminal UI")
	pflag.BoolVarP(&opts.web, "web", "w", false, "Serve results over HTTP")
	pflag.StringVar(&opts.addr, "addr", "localhost:8080", "Listen address for --web")
	pflag.IntVar(&opts.jobs, "jobs", 0, "Concurrent jar pulls (default number of CPUs)")
	listFlag := pflag.Bool("list", false, "List the available checks and exit")
	versionFlag := pflag.BoolP("version", "V", false, "Print version information")
	updateFlag := pflag.BoolP("update", "u", false, "Check for latest version")
	helpFlag := pflag.BoolP("help", "h", false, "Show this help message")
	pflag.Parse()

	if *helpFlag {
		pflag.Usage()
		return exitPass
	}

	if *versionFlag {
		fmt.Printf("strictjars version %s\n", model.Version)
		return exitPass
	}

	if *updateFlag {
		checkUpdate(model.Version, true)
		return exitPass
	}

	if *listFlag {
		reg, err := burndown.Load(opts.burndowns...)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			return exitError
		}
		fmt.Print(report.Catalog(checks.All(), reg))
		return exitPass
	}

	if pflag.NArg() > 0 {
		fmt.Fprintf(os.Stderr, "Unexpected arguments: %s\n\n", strings.Join(pflag.Args(), " "))
		pflag.Usage()
		return exitError
	}

	level := slog.LevelWarn
	if opts.verbose {
		level = slog.LevelInfo
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	if opts.tui {
		return runTuiMode(ctx, opts)
	}

	env, results, err := collectAndRun(ctx, opts, logger)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return exitError
	}

	if opts.web {
		if err := web.NewServer(env, results, logger).ListenAndServe(opts.addr); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			return exitError
		}
		return exitPass
	}

	if opts.json {
		var buf bytes.Buffer
		if err := report.JSON(&buf, report.NewDocument(env, results)); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			return exitError
		}
		if err := emit(opts.output, buf.String()); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			return exitError
		}
	} else {
		if err := emit(opts.output, report.Text(results, opts.verbose)); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			return exitError
		}
	}

	if checks.Failed(results) {
		return exitFail
	}
	return exitPass
}

// collectAndRun snapshots the device and evaluates the selected checks.
func collectAndRun(ctx context.Context, opts options, logger *slog.Logger) (*checks.Env, []checks.Result, error) {
	selected, err := checks.Select(opts.checks)
	if err != nil {
		return nil, nil, err
	}
	reg, err := burndown.Load(opts.burndowns...)
	if err != nil {
		return nil, nil, err
	}

	var d device.Device
	if opts.root != "" {
		d = &device.Dir{Root: opts.root}
	} else {
		d = device.NewADB(opts.serial)
	}

	b := inventory.NewBuilder(d, logger)
	b.Jobs = opts.jobs
	env, err := checks.Collect(ctx, d, selected, b, reg, logger)
	if err != nil {
		return nil, nil, err
	}
	return env, checks.Run(env, selected, logger), nil
}

func emit(outputFile, content string) error {
	if outputFile == "" {
		fmt.Print(content)
		return nil
	}
	if err := os.WriteFile(outputFile, []byte(content), 0644); err != nil {
		return errors.Wrapf(err, "failed to write report to %s", outputFile)
	}
	fmt.Printf("Report saved to %s\n", outputFile)
	return nil
}

func runTuiMode(ctx context.Context, opts options) int {
	// Logs would corrupt the alternate screen.
	logger := slog.New(slog.DiscardHandler)

	m := tui.InitialModel(func() (*checks.Env, []checks.Result, error) {
		return collectAndRun(ctx, opts, logger)
	})
	p := tea.NewProgram(m, tea.WithAltScreen(), tea.WithContext(ctx))
	final, err := p.Run()
	if err != nil {
		fmt.Printf("Alas, there's been an error: %v", err)
		return exitError
	}
	fm, ok := final.(tui.AppModel)
	if !ok {
		return exitError
	}
	if fm.Err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", fm.Err)
		return exitError
	}
	if checks.Failed(fm.Results) {
		return exitFail
	}
	return exitPass
}
