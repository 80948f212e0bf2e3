// cmd/dfirupdater/main.go

package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"text/tabwriter"

	"github.com/spf13/pflag"
	"gopkg.in/yaml.v3"

	"github.com/windowsadmins/dfirupdater/pkg/config"
	"github.com/windowsadmins/dfirupdater/pkg/installer"
	"github.com/windowsadmins/dfirupdater/pkg/logging"
	"github.com/windowsadmins/dfirupdater/pkg/probe"
	"github.com/windowsadmins/dfirupdater/pkg/programs"
	"github.com/windowsadmins/dfirupdater/pkg/status"
	"github.com/windowsadmins/dfirupdater/pkg/sysinfo"
	"github.com/windowsadmins/dfirupdater/pkg/utils"
	"github.com/windowsadmins/dfirupdater/pkg/version"
)

var logger *logging.Logger

// cliReporter prints installer progress to the console.
type cliReporter struct{}

func (cliReporter) Message(txt string) { logger.Info("%s", txt) }
func (cliReporter) Detail(txt string)  { logger.Debug("%s", txt) }
func (cliReporter) Percent(pct int)    {}
func (cliReporter) Error(err error)    { logger.Debug("%v", err) }

func main() {
	utils.PatchWindowsArgs()

	configPath := pflag.String("config", "", "Path to Config.yaml (default: "+config.ConfigPath+").")
	programsPath := pflag.String("programs", "", "Path to the programs file (default: programs.json next to the binary).")
	checkOnly := pflag.Bool("checkonly", false, "Show what would be installed, but don't run anything.")
	updateNames := pflag.StringSlice("update", nil, "Update the named program(s). May be repeated or comma separated.")
	updateAll := pflag.Bool("update-all", false, "Update every program that is missing or out of date.")
	validate := pflag.Bool("validate", false, "Validate the programs file and exit.")
	reportPath := pflag.String("report", "", "Write a status report to this path (.json or .yaml).")
	showConfig := pflag.Bool("show-config", false, "Display the current configuration and exit.")
	versionFlag := pflag.Bool("version", false, "Print the version and exit.")

	var verbosity int
	pflag.CountVarP(&verbosity, "verbose", "v", "Increase verbosity (e.g. -v, -vv, -vvv)")
	pflag.Parse()

	if *versionFlag {
		version.Print()
		os.Exit(0)
	}

	var (
		cfg *config.Configuration
		err error
	)
	if *configPath != "" {
		cfg, err = config.LoadConfigFrom(*configPath)
	} else {
		cfg, err = config.LoadConfig()
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(1)
	}
	if *programsPath != "" {
		cfg.ProgramsPath = *programsPath
	}
	if *checkOnly {
		cfg.CheckOnly = true
	}
	switch {
	case verbosity == 1:
		cfg.Verbose = true
	case verbosity >= 2:
		cfg.Verbose = true
		cfg.Debug = true
	}

	logger = logging.New(cfg.Verbose)
	if err := logging.Init(cfg, "dfirupdater", verbosity >= 3); err != nil {
		logger.Warning("File logging disabled: %v", err)
	}
	defer logging.CloseLogger()

	if *showConfig {
		data, err := yaml.Marshal(cfg)
		if err != nil {
			logger.Fatal("Failed to encode configuration: %v", err)
		}
		fmt.Print(string(data))
		os.Exit(0)
	}

	list, used, err := programs.LoadOrBootstrap(cfg)
	switch {
	case errors.Is(err, programs.ErrTemplateCreated):
		logger.Warning("Created %s from the template. Edit it and run again.", used)
		os.Exit(1)
	case errors.Is(err, programs.ErrNotFound):
		logger.Warning("No programs file found at %s; using the built-in defaults.", used)
	case err != nil:
		logger.Error("Failed to load %s: %v", used, err)
		logger.Warning("Using the built-in defaults.")
	}

	if *validate {
		os.Exit(runValidate(list, used))
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	prober := probe.New(cfg)
	results := status.CheckAll(ctx, prober, list)
	printResults(results)

	summary := logging.SessionSummary{Checked: len(results)}
	runType := "check"

	targets, unknown := selectTargets(list, results, *updateNames, *updateAll)
	for _, name := range unknown {
		logger.Error("No program named %q in %s", name, used)
		summary.Failures++
	}
	if len(targets) > 0 {
		runType = "update"
		inst := installer.New(cfg)
		for _, p := range targets {
			if ctx.Err() != nil {
				logger.Warning("Interrupted; skipping remaining updates")
				break
			}
			summary.Updates++
			summary.Programs = append(summary.Programs, p.Name)

			out := inst.Update(ctx, p, cliReporter{})
			if !out.Success {
				summary.Failures++
				logger.Error("%s: %s", p.Name, out.Message)
				continue
			}
			summary.Successes++
			logger.Success("%s", out.Message)
			if !cfg.CheckOnly {
				replaceResult(results, status.Evaluate(ctx, prober, p))
			}
		}
	}

	if *reportPath != "" {
		report := status.NewReport(results, sysinfo.Collect())
		if err := status.WriteReport(*reportPath, report); err != nil {
			logger.Error("Failed to write report: %v", err)
			summary.Failures++
		} else {
			logger.Success("Report written to %s", *reportPath)
		}
	}

	sessionStatus := "completed"
	if summary.Failures > 0 {
		sessionStatus = "failed"
	}
	if err := logging.EndSession(runType, sessionStatus, summary); err != nil {
		logging.Debug("Session summary not written", "error", err)
	}
	if summary.Failures > 0 {
		logging.CloseLogger()
		os.Exit(1)
	}
}

// selectTargets resolves --update names against the list, or picks every
// program that is missing or out of date for --update-all.
func selectTargets(list []programs.Program, results []status.Result, names []string, all bool) ([]programs.Program, []string) {
	var targets []programs.Program
	var unknown []string
	if all {
		for i, r := range results {
			if r.State == status.NotInstalled || r.State == status.UpdateAvailable {
				targets = append(targets, list[i])
			}
		}
		return targets, nil
	}
	for _, name := range names {
		name = strings.TrimSpace(name)
		if name == "" {
			continue
		}
		if p, ok := programs.Find(list, name); ok {
			targets = append(targets, p)
		} else {
			unknown = append(unknown, name)
		}
	}
	return targets, unknown
}

func replaceResult(results []status.Result, r status.Result) {
	for i := range results {
		if results[i].Name == r.Name {
			results[i] = r
			return
		}
	}
}

func printResults(results []status.Result) {
	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "PROGRAM\tSTATUS\tVERSION")
	for _, r := range results {
		fmt.Fprintf(w, "%s\t%s\t%s\n", r.Name, r.State, r.VersionLine)
	}
	w.Flush()
}

func runValidate(list []programs.Program, used string) int {
	issues := programs.Validate(list)
	if len(issues) == 0 {
		logger.Success("%s: %d programs, no problems found", used, len(list))
		return 0
	}
	for _, issue := range issues {
		logger.Error("%s", issue)
	}
	return 1
}
