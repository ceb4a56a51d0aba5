// Command tui is an interactive voltage-drop calculator for the terminal.
package main

import (
	"flag"
	"fmt"
	"os"
	"strconv"
	"strings"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/dd0wney/apwr-dropcalc/pkg/calc"
	"github.com/dd0wney/apwr-dropcalc/pkg/config"
	"github.com/dd0wney/apwr-dropcalc/pkg/logging"
	"github.com/dd0wney/apwr-dropcalc/pkg/project"
	"github.com/dd0wney/apwr-dropcalc/pkg/report"
	"github.com/dd0wney/apwr-dropcalc/pkg/topology"
)

// applyProject fills the form and hub overrides from a project file.
func (m *model) applyProject(f *project.File) error {
	spec, err := f.Spec()
	if err != nil {
		return err
	}
	m.cfg.System = f.System

	set := func(field int, v string) { m.inputs[field].SetValue(v) }
	set(fieldName, f.Project.Name)
	set(fieldNumber, f.Project.Number)
	set(fieldDate, f.Project.Date)
	set(fieldZone, f.Project.Zone)
	set(fieldAnodes, strconv.Itoa(spec.TotalAnodes))

	starts := make([]string, len(spec.LinkStarts))
	for i, s := range spec.LinkStarts {
		starts[i] = strconv.Itoa(s + 1)
	}
	set(fieldLinks, strings.Join(starts, ", "))

	// Links without a configured source length get the default distance.
	lengths := make([]string, len(spec.LinkStarts))
	for i := range lengths {
		l, ok := spec.SourceLengthsM[i+1]
		if !ok {
			l = spec.DefaultDistanceM
		}
		lengths[i] = strconv.FormatFloat(l, 'f', -1, 64)
	}
	set(fieldSourceLengths, strings.Join(lengths, ", "))
	set(fieldDistance, strconv.FormatFloat(spec.DefaultDistanceM, 'f', -1, 64))
	set(fieldArea, strconv.FormatFloat(f.System.CableAreaMM2, 'f', -1, 64))
	set(fieldModel, f.System.CableModel)

	m.hubConfigs = make(map[int]topology.HubConfig, len(spec.Hubs))
	for i, h := range spec.Hubs {
		m.hubConfigs[i] = h
	}
	m.recalculate()
	return nil
}

func main() {
	configPath := flag.String("config", "", "YAML config file (APWR_* env vars override it)")
	projectPath := flag.String("project", "", "project file to open")
	logPath := flag.String("log", "", "write logs to this file")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "tui: %v\n", err)
		os.Exit(1)
	}

	// The terminal belongs to the UI; logs go to a file or nowhere.
	logger := logging.NewNopLogger()
	if *logPath != "" {
		f, err := os.OpenFile(*logPath, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
		if err != nil {
			fmt.Fprintf(os.Stderr, "tui: open log: %v\n", err)
			os.Exit(1)
		}
		defer f.Close()
		logger = logging.NewJSONLogger(f, logging.ParseLevel(cfg.LogLevel))
	}

	calculator := calc.NewCalculator(
		calc.WithWorkers(cfg.Workers),
		calc.WithLogger(logger),
	)
	m := initialModel(cfg, calculator, report.NewExporter())

	if *projectPath != "" {
		f, err := project.LoadWith(*projectPath, cfg.System)
		if err == nil {
			err = m.applyProject(f)
		}
		if err != nil {
			fmt.Fprintf(os.Stderr, "tui: %v\n", err)
			os.Exit(1)
		}
	}

	p := tea.NewProgram(m, tea.WithAltScreen())
	if _, err := p.Run(); err != nil {
		fmt.Fprintf(os.Stderr, "Error running program: %v\n", err)
		os.Exit(1)
	}
}
