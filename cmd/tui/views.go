package main

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/dd0wney/apwr-dropcalc/pkg/report"
	"github.com/dd0wney/apwr-dropcalc/pkg/topology"
)

func (m model) View() string {
	if m.width == 0 {
		return "Initializing..."
	}

	var s strings.Builder

	s.WriteString(titleStyle.Render("APWR Voltage Drop Calculator"))
	s.WriteString("\n\n")

	s.WriteString(m.renderTabs())
	s.WriteString("\n\n")

	switch m.currentView {
	case setupView:
		s.WriteString(m.renderSetup())
	case hubsView:
		s.WriteString(m.renderHubs())
	case resultsView:
		s.WriteString(m.renderResults())
	case summaryView:
		s.WriteString(m.renderSummary())
	}

	if m.message != "" {
		s.WriteString("\n\n")
		if m.messageErr {
			s.WriteString(errorStyle.Render("✗ " + m.message))
		} else {
			s.WriteString(successStyle.Render("✓ " + m.message))
		}
	}

	s.WriteString("\n\n")
	s.WriteString(helpStyle.Render(m.help.ShortHelpView(m.keys.ShortHelp())))

	return s.String()
}

func (m model) renderTabs() string {
	var renderedTabs []string
	for i, tab := range viewNames {
		if view(i) == m.currentView {
			renderedTabs = append(renderedTabs, activeTabStyle.Render(tab))
		} else {
			renderedTabs = append(renderedTabs, inactiveTabStyle.Render(tab))
		}
	}
	return lipgloss.JoinHorizontal(lipgloss.Top, renderedTabs...)
}

func (m model) renderSetup() string {
	var s strings.Builder

	s.WriteString(headerStyle.Render("Project & System Setup"))
	s.WriteString("\n\n")

	for i, in := range m.inputs {
		label := labelStyle
		if i == m.focus {
			label = focusedLabelStyle
		}
		s.WriteString(label.Render(fieldLabels[i]))
		s.WriteString(in.View())
		s.WriteString("\n")
	}

	p := m.cfg.System
	s.WriteString("\n")
	s.WriteString(helpStyle.Render(fmt.Sprintf(
		"Source %g V • Minimum %g V • Max link current %g A • Allowed ∆V %.1f%%",
		p.SourceVoltageV, p.MinVoltageV, p.MaxLinkCurrentA, p.AllowedDropPercent())))
	s.WriteString("\n")
	s.WriteString(helpStyle.Render(fmt.Sprintf(
		"%d anodes per APWRHUB • link starts and source lengths are comma-separated • ↑/↓ move • enter calculates",
		topology.DefaultAnodesPerHub)))

	if len(m.invalid) > 0 {
		s.WriteString("\n\n")
		for _, e := range m.invalid {
			s.WriteString(errorStyle.Render("• " + e.Error()))
			s.WriteString("\n")
		}
	}

	return contentStyle.Render(s.String())
}

func (m model) renderHubs() string {
	var s strings.Builder

	s.WriteString(headerStyle.Render("APWRHUB Configuration"))
	s.WriteString("\n\n")

	if m.result == nil {
		s.WriteString(helpStyle.Render("Fix the setup to see hubs"))
		return contentStyle.Render(s.String())
	}

	s.WriteString(m.hubTable.View())
	s.WriteString("\n\n")

	if m.editing != editNone {
		h, _ := m.selectedHub()
		what := "Distance [m]"
		if m.editing == editCurrents {
			what = "Anode currents [mA]"
		}
		s.WriteString(fmt.Sprintf("%s for %s: %s\n", what, h.Name, m.hubInput.View()))
		s.WriteString(helpStyle.Render("enter apply • esc cancel"))
	} else {
		s.WriteString(helpStyle.Render(fmt.Sprintf(
			"↑/↓ select • d distance • c anode currents (0-%g mA) • r reset to defaults",
			topology.MaxAnodeCurrentMA)))
	}

	return contentStyle.Render(s.String())
}

func (m model) renderResults() string {
	var s strings.Builder

	title := "Voltage Drop - All APWRLINKs"
	if m.linkFilter != 0 {
		title = "Voltage Drop - " + topology.LinkName(m.linkFilter)
	}
	s.WriteString(headerStyle.Render(title))
	s.WriteString("\n\n")

	if m.result == nil {
		s.WriteString(helpStyle.Render("Fix the setup to see results"))
		return contentStyle.Render(s.String())
	}

	s.WriteString(m.resultTable.View())
	s.WriteString("\n\n")
	s.WriteString(helpStyle.Render("↑/↓ scroll • ←/→ switch APWRLINK"))

	return contentStyle.Render(s.String())
}

func (m model) renderSummary() string {
	var s strings.Builder

	s.WriteString(headerStyle.Render("System Status"))
	s.WriteString("\n\n")

	if m.result == nil {
		s.WriteString(helpStyle.Render("Fix the setup to see the summary"))
		return contentStyle.Render(s.String())
	}

	st := m.result.Status
	overview := fmt.Sprintf(`Status:           %s
Total Current:    %.3f A
Lowest Voltage:   %.2f V
Max ∆Voltage:     %.2f mV (%.2f%%)
Allowed ∆Voltage: %.2f%%
APWRHUBs:         %d
APWRLINKs:        %d`,
		st.Status,
		st.TotalCurrentA,
		st.LowestVoltageV,
		st.MaxDropMV, st.MaxDropPercent,
		m.result.Params.AllowedDropPercent(),
		len(m.result.Hubs),
		len(st.Links),
	)

	box := statsBoxStyle
	if !st.OK() {
		box = violationBoxStyle
	}

	var links strings.Builder
	for _, l := range st.Links {
		mark := successStyle.Render("OK")
		if !l.OK() {
			mark = errorStyle.Render("VIOLATION")
		}
		links.WriteString(fmt.Sprintf("%-11s %7.3f A  min %6.2f V  ∆V %5.2f%%  %s\n",
			l.LinkName, report.Round(l.CurrentA, 3), l.MinRemainingV, l.MaxDropPercent, mark))
	}

	s.WriteString(lipgloss.JoinHorizontal(lipgloss.Top,
		box.Render(overview),
		statsBoxStyle.Render(strings.TrimRight(links.String(), "\n")),
	))

	if !st.OK() {
		s.WriteString("\n\nWarnings:\n")
		for _, v := range st.Violations() {
			s.WriteString(errorStyle.Render("⚠ " + v.Message))
			s.WriteString("\n")
		}
	}

	return contentStyle.Render(s.String())
}
