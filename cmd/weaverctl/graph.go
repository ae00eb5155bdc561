package main

import (
	"fmt"
	"io"
	"os"
	"sort"

	"github.com/charmbracelet/lipgloss"
	"github.com/urfave/cli/v2"
	"golang.org/x/term"

	"github.com/aspectrt/aspectrt/config"
	"github.com/aspectrt/aspectrt/weaver"
)

var (
	styleHeading = lipgloss.NewStyle().Bold(true)
	styleOrder   = lipgloss.NewStyle().Foreground(lipgloss.ANSIColor(4))
	styleAdvice  = lipgloss.NewStyle().Foreground(lipgloss.ANSIColor(2))
	styleAdvisor = lipgloss.NewStyle().Foreground(lipgloss.ANSIColor(5))
)

var graphCommand = &cli.Command{
	Name:      "graph",
	Usage:     "print the resolved aspect/advisor weave order for a config file",
	ArgsUsage: "<config.yaml>",
	Action: func(c *cli.Context) error {
		path := c.Args().First()
		if path == "" {
			return fmt.Errorf("graph: missing <config.yaml> argument")
		}

		f, err := os.Open(path)
		if err != nil {
			return fmt.Errorf("graph: %w", err)
		}
		defer f.Close()

		cfg, err := config.LoadValidated(f)
		if err != nil {
			return err
		}

		renderGraph(c.App.Writer, cfg)
		return nil
	},
}

func renderGraph(w io.Writer, cfg weaver.AopConfig) {
	aspects := append([]weaver.AspectConfig(nil), cfg.Aspects...)
	sort.SliceStable(aspects, func(i, j int) bool { return aspects[i].Order < aspects[j].Order })

	var body string
	body += styleHeading.Render(fmt.Sprintf("%d advisor(s)", len(cfg.Advisors))) + "\n"
	for _, ad := range cfg.Advisors {
		body += fmt.Sprintf("  %s %s.%s\n", styleAdvisor.Render("advisor"), ad.ID, ad.Method)
	}

	body += styleHeading.Render(fmt.Sprintf("%d aspect(s), weave order", len(aspects))) + "\n"
	for i, ac := range aspects {
		ref := ac.Ref
		if ref == "" {
			ref = "<inline target>"
		}
		body += fmt.Sprintf("  %s #%d %s %s (order=%d)\n", styleOrder.Render("·"), i+1, ac.ID, ref, ac.Order)
		for _, adv := range ac.Advices {
			body += fmt.Sprintf("      %s %s\n", styleAdvice.Render(string(adv.Kind)), adv.Method)
		}
	}

	box := lipgloss.NewStyle()
	if term.IsTerminal(int(os.Stdout.Fd())) {
		box = box.Border(lipgloss.RoundedBorder()).Padding(0, 1)
	}
	fmt.Fprintln(w, box.Render(body))
}
