// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Modus Contributors

package main

import (
	"encoding/json"
	"fmt"
	"io"
	"strconv"

	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/Gurman8r/modus-sub002/internal/modules"
	"github.com/Gurman8r/modus-sub002/internal/native"
	"github.com/Gurman8r/modus-sub002/pkg/abi"
)

var (
	titleStyle   = lipgloss.NewStyle().Bold(true)
	mutedStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("#666666"))
	successStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#00CC66")).Bold(true)
	failStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("#FF0000")).Bold(true)
)

// symbolReport describes one ABI symbol of an inspected library.
type symbolReport struct {
	Name  string `json:"name" yaml:"name"`
	Found bool   `json:"found" yaml:"found"`
	Kind  string `json:"kind,omitempty" yaml:"kind,omitempty"`
}

// inspectReport is the result of inspecting a library.
type inspectReport struct {
	native.Details `yaml:",inline"`
	ID             uint64         `json:"id" yaml:"id"`
	Symbols        []symbolReport `json:"symbols" yaml:"symbols"`
	Installable    bool           `json:"installable" yaml:"installable"`
}

// NewInspectCmd creates the inspect subcommand.
func NewInspectCmd() *cobra.Command {
	var output string

	cmd := &cobra.Command{
		Use:   "inspect <path>",
		Short: "Open a module and report its ABI symbols",
		Long: `Inspect opens the library at path without installing it and reports
whether it exports the factory and destructor symbols. Builtin modules
are addressed as builtin/<name>.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			builtin := native.NewBuiltin()
			if _, err := modules.Register(builtin, modules.DefaultDir); err != nil {
				return err
			}
			report, err := inspect(native.Chain(builtin, native.System()), args[0])
			if err != nil {
				return err
			}
			return writeReport(cmd.OutOrStdout(), output, report)
		},
	}
	cmd.Flags().StringVarP(&output, "output", "o", "text", "report format (text, json, yaml)")
	return cmd
}

func writeReport(w io.Writer, format string, r *inspectReport) error {
	switch format {
	case "text", "":
		renderReport(w, r)
		return nil
	case "json":
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(r)
	case "yaml":
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(r); err != nil {
			return err
		}
		return enc.Close()
	}
	return fmt.Errorf("unknown output format %q", format)
}

func inspect(backend native.Backend, path string) (*inspectReport, error) {
	lib := native.NewLibrary(backend)
	if err := lib.Open(path); err != nil {
		return nil, fmt.Errorf("failed to open %s: %w", path, err)
	}
	defer func() { _ = lib.Close() }()

	report := &inspectReport{
		Details:     lib.Details(),
		ID:          lib.ID(),
		Installable: true,
	}
	for _, name := range []string{abi.FactorySymbol, abi.DestructorSymbol} {
		sr := symbolReport{Name: name}
		if sym, err := lib.Resolve(name); err == nil {
			sr.Found = true
			sr.Kind = symbolKind(sym)
		}
		report.Installable = report.Installable && sr.Found
		report.Symbols = append(report.Symbols, sr)
	}
	return report, nil
}

func symbolKind(sym native.Symbol) string {
	switch sym.(type) {
	case native.Addr:
		return "native"
	case abi.CreateFunc, abi.DestroyFunc:
		return "go"
	}
	return fmt.Sprintf("%T", sym)
}

func renderReport(w io.Writer, r *inspectReport) {
	row := func(label, value string) {
		fmt.Fprintf(w, "  %s %s\n", mutedStyle.Render(fmt.Sprintf("%-10s", label+":")), value)
	}

	fmt.Fprintln(w, titleStyle.Render(r.Name))
	row("Path", r.Path)
	row("Extension", r.Extension)
	row("ID", strconv.FormatUint(r.ID, 16))
	for _, s := range r.Symbols {
		status := failStyle.Render("missing")
		if s.Found {
			status = successStyle.Render("found") + " " + mutedStyle.Render("("+s.Kind+")")
		}
		row("Symbol", s.Name+" "+status)
	}
	if r.Installable {
		fmt.Fprintln(w, successStyle.Render("installable"))
	} else {
		fmt.Fprintln(w, failStyle.Render("not installable"))
	}
}
