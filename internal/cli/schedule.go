package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"sort"
	"strings"

	"github.com/charmbracelet/huh"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	ierrors "github.com/tessro/interlude/internal/errors"
	"github.com/tessro/interlude/internal/schedule"
	"github.com/tessro/interlude/internal/server"
	"github.com/tessro/interlude/internal/wizard"
)

var exportFormat string

var scheduleCmd = &cobra.Command{
	Use:   "schedule",
	Short: "Manage the playback schedule",
	Long: `Manage when scheduled playback fires. A base weekly pattern applies to
every week; a date override replaces it for one date; a blocked date
silences both.

Slots are half-hour marks from 07:00 to 17:00. Wherever slots are taken
you can pass "all", "none", single slots like 09:30, or ranges like
09:00-11:00 (end exclusive).`,
}

var scheduleShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show the weekly grid, overrides and blocked dates",
	Args:  cobra.NoArgs,
	RunE:  runScheduleShow,
}

var scheduleSetCmd = &cobra.Command{
	Use:   "set <day> all|none|<slot>...",
	Short: "Set the base schedule of a weekday",
	Example: `  interlude schedule set monday 09:00 09:30 14:00
  interlude schedule set fri 13:00-15:00
  interlude schedule set sat none`,
	Args: cobra.MinimumNArgs(2),
	RunE: runScheduleSet,
}

var scheduleEditCmd = &cobra.Command{
	Use:   "edit <day>",
	Short: "Pick a weekday's slots interactively",
	Args:  cobra.ExactArgs(1),
	RunE:  runScheduleEdit,
}

var scheduleOverrideCmd = &cobra.Command{
	Use:     "override <date> all|none|<slot>...",
	Short:   "Replace the base schedule for one date",
	Example: `  interlude schedule override 2026-12-24 09:00-12:00`,
	Args:    cobra.MinimumNArgs(2),
	RunE:    runScheduleOverride,
}

var scheduleClearCmd = &cobra.Command{
	Use:   "clear <date>",
	Short: "Remove a date override",
	Args:  cobra.ExactArgs(1),
	RunE:  runScheduleClear,
}

var scheduleBlockCmd = &cobra.Command{
	Use:   "block <date>",
	Short: "Silence scheduled playback on a date",
	Args:  cobra.ExactArgs(1),
	RunE:  runScheduleBlock,
}

var scheduleUnblockCmd = &cobra.Command{
	Use:   "unblock <date>",
	Short: "Lift a blocked date",
	Args:  cobra.ExactArgs(1),
	RunE:  runScheduleUnblock,
}

var scheduleEffectiveCmd = &cobra.Command{
	Use:   "effective [date]",
	Short: "Show the resolved schedule of a date (default today)",
	Args:  cobra.MaximumNArgs(1),
	RunE:  runScheduleEffective,
}

var scheduleMigrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Fold legacy schedule data into the weekly pattern",
	Args:  cobra.NoArgs,
	RunE:  runScheduleMigrate,
}

var scheduleExportCmd = &cobra.Command{
	Use:   "export",
	Short: "Print the schedule as YAML or JSON",
	Args:  cobra.NoArgs,
	RunE:  runScheduleExport,
}

func init() {
	scheduleExportCmd.Flags().StringVarP(&exportFormat, "format", "f", "yaml", "output format: yaml or json")

	scheduleCmd.AddCommand(scheduleShowCmd)
	scheduleCmd.AddCommand(scheduleSetCmd)
	scheduleCmd.AddCommand(scheduleEditCmd)
	scheduleCmd.AddCommand(scheduleOverrideCmd)
	scheduleCmd.AddCommand(scheduleClearCmd)
	scheduleCmd.AddCommand(scheduleBlockCmd)
	scheduleCmd.AddCommand(scheduleUnblockCmd)
	scheduleCmd.AddCommand(scheduleEffectiveCmd)
	scheduleCmd.AddCommand(scheduleMigrateCmd)
	scheduleCmd.AddCommand(scheduleExportCmd)
	rootCmd.AddCommand(scheduleCmd)
}

// parseDayArgs turns "all", "none", slots and slot ranges into a request.
func parseDayArgs(args []string) (server.DayRequest, error) {
	if len(args) == 1 {
		switch strings.ToLower(args[0]) {
		case "all":
			return server.DayRequest{WholeDay: true}, nil
		case "none", "off":
			return server.DayRequest{Slots: []string{}}, nil
		}
	}

	seen := make(map[string]bool)
	for _, arg := range args {
		var labels []string
		if start, end, ok := strings.Cut(arg, "-"); ok {
			r, err := expandRange(start, end)
			if err != nil {
				return server.DayRequest{}, err
			}
			labels = r
		} else {
			label, err := schedule.ParseSlot(arg)
			if err != nil {
				return server.DayRequest{}, err
			}
			labels = []string{label}
		}
		for _, l := range labels {
			seen[l] = true
		}
	}

	var req server.DayRequest
	for _, l := range schedule.Slots() {
		if seen[l] {
			req.Slots = append(req.Slots, l)
		}
	}
	return req, nil
}

// expandRange returns the slots from start up to, but not including, end.
// An end past the last slot may be given as 17:30.
func expandRange(start, end string) ([]string, error) {
	from, err := schedule.ParseSlot(start)
	if err != nil {
		return nil, err
	}
	slots := schedule.Slots()
	to := len(slots)
	if end != fmt.Sprintf("%02d:30", schedule.LastSlotHour) {
		label, err := schedule.ParseSlot(end)
		if err != nil {
			return nil, err
		}
		to = indexOf(slots, label)
	}
	lo := indexOf(slots, from)
	if lo >= to {
		return nil, ierrors.Configuration("slot range", fmt.Errorf("%w: %s-%s is empty", ierrors.ErrInvalidSlot, start, end))
	}
	return slots[lo:to], nil
}

func indexOf(labels []string, label string) int {
	for i, l := range labels {
		if l == label {
			return i
		}
	}
	return -1
}

func runScheduleShow(cmd *cobra.Command, args []string) error {
	ctx, cancel := commandContext(cmd)
	defer cancel()

	s, err := daemon().Schedule(ctx)
	if err != nil {
		return err
	}
	if JSONOutput() {
		return printJSON(s)
	}
	printSchedule(os.Stdout, s)
	return nil
}

func printSchedule(w io.Writer, s *schedule.Store) {
	fmt.Fprint(w, renderWeekGrid(s.Base))

	fmt.Fprintln(w)
	fmt.Fprintln(w, headerStyle.Render("Overrides"))
	if len(s.Overrides) == 0 {
		fmt.Fprintln(w, mutedStyle.Render("  none"))
	}
	keys := make([]string, 0, len(s.Overrides))
	for k := range s.Overrides {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		fmt.Fprintf(w, "  %s  %s\n", k, renderDay(s.Overrides[k]))
	}

	fmt.Fprintln(w)
	fmt.Fprintln(w, headerStyle.Render("Blocked"))
	blocked := s.Blocked.Sorted()
	if len(blocked) == 0 {
		fmt.Fprintln(w, mutedStyle.Render("  none"))
	}
	for _, k := range blocked {
		fmt.Fprintf(w, "  %s\n", k)
	}
}

func runScheduleSet(cmd *cobra.Command, args []string) error {
	day, err := schedule.ParseDay(args[0])
	if err != nil {
		return err
	}
	req, err := parseDayArgs(args[1:])
	if err != nil {
		return err
	}

	ctx, cancel := commandContext(cmd)
	defer cancel()
	if err := daemon().SetBaseDay(ctx, day, req); err != nil {
		return err
	}
	return reportDay(day.String(), req)
}

func runScheduleEdit(cmd *cobra.Command, args []string) error {
	day, err := schedule.ParseDay(args[0])
	if err != nil {
		return err
	}
	if !wizard.IsTerminal() {
		return fmt.Errorf("schedule edit needs a terminal; use 'interlude schedule set' instead")
	}

	ctx, cancel := commandContext(cmd)
	s, err := daemon().Schedule(ctx)
	cancel()
	if err != nil {
		return err
	}

	current := s.Base[day]
	var options []huh.Option[string]
	for _, slot := range schedule.Slots() {
		options = append(options, huh.NewOption(slot, slot).Selected(current.Fires(slot)))
	}

	var selected []string
	form := huh.NewForm(
		huh.NewGroup(
			huh.NewMultiSelect[string]().
				Title(fmt.Sprintf("Slots for %s", day)).
				Description("Space toggles a slot, enter saves").
				Options(options...).
				Height(14).
				Value(&selected),
		),
	)
	if err := form.Run(); err != nil {
		return fmt.Errorf("edit cancelled: %w", err)
	}

	req := server.DayRequest{Slots: selected}
	if len(selected) == len(schedule.Slots()) {
		req = server.DayRequest{WholeDay: true}
	}

	ctx, cancel = commandContext(cmd)
	defer cancel()
	if err := daemon().SetBaseDay(ctx, day, req); err != nil {
		return err
	}
	return reportDay(day.String(), req)
}

func runScheduleOverride(cmd *cobra.Command, args []string) error {
	req, err := parseDayArgs(args[1:])
	if err != nil {
		return err
	}

	ctx, cancel := commandContext(cmd)
	defer cancel()
	if err := daemon().SetOverride(ctx, args[0], req); err != nil {
		return err
	}
	return reportDay(args[0], req)
}

func reportDay(name string, req server.DayRequest) error {
	if JSONOutput() {
		return printJSON(map[string]any{"status": "updated", "target": name, "wholeDay": req.WholeDay, "slots": req.Slots})
	}
	sched, err := req.Schedule()
	if err != nil {
		return err
	}
	fmt.Printf("%s: %s\n", name, renderDay(sched))
	return nil
}

func runScheduleClear(cmd *cobra.Command, args []string) error {
	ctx, cancel := commandContext(cmd)
	defer cancel()

	existed, err := daemon().ClearOverride(ctx, args[0])
	if err != nil {
		return err
	}
	return reportRemoved(args[0], existed, "override cleared", "no override")
}

func runScheduleBlock(cmd *cobra.Command, args []string) error {
	ctx, cancel := commandContext(cmd)
	defer cancel()

	if err := daemon().Block(ctx, args[0]); err != nil {
		return err
	}
	if JSONOutput() {
		return printJSON(map[string]string{"status": "blocked", "date": args[0]})
	}
	fmt.Printf("%s: blocked\n", args[0])
	return nil
}

func runScheduleUnblock(cmd *cobra.Command, args []string) error {
	ctx, cancel := commandContext(cmd)
	defer cancel()

	was, err := daemon().Unblock(ctx, args[0])
	if err != nil {
		return err
	}
	return reportRemoved(args[0], was, "unblocked", "was not blocked")
}

func reportRemoved(date string, removed bool, yes, no string) error {
	if JSONOutput() {
		return printJSON(map[string]any{"date": date, "removed": removed})
	}
	if removed {
		fmt.Printf("%s: %s\n", date, yes)
	} else {
		fmt.Printf("%s: %s\n", date, no)
	}
	return nil
}

func runScheduleEffective(cmd *cobra.Command, args []string) error {
	date := ""
	if len(args) == 1 {
		date = args[0]
	}

	ctx, cancel := commandContext(cmd)
	defer cancel()
	eff, err := daemon().Effective(ctx, date)
	if err != nil {
		return err
	}

	if JSONOutput() {
		return printJSON(eff)
	}
	fmt.Printf("%s (%s) from %s\n", eff.Date, eff.Day, eff.Source)
	fmt.Printf("  %s\n", renderDay(eff.Slots))
	return nil
}

func runScheduleMigrate(cmd *cobra.Command, args []string) error {
	ctx, cancel := commandContext(cmd)
	defer cancel()

	report, err := daemon().Migrate(ctx)
	if err != nil {
		return err
	}

	if JSONOutput() {
		return printJSON(report)
	}
	if !report.Changed() && len(report.Skipped) == 0 {
		fmt.Println("Nothing to migrate.")
		return nil
	}
	if len(report.BaseDays) > 0 {
		fmt.Printf("Base days:  %s\n", strings.Join(report.BaseDays, ", "))
	}
	if len(report.Overrides) > 0 {
		fmt.Printf("Overrides:  %s\n", strings.Join(report.Overrides, ", "))
	}
	for _, s := range report.Skipped {
		fmt.Printf("Skipped:    %s\n", s)
	}
	return nil
}

// exportDay is the compact export form of a DaySchedule.
type exportDay struct {
	WholeDay bool     `yaml:"whole_day,omitempty" json:"wholeDay,omitempty"`
	Slots    []string `yaml:"slots,omitempty" json:"slots,omitempty"`
}

type scheduleExport struct {
	Base      map[string]exportDay `yaml:"base" json:"base"`
	Overrides map[string]exportDay `yaml:"overrides,omitempty" json:"overrides,omitempty"`
	Blocked   []string             `yaml:"blocked,omitempty" json:"blocked,omitempty"`
}

func newExport(s *schedule.Store) scheduleExport {
	compact := func(d schedule.DaySchedule) exportDay {
		if d.WholeDay {
			return exportDay{WholeDay: true}
		}
		return exportDay{Slots: d.ActiveSlots()}
	}

	out := scheduleExport{Base: make(map[string]exportDay, len(s.Base))}
	for _, d := range schedule.Days() {
		out.Base[strings.ToLower(d.String())] = compact(s.Base[d])
	}
	if len(s.Overrides) > 0 {
		out.Overrides = make(map[string]exportDay, len(s.Overrides))
		for k, v := range s.Overrides {
			out.Overrides[k] = compact(v)
		}
	}
	out.Blocked = s.Blocked.Sorted()
	return out
}

func writeExport(w io.Writer, s *schedule.Store, format string) error {
	doc := newExport(s)
	switch format {
	case "yaml", "yml":
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(doc); err != nil {
			return err
		}
		return enc.Close()
	case "json":
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(doc)
	}
	return fmt.Errorf("unknown export format %q (want yaml or json)", format)
}

func runScheduleExport(cmd *cobra.Command, args []string) error {
	ctx, cancel := commandContext(cmd)
	defer cancel()

	s, err := daemon().Schedule(ctx)
	if err != nil {
		return err
	}
	format := exportFormat
	if JSONOutput() {
		format = "json"
	}
	return writeExport(os.Stdout, s, format)
}
