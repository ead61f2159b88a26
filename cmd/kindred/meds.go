package main

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/kalambet/kindred/internal/memory"
)

var medsCmd = &cobra.Command{
	Use:   "meds",
	Short: "Manage the medication schedule",
}

var medsAddCmd = &cobra.Command{
	Use:   "add <name>",
	Short: "Add a medication",
	Long: `Add a medication with its daily schedule.

Examples:
  kindred meds add Metformin --dosage 500mg --at 08:00,20:00
  kindred meds add "Vitamin D" --at 09:00 --instructions "with breakfast"`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		dosage, _ := cmd.Flags().GetString("dosage")
		at, _ := cmd.Flags().GetString("at")
		instructions, _ := cmd.Flags().GetString("instructions")

		schedule, err := parseSchedule(at)
		if err != nil {
			return err
		}

		l, err := openLocalFromConfig()
		if err != nil {
			return err
		}
		defer l.Close()

		med, err := l.mem.AddMedication(memory.Medication{
			Name:         strings.TrimSpace(args[0]),
			Dosage:       dosage,
			Schedule:     schedule,
			Instructions: instructions,
		})
		if err != nil {
			return err
		}
		printSuccess("Added %s (%s) at %s", med.Name, med.ID, strings.Join(med.Schedule, ", "))
		return nil
	},
}

var medsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List medications and what is due now",
	RunE: func(cmd *cobra.Command, args []string) error {
		l, err := openLocalFromConfig()
		if err != nil {
			return err
		}
		defer l.Close()

		doc := l.mem.LoadMedications()
		if len(doc.Medications) == 0 {
			printWarning("No medications configured")
			return nil
		}

		due := map[string]bool{}
		for _, d := range l.mem.DueMedications() {
			due[d.Medication.ID+"@"+d.ScheduledTime] = true
		}

		out := cmd.OutOrStdout()
		for _, m := range doc.Medications {
			var slots []string
			for _, s := range m.Schedule {
				if due[m.ID+"@"+s] {
					s = colorize(colorYellow, s+" (due)")
				}
				slots = append(slots, s)
			}
			fmt.Fprintf(out, "  %s  %s %s  %s\n", colorize(colorBold, m.ID), m.Name, m.Dosage, strings.Join(slots, ", "))
		}
		return nil
	},
}

var medsTakenCmd = &cobra.Command{
	Use:   "taken <id>",
	Short: "Record a dose",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		slot, _ := cmd.Flags().GetString("slot")
		status, _ := cmd.Flags().GetString("status")
		notes, _ := cmd.Flags().GetString("notes")

		switch status {
		case "taken", "skipped", "missed":
		default:
			return fmt.Errorf("invalid --status %q: want taken, skipped or missed", status)
		}

		l, err := openLocalFromConfig()
		if err != nil {
			return err
		}
		defer l.Close()

		med, err := l.mem.Medication(args[0])
		if err != nil {
			return err
		}
		if slot == "" {
			slot = l.mem.DueSlot(med.ID)
		}
		if err := l.mem.LogMedicationTaken(med.ID, slot, "", status, notes); err != nil {
			return err
		}
		if status == "taken" {
			if err := l.outbox.Enqueue("medication", fmt.Sprintf("User took %s (%s)", med.Name, slot)); err != nil {
				printWarning("could not queue sync: %v", err)
			}
		}
		printSuccess("Logged %s as %s", med.Name, status)
		return nil
	},
}

// parseSchedule turns "8:00, 20:00" into normalized HH:MM slots.
func parseSchedule(s string) ([]string, error) {
	var slots []string
	for _, part := range strings.Split(s, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		t, err := time.Parse("15:04", part)
		if err != nil {
			return nil, fmt.Errorf("invalid time %q: want HH:MM", part)
		}
		slots = append(slots, t.Format("15:04"))
	}
	if len(slots) == 0 {
		return nil, fmt.Errorf("--at is required")
	}
	return slots, nil
}

func init() {
	medsAddCmd.Flags().String("dosage", "", "dose, e.g. 500mg")
	medsAddCmd.Flags().String("at", "", "comma-separated daily times (HH:MM)")
	medsAddCmd.Flags().String("instructions", "", "how to take it")
	medsTakenCmd.Flags().String("slot", "", "scheduled time being logged (default: the slot due now)")
	medsTakenCmd.Flags().String("status", "taken", "taken, skipped or missed")
	medsTakenCmd.Flags().String("notes", "", "free-form notes")

	medsCmd.AddCommand(medsAddCmd)
	medsCmd.AddCommand(medsListCmd)
	medsCmd.AddCommand(medsTakenCmd)
}
