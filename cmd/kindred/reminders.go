package main

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/kalambet/kindred/internal/memory"
)

var remindersCmd = &cobra.Command{
	Use:   "reminders",
	Short: "Manage reminders",
}

var remindersAddCmd = &cobra.Command{
	Use:   "add <text>",
	Short: "Add a reminder",
	Long: `Add a reminder.

Examples:
  kindred reminders add "call the pharmacy" --at 2026-03-15T10:00
  kindred reminders add "water the plants" --at 18:00 --daily`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		at, _ := cmd.Flags().GetString("at")
		daily, _ := cmd.Flags().GetBool("daily")

		text := strings.TrimSpace(strings.Join(args, " "))
		if text == "" {
			return errors.New("reminder text is required")
		}
		if err := memory.ValidateReminderTime(at, daily); err != nil {
			return err
		}

		l, err := openLocalFromConfig()
		if err != nil {
			return err
		}
		defer l.Close()

		id, err := l.mem.AddReminder(text, at, daily, "")
		if err != nil {
			return err
		}
		note := "Reminder: " + text
		if at != "" {
			note += " at " + at
		}
		if err := l.outbox.Enqueue("reminder", note); err != nil {
			printWarning("could not queue sync: %v", err)
		}
		printSuccess("Stored reminder %s", id)
		return nil
	},
}

var remindersListCmd = &cobra.Command{
	Use:   "list",
	Short: "List reminders",
	RunE: func(cmd *cobra.Command, args []string) error {
		all, _ := cmd.Flags().GetBool("all")

		l, err := openLocalFromConfig()
		if err != nil {
			return err
		}
		defer l.Close()

		rs := l.mem.ActiveReminders()
		if all {
			rs = l.mem.Reminders()
		}
		if len(rs) == 0 {
			printWarning("No reminders")
			return nil
		}

		out := cmd.OutOrStdout()
		for _, r := range rs {
			when := r.RemindTime
			if when == "" {
				when = "any time"
			}
			if r.Recurring {
				when += " " + r.RecurrenceInterval
			}
			fmt.Fprintf(out, "  %s  %-10s  %-20s  %s\n", colorize(colorBold, r.ID), r.Status, when, r.Content)
		}
		return nil
	},
}

var remindersCancelCmd = &cobra.Command{
	Use:   "cancel <id>",
	Short: "Cancel a reminder",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		l, err := openLocalFromConfig()
		if err != nil {
			return err
		}
		defer l.Close()

		if err := l.mem.CancelReminder(args[0]); err != nil {
			if errors.Is(err, memory.ErrNotFound) {
				return fmt.Errorf("reminder %s not found", args[0])
			}
			return err
		}
		printSuccess("Cancelled %s", args[0])
		return nil
	},
}

func init() {
	remindersAddCmd.Flags().String("at", "", "HH:MM, or YYYY-MM-DDTHH:MM for a one-off")
	remindersAddCmd.Flags().Bool("daily", false, "repeat every day at --at")
	remindersListCmd.Flags().Bool("all", false, "include completed and cancelled reminders")

	remindersCmd.AddCommand(remindersAddCmd)
	remindersCmd.AddCommand(remindersListCmd)
	remindersCmd.AddCommand(remindersCancelCmd)
}
