package main

import (
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/kalambet/kindred/internal/importer"
	"github.com/kalambet/kindred/internal/memory"
)

var memoriesCmd = &cobra.Command{
	Use:   "memories",
	Short: "Add, search and import memory notes",
}

var memoriesAddCmd = &cobra.Command{
	Use:   "add <text>",
	Short: "Store a note",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		tags := splitTags(cmd)
		text := strings.TrimSpace(strings.Join(args, " "))
		if text == "" {
			return errors.New("note text is required")
		}

		l, err := openLocalFromConfig()
		if err != nil {
			return err
		}
		defer l.Close()

		if err := l.mem.AddMemory(text, "cli", tags...); err != nil {
			return err
		}
		if err := l.outbox.Enqueue("memory", text); err != nil {
			printWarning("could not queue sync: %v", err)
		}
		printSuccess("Stored")
		return nil
	},
}

var memoriesSearchCmd = &cobra.Command{
	Use:   "search <query>",
	Short: "Find notes by content or tag",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		l, err := openLocalFromConfig()
		if err != nil {
			return err
		}
		defer l.Close()

		found := l.mem.SearchMemories(strings.Join(args, " "))
		if len(found) == 0 {
			printWarning("No matching notes")
			return nil
		}
		printMemories(cmd.OutOrStdout(), found)
		return nil
	},
}

var memoriesRecentCmd = &cobra.Command{
	Use:   "recent",
	Short: "Show the newest notes",
	RunE: func(cmd *cobra.Command, args []string) error {
		limit, _ := cmd.Flags().GetInt("limit")
		if limit <= 0 {
			return fmt.Errorf("--limit must be positive")
		}

		l, err := openLocalFromConfig()
		if err != nil {
			return err
		}
		defer l.Close()

		printMemories(cmd.OutOrStdout(), l.mem.RecentMemories(limit))
		return nil
	},
}

var memoriesImportCmd = &cobra.Command{
	Use:   "import <file>",
	Short: "Import a text, markdown or PDF file as notes",
	Long: `Import a document as memory notes.

The file is split on blank lines into notes of at most 1000 characters,
each tagged "imported" plus any --tags.

Examples:
  kindred memories import ./family.md --tags family
  kindred memories import ./care-plan.pdf`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		tags := splitTags(cmd)

		l, err := openLocalFromConfig()
		if err != nil {
			return err
		}
		defer l.Close()

		printStep("Importing %s...", args[0])
		n, err := importer.ImportFile(l.mem, args[0], tags...)
		if err != nil {
			if n > 0 {
				printWarning("%d notes stored before the failure", n)
			}
			return err
		}
		printSuccess("Imported %d notes", n)
		return nil
	},
}

func splitTags(cmd *cobra.Command) []string {
	raw, _ := cmd.Flags().GetString("tags")
	var tags []string
	for _, t := range strings.Split(raw, ",") {
		if t = strings.TrimSpace(t); t != "" {
			tags = append(tags, t)
		}
	}
	return tags
}

func printMemories(w io.Writer, ms []memory.Memory) {
	for _, m := range ms {
		tags := ""
		if len(m.Tags) > 0 {
			tags = " [" + strings.Join(m.Tags, ", ") + "]"
		}
		fmt.Fprintf(w, "  %s %s%s\n    %s\n", colorize(colorBold, m.Timestamp), m.Source, tags, m.Content)
	}
}

func init() {
	memoriesAddCmd.Flags().String("tags", "", "comma-separated tags")
	memoriesImportCmd.Flags().String("tags", "", "comma-separated extra tags")
	memoriesRecentCmd.Flags().Int("limit", 10, "number of notes")

	memoriesCmd.AddCommand(memoriesAddCmd)
	memoriesCmd.AddCommand(memoriesSearchCmd)
	memoriesCmd.AddCommand(memoriesRecentCmd)
	memoriesCmd.AddCommand(memoriesImportCmd)
}
