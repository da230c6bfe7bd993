package main

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"capsule-hq/capsule/pkg/memory"
	"capsule-hq/capsule/pkg/memory/tool"
)

var noteCmd = &cobra.Command{
	Use:   "note",
	Short: "Store, search, and delete notes",
}

var noteAddFlags struct {
	category   string
	tags       string
	owner      string
	platform   string
	context    string
	importance int
}

var noteAddCmd = &cobra.Command{
	Use:   "add <content>",
	Short: "Store a note",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		store, err := openStore(cfg)
		if err != nil {
			return err
		}
		defer store.Close()

		kit := tool.NewKit(store, nil)
		fmt.Println(kit.StoreNote(cmd.Context(), memory.Note{
			Content:        args[0],
			Category:       noteAddFlags.category,
			Tags:           noteAddFlags.tags,
			UserID:         noteAddFlags.owner,
			SourcePlatform: noteAddFlags.platform,
			SourceContext:  noteAddFlags.context,
			Importance:     noteAddFlags.importance,
		}))
		return nil
	},
}

var noteSearchOwner string

var noteSearchCmd = &cobra.Command{
	Use:   "search [query]",
	Short: "Search notes by keyword, or list the most recent without a query",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		store, err := openStore(cfg)
		if err != nil {
			return err
		}
		defer store.Close()

		query := ""
		if len(args) > 0 {
			query = args[0]
		}
		kit := tool.NewKit(store, nil)
		notes := kit.SearchNotes(cmd.Context(), query, noteSearchOwner)
		if len(notes) == 0 {
			fmt.Println("no notes found")
			return nil
		}
		printNotes(notes)
		return nil
	},
}

var noteListFlags struct {
	limit    int
	page     int
	category string
}

var noteListCmd = &cobra.Command{
	Use:   "list",
	Short: "List notes with pagination",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		store, err := openStore(cfg)
		if err != nil {
			return err
		}
		defer store.Close()

		page := noteListFlags.page
		if page < 1 {
			page = 1
		}
		offset := (page - 1) * noteListFlags.limit
		notes, err := store.ListNotes(cmd.Context(), noteListFlags.limit, offset, noteListFlags.category)
		if err != nil {
			return err
		}
		total, err := store.CountNotes(cmd.Context(), noteListFlags.category)
		if err != nil {
			return err
		}
		printNotes(notes)
		fmt.Printf("%d of %d notes (page %d)\n", len(notes), total, page)
		return nil
	},
}

var noteDeleteCmd = &cobra.Command{
	Use:   "delete <id>",
	Short: "Delete a note by id",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		id, err := strconv.ParseInt(args[0], 10, 64)
		if err != nil {
			return fmt.Errorf("note id must be an integer: %q", args[0])
		}
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		store, err := openStore(cfg)
		if err != nil {
			return err
		}
		defer store.Close()

		kit := tool.NewKit(store, nil)
		fmt.Println(kit.DeleteNote(cmd.Context(), id))
		return nil
	},
}

func printNotes(notes []memory.Note) {
	for _, n := range notes {
		line := fmt.Sprintf("[%d] %s", n.ID, n.Content)
		var meta []string
		if n.Category != "" {
			meta = append(meta, "category="+n.Category)
		}
		if n.Tags != "" {
			meta = append(meta, "tags="+n.Tags)
		}
		meta = append(meta, fmt.Sprintf("importance=%d", n.Importance))
		meta = append(meta, n.CreatedAt.Format("2006-01-02 15:04:05"))
		fmt.Printf("%s (%s)\n", line, strings.Join(meta, ", "))
	}
}

func init() {
	rootCmd.AddCommand(noteCmd)
	noteCmd.AddCommand(noteAddCmd, noteSearchCmd, noteListCmd, noteDeleteCmd)

	noteAddCmd.Flags().StringVar(&noteAddFlags.category, "category", "", "note category")
	noteAddCmd.Flags().StringVar(&noteAddFlags.tags, "tags", "", "comma-separated tags")
	noteAddCmd.Flags().StringVar(&noteAddFlags.owner, "owner", "", "owning user id")
	noteAddCmd.Flags().StringVar(&noteAddFlags.platform, "platform", "", "source platform tag")
	noteAddCmd.Flags().StringVar(&noteAddFlags.context, "context", "", "source context tag")
	noteAddCmd.Flags().IntVar(&noteAddFlags.importance, "importance", 0, "importance 1-10 (default 5)")

	noteSearchCmd.Flags().StringVar(&noteSearchOwner, "owner", "", "filter by owning user id")

	noteListCmd.Flags().IntVar(&noteListFlags.limit, "limit", 20, "notes per page")
	noteListCmd.Flags().IntVar(&noteListFlags.page, "page", 1, "1-based page number")
	noteListCmd.Flags().StringVar(&noteListFlags.category, "category", "", "filter by category")
}
