package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"capsule-hq/capsule/pkg/memory"
	"capsule-hq/capsule/pkg/memory/tool"
)

var relationCmd = &cobra.Command{
	Use:   "relation",
	Short: "Update, search, and delete relationship records",
}

var relationUpdateFlags struct {
	group            string
	platform         string
	nickname         string
	relationType     string
	tags             string
	summary          string
	remark           string
	delta            int
	firstMetTime     string
	firstMetLocation string
	contexts         []string
}

var relationUpdateCmd = &cobra.Command{
	Use:   "update <user_id>",
	Short: "Merge-upsert a relationship record",
	Long: `Merge-upsert a relationship record.

Supplied fields overwrite the stored values; omitted fields keep them.
The intimacy delta is applied additively and the result clamped to
[0,100]; a fresh relationship starts from the 50 baseline.`,
	Args: cobra.ExactArgs(1),
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

		var contexts []string
		if cmd.Flags().Changed("context") {
			contexts = relationUpdateFlags.contexts
		}

		kit := tool.NewKit(store, nil)
		fmt.Println(kit.UpdateRelationship(cmd.Context(), memory.RelationshipUpdate{
			UserID:           args[0],
			GroupID:          relationUpdateFlags.group,
			Platform:         relationUpdateFlags.platform,
			Nickname:         relationUpdateFlags.nickname,
			RelationType:     relationUpdateFlags.relationType,
			Tags:             relationUpdateFlags.tags,
			Summary:          relationUpdateFlags.summary,
			Remark:           relationUpdateFlags.remark,
			FirstMetTime:     relationUpdateFlags.firstMetTime,
			FirstMetLocation: relationUpdateFlags.firstMetLocation,
			KnownContexts:    contexts,
			IntimacyDelta:    relationUpdateFlags.delta,
		}))
		return nil
	},
}

var relationSearchCmd = &cobra.Command{
	Use:   "search [query]",
	Short: "Search relationships by keyword; an empty query matches all",
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
		rels := kit.SearchRelationships(cmd.Context(), query)
		if len(rels) == 0 {
			fmt.Println("no relationships found")
			return nil
		}
		printRelationships(rels)
		return nil
	},
}

var relationListFlags struct {
	limit int
	page  int
}

var relationListCmd = &cobra.Command{
	Use:   "list",
	Short: "List relationships with pagination",
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

		page := relationListFlags.page
		if page < 1 {
			page = 1
		}
		rels, err := store.ListRelationships(cmd.Context(), relationListFlags.limit, (page-1)*relationListFlags.limit)
		if err != nil {
			return err
		}
		total, err := store.CountRelationships(cmd.Context())
		if err != nil {
			return err
		}
		printRelationships(rels)
		fmt.Printf("%d of %d relationships (page %d)\n", len(rels), total, page)
		return nil
	},
}

var relationDeleteFlags struct {
	group    string
	platform string
}

var relationDeleteCmd = &cobra.Command{
	Use:   "delete <user_id>",
	Short: "Delete a relationship by identity key",
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
		fmt.Println(kit.DeleteRelationship(cmd.Context(), args[0], relationDeleteFlags.group, relationDeleteFlags.platform))
		return nil
	},
}

func printRelationships(rels []memory.Relationship) {
	for _, r := range rels {
		name := r.Nickname
		if name == "" {
			name = r.UserID
		}
		line := fmt.Sprintf("%s (user=%s", name, r.UserID)
		if r.GroupID != "" {
			line += ", group=" + r.GroupID
		}
		if r.Platform != "" {
			line += ", platform=" + r.Platform
		}
		line += fmt.Sprintf(", intimacy=%d)", r.Intimacy)
		fmt.Println(line)
		if r.RelationType != "" {
			fmt.Printf("  type: %s\n", r.RelationType)
		}
		if r.Summary != "" {
			fmt.Printf("  summary: %s\n", r.Summary)
		}
		if len(r.Aliases) > 0 {
			fmt.Printf("  aliases: %s\n", strings.Join(r.Aliases, ", "))
		}
	}
}

func init() {
	rootCmd.AddCommand(relationCmd)
	relationCmd.AddCommand(relationUpdateCmd, relationSearchCmd, relationListCmd, relationDeleteCmd)

	relationUpdateCmd.Flags().StringVar(&relationUpdateFlags.group, "group", "", "group qualifier")
	relationUpdateCmd.Flags().StringVar(&relationUpdateFlags.platform, "platform", "", "platform qualifier")
	relationUpdateCmd.Flags().StringVar(&relationUpdateFlags.nickname, "nickname", "", "current nickname")
	relationUpdateCmd.Flags().StringVar(&relationUpdateFlags.relationType, "type", "", "relation-type label")
	relationUpdateCmd.Flags().StringVar(&relationUpdateFlags.tags, "tags", "", "comma-separated tags")
	relationUpdateCmd.Flags().StringVar(&relationUpdateFlags.summary, "summary", "", "impression summary (overwrites)")
	relationUpdateCmd.Flags().StringVar(&relationUpdateFlags.remark, "remark", "", "free-form remark")
	relationUpdateCmd.Flags().IntVar(&relationUpdateFlags.delta, "delta", 0, "intimacy delta")
	relationUpdateCmd.Flags().StringVar(&relationUpdateFlags.firstMetTime, "first-met-time", "", "first meeting time")
	relationUpdateCmd.Flags().StringVar(&relationUpdateFlags.firstMetLocation, "first-met-location", "", "first meeting location")
	relationUpdateCmd.Flags().StringSliceVar(&relationUpdateFlags.contexts, "context", nil, "known contexts (replaces the stored set)")

	relationListCmd.Flags().IntVar(&relationListFlags.limit, "limit", 20, "relationships per page")
	relationListCmd.Flags().IntVar(&relationListFlags.page, "page", 1, "1-based page number")

	relationDeleteCmd.Flags().StringVar(&relationDeleteFlags.group, "group", "", "group qualifier")
	relationDeleteCmd.Flags().StringVar(&relationDeleteFlags.platform, "platform", "", "platform qualifier")
}
