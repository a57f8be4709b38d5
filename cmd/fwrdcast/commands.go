package main

import (
	"fmt"
	"os"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/pders01/fwrdcast/internal/api"
	"github.com/pders01/fwrdcast/internal/config"
	"github.com/pders01/fwrdcast/internal/debuglog"
	"github.com/pders01/fwrdcast/internal/feed"
	"github.com/pders01/fwrdcast/internal/media"
	"github.com/pders01/fwrdcast/internal/model"
	"github.com/pders01/fwrdcast/internal/validation"
)

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Show version information",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("fwrdcast %s\n", Version)
		fmt.Println("Podcast and feed client")
		fmt.Println("github.com/pders01/fwrdcast")
	},
}

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Manage the configuration file",
}

var configGenCmd = &cobra.Command{
	Use:   "generate",
	Short: "Generate default config file",
	Run: func(cmd *cobra.Command, args []string) {
		path := config.DefaultPath()
		if configPath != "" {
			path = expandHome(configPath)
		}
		if err := config.GenerateDefaultConfig(path); err != nil {
			fmt.Fprintln(os.Stderr, color.RedString("Failed to generate config: %v", err))
			os.Exit(1)
		}
		fmt.Printf("Generated default configuration at: %s\n", path)
	},
}

var configPathCmd = &cobra.Command{
	Use:   "path",
	Short: "Print the config file location",
	Run: func(cmd *cobra.Command, args []string) {
		if configPath != "" {
			fmt.Println(expandHome(configPath))
			return
		}
		fmt.Println(config.DefaultPath())
	},
}

var articlesCmd = &cobra.Command{
	Use:     "articles",
	Aliases: []string{"ls"},
	Short:   "Print one page of articles",
	Long:    "Fetch the first page of a list from the feed service and print it as a table.",
	Args:    cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		defer debuglog.Close()
		key, err := listKeyFromFlags(cmd)
		if err != nil {
			return err
		}
		limit, _ := cmd.Flags().GetInt("limit")
		if limit <= 0 {
			limit = cfg.API.PageSize
		}

		client, err := newAPIClient(cfg)
		if err != nil {
			return err
		}
		articles, err := client.ListArticles(cmd.Context(), api.ListQuery{Key: key, PerPage: limit})
		if err != nil {
			return fmt.Errorf("listing %s: %w", key, err)
		}

		out := cmd.OutOrStdout()
		if len(articles) == 0 {
			fmt.Fprintln(out, color.YellowString("No articles in %s", key))
			return nil
		}
		fmt.Fprintln(out, renderArticles(articles))
		fmt.Fprintln(out, color.New(color.Faint).Sprintf("%d articles from %s", len(articles), key))
		return nil
	},
}

var previewCmd = &cobra.Command{
	Use:   "preview <url>",
	Short: "Show a feed's latest episodes without following it",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		defer debuglog.Close()
		feedURL, err := validation.NewURLValidator().ValidateAndNormalize(args[0])
		if err != nil {
			return fmt.Errorf("invalid feed URL: %w", err)
		}
		limit, _ := cmd.Flags().GetInt("limit")

		parser := feed.NewParser(audioDetector(media.NewLauncher(cfg.Media)))
		previewer := feed.NewPreviewer(feed.NewFetcher(), parser, newResolver(cfg))

		p, err := previewer.Preview(cmd.Context(), feedURL, limit)
		if err != nil {
			return err
		}

		out := cmd.OutOrStdout()
		kind := "feed"
		if p.Podcast {
			kind = "podcast"
		}
		fmt.Fprintf(out, "%s %s\n", color.New(color.Bold).Sprint(nonEmpty(p.Title, p.FeedURL)), color.CyanString("(%s)", kind))
		if p.Author != "" {
			fmt.Fprintln(out, p.Author)
		}
		fmt.Fprintln(out, color.New(color.Faint).Sprint(p.FeedURL))
		if len(p.Episodes) == 0 {
			fmt.Fprintln(out, color.YellowString("No entries"))
			return nil
		}
		fmt.Fprintln(out, renderEpisodes(p.Episodes))
		return nil
	},
}

func init() {
	articlesCmd.Flags().String("feed", "", "Feed id")
	articlesCmd.Flags().String("folder", "", "Folder id")
	articlesCmd.Flags().String("smart", "", "Smart list (primary, starred, recent-read, recent-played)")
	articlesCmd.Flags().String("search", "", "Search query")
	articlesCmd.Flags().Bool("unread", false, "Only unread articles")
	articlesCmd.Flags().String("type", "", "Article type, for example podcast")
	articlesCmd.Flags().IntP("limit", "n", 0, "Page size (defaults to api.page_size)")
	articlesCmd.MarkFlagsMutuallyExclusive("feed", "folder", "smart", "search")

	previewCmd.Flags().IntP("limit", "n", 10, "Number of entries to show (0 for all)")
}

func listKeyFromFlags(cmd *cobra.Command) (model.ListKey, error) {
	feedID, _ := cmd.Flags().GetString("feed")
	folderID, _ := cmd.Flags().GetString("folder")
	smart, _ := cmd.Flags().GetString("smart")
	query, _ := cmd.Flags().GetString("search")

	var key model.ListKey
	switch {
	case feedID != "":
		key = model.FeedList(feedID)
	case folderID != "":
		key = model.FolderList(folderID)
	case smart != "":
		switch smart {
		case model.SmartPrimary, model.SmartStarred, model.SmartRecentRead, model.SmartRecentPlayed:
		default:
			return model.ListKey{}, fmt.Errorf("unknown smart list %q", smart)
		}
		key = model.SmartList(smart)
	case query != "":
		key = model.SearchList(query)
	default:
		key = model.AllList()
	}

	key.UnreadOnly, _ = cmd.Flags().GetBool("unread")
	key.Type, _ = cmd.Flags().GetString("type")
	return key, nil
}

func nonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
