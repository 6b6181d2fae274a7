package main

import (
	"fmt"
	"net/http"
	"os"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"deskmate/internal/config"
	"deskmate/internal/ingest"
	"deskmate/internal/storage"
)

// --- kb ---

var kbCmd = &cobra.Command{
	Use:   "kb",
	Short: "Manage the knowledge base",
}

var kbImportCmd = &cobra.Command{
	Use:   "import",
	Short: "Import a document as a knowledge article",
	Long: `Import a document as a knowledge article.

Examples:
  deskmate kb import --file ./vpn-guide.md --category Network
  deskmate kb import --file ./handbook.pdf --title "Printer setup"
  deskmate kb import --url https://example.com/kb/outlook-sync`,
	RunE: func(cmd *cobra.Command, args []string) error {
		file, _ := cmd.Flags().GetString("file")
		url, _ := cmd.Flags().GetString("url")
		title, _ := cmd.Flags().GetString("title")
		category, _ := cmd.Flags().GetString("category")
		author, _ := cmd.Flags().GetString("author")

		if (file == "") == (url == "") {
			return fmt.Errorf("exactly one of --file or --url is required")
		}

		var doc ingest.Document
		var err error
		switch {
		case file != "":
			doc, err = ingest.ExtractFile(file)
		case url != "":
			doc, err = fetchURL(url)
		}
		if err != nil {
			return err
		}

		if title != "" {
			doc.Title = title
		}
		if doc.Title == "" {
			return fmt.Errorf("could not derive a title; pass --title")
		}

		article := ingest.NewArticle(doc, category, author)

		store, err := openStore()
		if err != nil {
			return err
		}
		defer store.Close()

		if err := store.InsertKnowledgeArticle(article); err != nil {
			return fmt.Errorf("storing article: %w", err)
		}

		printSuccess("Imported %s: %s", article.Number, article.ShortDescription)
		return nil
	},
}

var kbListCmd = &cobra.Command{
	Use:   "list",
	Short: "List knowledge articles, most recently updated first",
	RunE: func(cmd *cobra.Command, args []string) error {
		limit, _ := cmd.Flags().GetInt("limit")

		store, err := openStore()
		if err != nil {
			return err
		}
		defer store.Close()

		articles, err := store.SearchKnowledgeBase(nil, limit)
		if err != nil {
			return err
		}
		if len(articles) == 0 {
			fmt.Println("No knowledge articles found.")
			return nil
		}

		tw := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
		fmt.Fprintln(tw, "NUMBER\tUPDATED\tCATEGORY\tDESCRIPTION")
		for _, a := range articles {
			fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n", a.Number, a.UpdatedAt.Format("2006-01-02"), a.Category, clip(a.ShortDescription, 60))
		}
		return tw.Flush()
	},
}

func init() {
	kbImportCmd.Flags().String("file", "", "file path to import (text, markdown, HTML, or PDF)")
	kbImportCmd.Flags().String("url", "", "URL to fetch and import")
	kbImportCmd.Flags().String("title", "", "override the article short description")
	kbImportCmd.Flags().String("category", "", "article category")
	kbImportCmd.Flags().String("author", "", "article author")
	kbListCmd.Flags().Int("limit", 20, "maximum number of articles to list")
	kbCmd.AddCommand(kbImportCmd)
	kbCmd.AddCommand(kbListCmd)
}

// --- incidents ---

var incidentsCmd = &cobra.Command{
	Use:   "incidents",
	Short: "Inspect incident records",
}

var incidentsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List incidents, most recently opened first",
	RunE: func(cmd *cobra.Command, args []string) error {
		limit, _ := cmd.Flags().GetInt("limit")

		store, err := openStore()
		if err != nil {
			return err
		}
		defer store.Close()

		incidents, err := store.SearchIncidents(nil, limit)
		if err != nil {
			return err
		}
		if len(incidents) == 0 {
			fmt.Println("No incidents found.")
			return nil
		}

		tw := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
		fmt.Fprintln(tw, "NUMBER\tSTATE\tOPENED\tASSIGNED\tDESCRIPTION")
		for _, inc := range incidents {
			fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\n", inc.Number, inc.State, inc.OpenedAt.Format("2006-01-02 15:04"), inc.AssignedTo, clip(inc.ShortDescription, 50))
		}
		return tw.Flush()
	},
}

func init() {
	incidentsListCmd.Flags().Int("limit", 20, "maximum number of incidents to list")
	incidentsCmd.AddCommand(incidentsListCmd)
}

// --- config ---

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Show or update configuration",
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show current configuration",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load()
		if err != nil {
			return err
		}

		for _, kv := range config.ShowAll(cfg) {
			fmt.Printf("  %s = %s\n", colorize(colorBold, kv.Key), kv.Value)
		}
		return nil
	},
}

var configSetCmd = &cobra.Command{
	Use:   "set <key> <value>",
	Short: "Set a configuration value",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		key, value := args[0], args[1]

		if err := config.SetKey(key, value); err != nil {
			return err
		}

		printSuccess("Set %s = %s", key, value)
		return nil
	},
}

func init() {
	configCmd.AddCommand(configShowCmd)
	configCmd.AddCommand(configSetCmd)
}

// --- helpers ---

func openStore() (*storage.Store, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}
	store, err := storage.Open(cfg.Storage.DataDir)
	if err != nil {
		return nil, fmt.Errorf("opening storage: %w", err)
	}
	return store, nil
}

func fetchURL(url string) (ingest.Document, error) {
	client := &http.Client{Timeout: 15 * time.Second}
	resp, err := client.Get(url)
	if err != nil {
		return ingest.Document{}, fmt.Errorf("fetching %s: %w", url, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return ingest.Document{}, fmt.Errorf("fetching %s: HTTP %d", url, resp.StatusCode)
	}
	return ingest.ExtractHTML(resp.Body)
}
