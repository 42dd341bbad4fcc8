package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/kjk/history/history"
)

var addCmd = &cobra.Command{
	Use:   "add <file>",
	Short: "Append an item to a history file",
	Example: `  histdump add History.xml --filename a.png --url https://i.example.com/a.png
  histdump add History.xml --filename notes.txt --filepath /tmp/notes.txt --type Text`,
	Args: cobra.ExactArgs(1),
	RunE: runAdd,
}

var (
	addItem    history.Item
	flgAddDate string
)

func init() {
	f := addCmd.Flags()
	f.StringVar(&addItem.Filename, "filename", "", "file name (required)")
	f.StringVar(&addItem.Filepath, "filepath", "", "local path of the file")
	f.StringVar(&flgAddDate, "date", "", "date in RFC 3339 format, now if empty")
	f.StringVar(&addItem.Type, "type", "", "type e.g. Image, Text, File")
	f.StringVar(&addItem.Host, "host", "", "name of upload destination")
	f.StringVar(&addItem.URL, "url", "", "url of uploaded file")
	f.StringVar(&addItem.ThumbnailURL, "thumbnail-url", "", "url of thumbnail")
	f.StringVar(&addItem.DeletionURL, "deletion-url", "", "url that deletes uploaded file")
	f.StringVar(&addItem.ShortenedURL, "shortened-url", "", "shortened url")
	rootCmd.AddCommand(addCmd)
}

func runAdd(cmd *cobra.Command, args []string) error {
	it := addItem
	it.DateTime = time.Now().UTC()
	if flgAddDate != "" {
		t, err := time.Parse(time.RFC3339, flgAddDate)
		if err != nil {
			return fmt.Errorf("invalid --date '%s': %w", flgAddDate, err)
		}
		it.DateTime = t.UTC()
	}
	if err := history.Validate(&it); err != nil {
		return err
	}
	s := history.NewStore(args[0])
	if !s.AppendItem(&it) {
		return fmt.Errorf("failed to append to '%s'", args[0])
	}
	fmt.Printf("appended '%s' to '%s'\n", it.Filename, args[0])
	return nil
}
