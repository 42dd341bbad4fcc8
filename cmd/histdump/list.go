package main

import (
	"encoding/json"
	"fmt"
	"os"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"
	"github.com/tidwall/pretty"

	"github.com/kjk/history/history"
)

var listCmd = &cobra.Command{
	Use:   "list <file>",
	Short: "List items in a history file",
	Example: `  histdump list ~/Documents/ShareX/History.xml
  histdump list History.xml --limit 20`,
	Args: cobra.ExactArgs(1),
	RunE: runList,
}

var flgListLimit int

var jsonCmd = &cobra.Command{
	Use:   "json <file>",
	Short: "Export history file as JSON",
	Args:  cobra.ExactArgs(1),
	RunE:  runJSON,
}

var flgJSONUgly bool

func init() {
	listCmd.Flags().IntVarP(&flgListLimit, "limit", "n", 0, "show only last n items, all if 0")
	jsonCmd.Flags().BoolVar(&flgJSONUgly, "ugly", false, "compact output, one line")
	rootCmd.AddCommand(listCmd)
	rootCmd.AddCommand(jsonCmd)
}

func formatDate(t time.Time) string {
	if t.IsZero() {
		return "-"
	}
	return t.Local().Format("2006-01-02 15:04:05")
}

func firstNonEmpty(a ...string) string {
	for _, s := range a {
		if s != "" {
			return s
		}
	}
	return "-"
}

func runList(cmd *cobra.Command, args []string) error {
	items, err := loadItems(args[0])
	if err != nil {
		return err
	}
	if flgListLimit > 0 && len(items) > flgListLimit {
		items = items[len(items)-flgListLimit:]
	}
	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "DATE\tTYPE\tHOST\tFILENAME\tLOCATION")
	for _, it := range items {
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\n", formatDate(it.DateTime), firstNonEmpty(it.Type), firstNonEmpty(it.Host), firstNonEmpty(it.Filename), firstNonEmpty(it.URL, it.Filepath))
	}
	if err = w.Flush(); err != nil {
		return err
	}
	fmt.Printf("%d items\n", len(items))
	return nil
}

type jsonItem struct {
	Filename     string `json:"filename,omitempty"`
	Filepath     string `json:"filepath,omitempty"`
	DateTime     string `json:"dateTimeUtc,omitempty"`
	Type         string `json:"type,omitempty"`
	Host         string `json:"host,omitempty"`
	URL          string `json:"url,omitempty"`
	ThumbnailURL string `json:"thumbnailUrl,omitempty"`
	DeletionURL  string `json:"deletionUrl,omitempty"`
	ShortenedURL string `json:"shortenedUrl,omitempty"`
}

func toJSONItem(it *history.Item) jsonItem {
	res := jsonItem{
		Filename:     it.Filename,
		Filepath:     it.Filepath,
		Type:         it.Type,
		Host:         it.Host,
		URL:          it.URL,
		ThumbnailURL: it.ThumbnailURL,
		DeletionURL:  it.DeletionURL,
		ShortenedURL: it.ShortenedURL,
	}
	if !it.DateTime.IsZero() {
		res.DateTime = it.DateTime.UTC().Format(time.RFC3339Nano)
	}
	return res
}

func runJSON(cmd *cobra.Command, args []string) error {
	items, err := loadItems(args[0])
	if err != nil {
		return err
	}
	out := make([]jsonItem, 0, len(items))
	for _, it := range items {
		out = append(out, toJSONItem(it))
	}
	d, err := json.Marshal(out)
	if err != nil {
		return err
	}
	if flgJSONUgly {
		d = pretty.Ugly(d)
		d = append(d, '\n')
	} else {
		d = pretty.Pretty(d)
	}
	_, err = os.Stdout.Write(d)
	return err
}
