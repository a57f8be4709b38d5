package main

import (
	"fmt"
	"time"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"

	"github.com/pders01/fwrdcast/internal/feed"
	"github.com/pders01/fwrdcast/internal/model"
)

const titleWidth = 60

type columnAlignment int

const (
	alignLeft columnAlignment = iota
	alignRight
)

func renderTable(headers []string, rows [][]string, aligns []columnAlignment) string {
	columns := len(headers)
	if columns == 0 {
		return ""
	}

	tw := table.NewWriter()
	tw.SetStyle(table.StyleRounded)

	header := make(table.Row, columns)
	for i := 0; i < columns; i++ {
		header[i] = headers[i]
	}
	tw.AppendHeader(header)

	for _, row := range rows {
		r := make(table.Row, columns)
		for i := 0; i < columns; i++ {
			if i < len(row) {
				r[i] = row[i]
			} else {
				r[i] = ""
			}
		}
		tw.AppendRow(r)
	}

	configs := make([]table.ColumnConfig, 0, columns)
	for i := 0; i < columns; i++ {
		align := text.AlignLeft
		if i < len(aligns) && aligns[i] == alignRight {
			align = text.AlignRight
		}
		configs = append(configs, table.ColumnConfig{
			Number:      i + 1,
			Align:       align,
			AlignHeader: text.AlignLeft,
		})
	}
	tw.SetColumnConfigs(configs)

	return tw.Render()
}

func articleFlags(a model.Article) string {
	flags := ""
	if a.Unread {
		flags += "●"
	}
	if a.Stared {
		flags += "★"
	}
	if a.IsPodcast() {
		flags += "♪"
	}
	return flags
}

func renderArticles(articles []model.Article) string {
	rows := make([][]string, 0, len(articles))
	for _, a := range articles {
		feedTitle := ""
		if a.Feed != nil {
			feedTitle = a.Feed.Title
		}
		rows = append(rows, []string{
			a.ID,
			articleFlags(a),
			text.Trim(a.Title, titleWidth),
			feedTitle,
			formatDate(a.OrderedAt),
		})
	}
	return renderTable(
		[]string{"ID", "", "Title", "Feed", "Date"},
		rows,
		[]columnAlignment{alignLeft, alignLeft, alignLeft, alignLeft, alignRight},
	)
}

func renderEpisodes(episodes []feed.Episode) string {
	rows := make([][]string, 0, len(episodes))
	for i, ep := range episodes {
		audio := ""
		if ep.EnclosureURL != "" {
			audio = "♪"
		}
		rows = append(rows, []string{
			fmt.Sprintf("%d", i+1),
			audio,
			text.Trim(ep.Title, titleWidth),
			formatDuration(ep.Duration),
			formatDate(ep.Published),
		})
	}
	return renderTable(
		[]string{"#", "", "Title", "Length", "Published"},
		rows,
		[]columnAlignment{alignRight, alignLeft, alignLeft, alignRight, alignRight},
	)
}

func formatDate(t time.Time) string {
	if t.IsZero() {
		return "-"
	}
	return t.Local().Format("2006-01-02 15:04")
}

func formatDuration(d time.Duration) string {
	if d <= 0 {
		return "-"
	}
	total := int(d.Seconds())
	h, m, s := total/3600, (total/60)%60, total%60
	if h > 0 {
		return fmt.Sprintf("%d:%02d:%02d", h, m, s)
	}
	return fmt.Sprintf("%d:%02d", m, s)
}
