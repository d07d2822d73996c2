package main

import (
	"fmt"
	"io"
	"os"
	"strconv"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"
	"github.com/mattn/go-isatty"
)

// isTerminal reports whether w is an interactive terminal.
func isTerminal(w io.Writer) bool {
	file, ok := w.(*os.File)
	if !ok {
		return false
	}
	fd := file.Fd()
	return isatty.IsTerminal(fd) || isatty.IsCygwinTerminal(fd)
}

// renderBooks writes books numbered from 1. Terminals get a table, other
// writers get the four lines form of each book.
func renderBooks(w io.Writer, books []BookRecord, asTable bool) {
	if asTable {
		fmt.Fprintln(w, renderBooksTable(books))
		return
	}
	for i, b := range books {
		fmt.Fprintf(w, "\nBook #%d:\n%s\n", i+1, b)
	}
}

func renderBooksTable(books []BookRecord) string {
	tw := table.NewWriter()
	tw.SetStyle(table.StyleRounded)
	tw.AppendHeader(table.Row{"#", "Title", "Author", "Year", "Genre"})
	for i, b := range books {
		tw.AppendRow(table.Row{strconv.Itoa(i + 1), b.Title(), b.Author(), strconv.Itoa(b.PublicationYear()), b.Genre()})
	}
	tw.SetColumnConfigs([]table.ColumnConfig{
		{Number: 1, Align: text.AlignRight, AlignHeader: text.AlignLeft},
		{Number: 4, Align: text.AlignRight, AlignHeader: text.AlignLeft},
	})
	return tw.Render()
}
