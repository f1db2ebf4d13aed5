package main

import (
	"fmt"
	"strconv"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"

	"github.com/joseph-ayodele/biodata-tracker/internal/entity"
)

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

	columnConfigs := make([]table.ColumnConfig, 0, columns)
	for i := 0; i < columns; i++ {
		align := text.AlignLeft
		if i < len(aligns) && aligns[i] == alignRight {
			align = text.AlignRight
		}
		columnConfigs = append(columnConfigs, table.ColumnConfig{
			Number:      i + 1,
			Align:       align,
			AlignHeader: text.AlignLeft,
		})
	}
	tw.SetColumnConfigs(columnConfigs)

	return tw.Render()
}

// renderJob prints a job's items followed by a one-line summary.
func renderJob(snap entity.JobSnapshot) string {
	rows := make([][]string, 0, len(snap.Items))
	for _, it := range snap.Items {
		rows = append(rows, []string{
			strconv.Itoa(it.Index + 1),
			it.Filename,
			string(it.Status),
			it.ProfileID,
			it.Error,
		})
	}
	out := renderTable(
		[]string{"#", "File", "Status", "Profile", "Error"},
		rows,
		[]columnAlignment{alignRight, alignLeft, alignLeft, alignLeft, alignLeft},
	)
	return out + fmt.Sprintf("\nJob %s: %s, %d/%d processed, %d succeeded, %d failed (%.1f%%)\n",
		snap.JobID, snap.Status, snap.Processed, snap.Total, snap.Successful, snap.Failed, snap.ProgressPercent)
}
