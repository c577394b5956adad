package console

import (
	"fmt"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"

	"github.com/mkessler/fakesight-go/internal/detector"
)

func renderTable(headers []string, rows [][]string, rightAligned ...int) string {
	tw := table.NewWriter()
	tw.SetStyle(table.StyleRounded)

	header := make(table.Row, len(headers))
	for i, h := range headers {
		header[i] = h
	}
	tw.AppendHeader(header)

	for _, row := range rows {
		r := make(table.Row, len(row))
		for i, cell := range row {
			r[i] = cell
		}
		tw.AppendRow(r)
	}

	right := make(map[int]bool, len(rightAligned))
	for _, col := range rightAligned {
		right[col] = true
	}
	configs := make([]table.ColumnConfig, 0, len(headers))
	for i := range headers {
		align := text.AlignLeft
		if right[i] {
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

// MetricsTable renders the evaluation scores and confusion matrix.
func MetricsTable(m detector.Metrics) string {
	cm := m.Confusion
	rows := [][]string{
		{"Accuracy", fmt.Sprintf("%.4f", m.Accuracy)},
		{"Precision", fmt.Sprintf("%.4f", m.Precision)},
		{"Recall", fmt.Sprintf("%.4f", m.Recall)},
		{"F1 Score", fmt.Sprintf("%.4f", m.F1)},
		{"True Real (TN)", fmt.Sprintf("%d", cm.TrueReal)},
		{"False Fake (FP)", fmt.Sprintf("%d", cm.FalseFake)},
		{"False Real (FN)", fmt.Sprintf("%d", cm.FalseReal)},
		{"True Fake (TP)", fmt.Sprintf("%d", cm.TrueFake)},
	}
	return renderTable([]string{"Metric", "Value"}, rows, 1)
}

// ModelsTable renders the loaded models with their resolved parameters.
func ModelsTable(infos []detector.ModelInfo) string {
	rows := make([][]string, 0, len(infos))
	for _, info := range infos {
		adapted := "no"
		if info.Adapted {
			adapted = "yes"
		}
		source := "default"
		if info.HasSidecar {
			source = "sidecar"
		}
		rows = append(rows, []string{
			info.Name,
			string(info.Arch),
			adapted,
			fmt.Sprintf("%.3f", info.Threshold),
			source,
		})
	}
	return renderTable([]string{"Model", "Architecture", "Adapted", "Threshold", "Source"}, rows, 3)
}
