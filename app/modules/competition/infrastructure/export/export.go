// Package competitionexport renders standings as XLSX workbooks and PNG charts.
package competitionexport

import (
	"bytes"
	"fmt"
	"strconv"

	competitiondomain "github.com/d2avids/rso-sub000/app/modules/competition/domain"
	"github.com/gosimple/slug"
	"github.com/wcharczuk/go-chart/v2"
	"github.com/wcharczuk/go-chart/v2/drawing"
	"github.com/xuri/excelize/v2"
)

const (
	SheetSolo   = "Solo"
	SheetTandem = "Tandem"

	// ContentTypeXLSX is the media type of Workbook output.
	ContentTypeXLSX = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
	ContentTypePNG  = "image/png"

	chartBars = 15
)

// FileName builds a transliterated ASCII download name from the competition
// name and metric.
func FileName(s *competitiondomain.Standings, ext string) string {
	return slug.Make(fmt.Sprintf("%s %s", s.CompetitionName, s.Metric)) + "." + ext
}

// Workbook writes the solo and tandem pools to separate sheets.
func Workbook(s *competitiondomain.Standings) ([]byte, error) {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName(f.GetSheetName(0), SheetSolo); err != nil {
		return nil, err
	}
	if _, err := f.NewSheet(SheetTandem); err != nil {
		return nil, err
	}

	header, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return nil, err
	}

	solo := [][]any{{"Место", "Отряд", "ID", "Балл"}}
	for _, r := range s.Solo {
		solo = append(solo, []any{r.Place, r.DetachmentName, int64(r.Detachment), r.Score})
	}
	tandem := [][]any{{"Место", "Наставник", "Младший отряд", "Балл"}}
	for _, r := range s.Tandem {
		tandem = append(tandem, []any{r.Place, r.MentorName, r.DetachmentName, r.Score})
	}

	for sheet, rows := range map[string][][]any{SheetSolo: solo, SheetTandem: tandem} {
		if err := writeRows(f, sheet, rows, header); err != nil {
			return nil, fmt.Errorf("failed to write sheet %s: %w", sheet, err)
		}
	}

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("failed to render workbook: %w", err)
	}
	return buf.Bytes(), nil
}

func writeRows(f *excelize.File, sheet string, rows [][]any, headerStyle int) error {
	for i, row := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		if err != nil {
			return err
		}
		if err := f.SetSheetRow(sheet, cell, &row); err != nil {
			return err
		}
	}
	if err := f.SetRowStyle(sheet, 1, 1, headerStyle); err != nil {
		return err
	}
	return f.SetColWidth(sheet, "B", "C", 32)
}

// Chart renders the top of the solo pool as a bar chart.
func Chart(s *competitiondomain.Standings) ([]byte, error) {
	rows := s.Solo
	if len(rows) > chartBars {
		rows = rows[:chartBars]
	}

	var top float64
	bars := make([]chart.Value, 0, len(rows))
	for _, r := range rows {
		bars = append(bars, chart.Value{
			Label: strconv.Itoa(r.Place) + ". " + r.DetachmentName,
			Value: r.Score,
		})
		top = max(top, r.Score)
	}
	if top == 0 {
		return placeholder(s.Title)
	}

	graph := chart.BarChart{
		Title:    fmt.Sprintf("%s (%s)", s.Title, s.Metric),
		Width:    1024,
		Height:   512,
		BarWidth: 40,
		Background: chart.Style{
			Padding: chart.Box{Top: 40, Bottom: 120},
		},
		XAxis: chart.Style{TextRotationDegrees: 45},
		YAxis: chart.YAxis{
			Range: &chart.ContinuousRange{Min: 0, Max: top * 1.1},
		},
		Bars: bars,
	}

	buf := bytes.NewBuffer(nil)
	if err := graph.Render(chart.PNG, buf); err != nil {
		return nil, fmt.Errorf("failed to render chart: %w", err)
	}
	return buf.Bytes(), nil
}

func placeholder(title string) ([]byte, error) {
	msg := "Нет данных: " + title
	graph := chart.Chart{
		Width:  400,
		Height: 200,
		Elements: []chart.Renderable{
			func(r chart.Renderer, cb chart.Box, _ chart.Style) {
				r.SetFontColor(drawing.ColorBlack)
				r.SetFontSize(12.0)
				tb := r.MeasureText(msg)
				r.Text(msg, (cb.Width()-tb.Width())/2, (cb.Height()+tb.Height())/2)
			},
		},
	}
	buf := bytes.NewBuffer(nil)
	if err := graph.Render(chart.PNG, buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
