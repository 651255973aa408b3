package report

import (
	"fmt"
	"io"
	"os"

	"github.com/johnfercher/maroto/pkg/color"
	"github.com/johnfercher/maroto/pkg/consts"
	"github.com/johnfercher/maroto/pkg/pdf"
	"github.com/johnfercher/maroto/pkg/props"
)

var (
	headers      = []string{"Date", "Project", "Description", "Duration"}
	gridSizes    = []uint{2, 3, 5, 2}
	alternatedBg = &color.Color{Red: 240, Green: 240, Blue: 240}
)

func tableProps() props.TableList {
	return props.TableList{
		HeaderProp: props.TableListContent{
			Size:      10,
			GridSizes: gridSizes,
		},
		ContentProp: props.TableListContent{
			Size:      9,
			GridSizes: gridSizes,
		},
		Align:                consts.Left,
		AlternatedBackground: alternatedBg,
		HeaderContentSpace:   1,
		Line:                 false,
	}
}

// WritePDF renders rep as an A4 document.
func WritePDF(w io.Writer, rep Report) error {
	m := pdf.NewMaroto(consts.Portrait, consts.A4)
	m.SetPageMargins(20, 10, 20)

	m.RegisterHeader(func() {
		m.Row(10, func() {
			m.Col(12, func() {
				m.Text(rep.Title, props.Text{
					Top:   3,
					Style: consts.Bold,
					Align: consts.Center,
					Size:  16,
				})
			})
		})
		m.Row(10, func() {
			m.Col(12, func() {
				m.Text(rep.dateRange(), props.Text{
					Top:   3,
					Style: consts.Normal,
					Align: consts.Center,
					Size:  12,
				})
			})
		})
	})

	if len(rep.Projects) > 0 {
		m.Row(10, func() {
			m.Col(12, func() {
				m.Text("Projects", props.Text{Top: 5, Style: consts.Bold, Size: 14})
			})
		})
		rows := make([][]string, 0, len(rep.Projects))
		for _, p := range rep.Projects {
			rows = append(rows, []string{p.Name, fmt.Sprintf("%d", p.Records), rep.duration(p.Duration)})
		}
		m.TableList([]string{"Project", "Records", "Duration"}, rows, props.TableList{
			HeaderProp:           props.TableListContent{Size: 10, GridSizes: []uint{6, 3, 3}},
			ContentProp:          props.TableListContent{Size: 9, GridSizes: []uint{6, 3, 3}},
			Align:                consts.Left,
			AlternatedBackground: alternatedBg,
			HeaderContentSpace:   1,
		})
		m.Row(5, func() {})
	}

	m.Row(10, func() {
		m.Col(12, func() {
			m.Text("Records", props.Text{Top: 5, Style: consts.Bold, Size: 14})
		})
	})

	for _, sec := range rep.Sections {
		m.Row(10, func() {
			m.Col(12, func() {
				m.Text(sec.Title, props.Text{
					Top:   5,
					Style: consts.Bold,
					Size:  12,
					Align: consts.Left,
				})
			})
		})

		rows := make([][]string, 0, len(sec.Rows))
		for _, r := range sec.Rows {
			d := rep.duration(r.Duration)
			if r.Running {
				d += " *"
			}
			rows = append(rows, []string{r.Date, r.Project, r.Title, d})
		}
		m.TableList(headers, rows, tableProps())

		m.Row(10, func() {
			m.Col(12, func() {
				m.Text(fmt.Sprintf("Subtotal: %s", rep.duration(sec.Total)), props.Text{
					Style: consts.Bold,
					Align: consts.Right,
					Size:  10,
				})
			})
		})
		m.Row(5, func() {})
	}

	m.Row(20, func() {
		m.Col(12, func() {
			m.Text(fmt.Sprintf("Total time: %s", rep.duration(rep.Total)), props.Text{
				Top:   10,
				Style: consts.Bold,
				Align: consts.Right,
				Size:  12,
			})
		})
	})

	buf, err := m.Output()
	if err != nil {
		return fmt.Errorf("render pdf: %w", err)
	}
	_, err = buf.WriteTo(w)
	return err
}

// SavePDF writes the report to path.
func SavePDF(path string, rep Report) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := WritePDF(f, rep); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}
