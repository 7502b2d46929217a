package report

import (
	"errors"
	"fmt"
	"io"
	"sort"

	"agenda/internal/models"

	"github.com/xuri/excelize/v2"
)

const (
	reservationsSheet = "Reservas"
	summarySheet      = "Resumo"
	maxSheetName      = 31
)

var reservationColumns = []string{
	"ID", "Data", "Sala", "Início", "Fim", "Duração (min)", "Acréscimo (min)",
	"ID Profissional", "Profissional", "Valor unitário", "Crédito usado",
	"Forma de pagamento", "Pagamento", "Situação", "Cancelada em", "Evento Google",
}

var summaryColumns = []string{"ID Profissional", "Profissional", "Reservas ativas", "Canceladas", "Total pago"}

// sheetWriter appends rows to the sheets of one workbook.
type sheetWriter struct {
	file         *excelize.File
	currentSheet string
	currentRow   int
	headerStyle  int
}

func newSheetWriter() (*sheetWriter, error) {
	f := excelize.NewFile()
	style, err := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true},
		Fill: excelize.Fill{Type: "pattern", Color: []string{"DDEBF7"}, Pattern: 1},
	})
	if err != nil {
		_ = f.Close()
		return nil, err
	}
	return &sheetWriter{file: f, headerStyle: style}, nil
}

func (w *sheetWriter) addSheet(name string) error {
	if len(name) > maxSheetName {
		name = name[:maxSheetName]
	}
	if w.currentSheet == "" {
		if err := w.file.SetSheetName("Sheet1", name); err != nil {
			return err
		}
	} else if _, err := w.file.NewSheet(name); err != nil {
		return fmt.Errorf("create sheet %s: %w", name, err)
	}
	w.currentSheet = name
	w.currentRow = 1
	return nil
}

func (w *sheetWriter) writeHeader(columns []string) error {
	if err := w.writeRow(toRow(columns)); err != nil {
		return err
	}
	start, _ := excelize.CoordinatesToCellName(1, w.currentRow-1)
	end, _ := excelize.CoordinatesToCellName(len(columns), w.currentRow-1)
	if err := w.file.SetCellStyle(w.currentSheet, start, end, w.headerStyle); err != nil {
		return err
	}
	return w.file.SetPanes(w.currentSheet, &excelize.Panes{
		Freeze:      true,
		YSplit:      w.currentRow - 1,
		TopLeftCell: fmt.Sprintf("A%d", w.currentRow),
		ActivePane:  "bottomLeft",
	})
}

func (w *sheetWriter) writeRow(row []any) error {
	if w.currentSheet == "" {
		return errors.New("no active sheet")
	}
	cell, err := excelize.CoordinatesToCellName(1, w.currentRow)
	if err != nil {
		return err
	}
	if err := w.file.SetSheetRow(w.currentSheet, cell, &row); err != nil {
		return err
	}
	w.currentRow++
	return nil
}

func toRow(values []string) []any {
	row := make([]any, len(values))
	for i, v := range values {
		row[i] = v
	}
	return row
}

type professionalTotals struct {
	id        string
	name      string
	active    int
	cancelled int
	paid      models.Money
}

// WriteMonthly writes an XLSX workbook with every reservation of the month and
// a per-professional summary sheet.
func WriteMonthly(out io.Writer, month, year int, reservations []models.Reservation) error {
	w, err := newSheetWriter()
	if err != nil {
		return err
	}
	defer w.file.Close()

	if err := w.addSheet(reservationsSheet); err != nil {
		return err
	}
	if err := w.writeHeader(reservationColumns); err != nil {
		return err
	}

	totals := make(map[string]*professionalTotals)
	for i := range reservations {
		r := &reservations[i]
		cancelledAt := ""
		if r.CancelledDate != "" {
			cancelledAt = r.CancelledDate + " " + r.CancelledTime
		}
		row := []any{
			r.ID, r.Date, r.Room, r.StartTime, r.EndTime, r.DurationMinutes, r.ExtraMinutes,
			r.ProfessionalID, r.ProfessionalName, r.UnitValue.Float64(), r.CreditUsed.Float64(),
			string(r.PaymentMethod), string(r.PaymentStatus), string(r.Status), cancelledAt, r.EventID(),
		}
		if err := w.writeRow(row); err != nil {
			return err
		}

		key := r.ProfessionalID
		if key == "" {
			key = "-"
		}
		t, ok := totals[key]
		if !ok {
			t = &professionalTotals{id: key, name: r.ProfessionalName}
			totals[key] = t
		}
		if r.IsActive() {
			t.active++
			if r.IsPaid() {
				t.paid += r.UnitValue
			}
		} else {
			t.cancelled++
		}
	}

	if err := w.addSheet(summarySheet); err != nil {
		return err
	}
	if err := w.writeRow([]any{fmt.Sprintf("Reservas %02d/%04d", month, year)}); err != nil {
		return err
	}
	if err := w.writeHeader(summaryColumns); err != nil {
		return err
	}

	keys := make([]string, 0, len(totals))
	for k := range totals {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		t := totals[k]
		if err := w.writeRow([]any{t.id, t.name, t.active, t.cancelled, t.paid.Float64()}); err != nil {
			return err
		}
	}

	idx, err := w.file.GetSheetIndex(reservationsSheet)
	if err == nil {
		w.file.SetActiveSheet(idx)
	}
	return w.file.Write(out)
}

// Filename is the download name of a monthly export.
func Filename(month, year int) string {
	return fmt.Sprintf("reservas_%04d_%02d.xlsx", year, month)
}
