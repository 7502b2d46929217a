package report

import (
	"bytes"
	"testing"

	"agenda/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

func TestWriteMonthly(t *testing.T) {
	eventID := "evt-1"
	reservations := []models.Reservation{
		{
			ID: "r-1", Date: "2030-06-11", Room: "03", StartTime: "10:00", EndTime: "11:15",
			ProfessionalID: "011-K", ProfessionalName: "Yasmin Melo",
			UnitValue: 3800, PaymentMethod: models.PaymentAdvance, PaymentStatus: models.PaymentPaid,
			Status: models.StatusActive, GoogleEventID: &eventID,
		},
		{
			ID: "r-2", Date: "2030-06-12", Room: "01", StartTime: "09:00", EndTime: "10:00",
			ProfessionalID: "011-K", ProfessionalName: "Yasmin Melo",
			UnitValue: 3000, PaymentMethod: models.PaymentOnDay, PaymentStatus: models.PaymentPaid,
			Status: models.StatusCancelled, CancelledDate: "10/06/2030", CancelledTime: "12:00",
		},
		{
			ID: "r-3", Date: "2030-06-13", Room: "02", StartTime: "14:00", EndTime: "15:00",
			UnitValue: 3000, PaymentStatus: models.PaymentPending, Status: models.StatusActive,
		},
	}

	var buf bytes.Buffer
	require.NoError(t, WriteMonthly(&buf, 6, 2030, reservations))

	f, err := excelize.OpenReader(&buf)
	require.NoError(t, err)
	defer f.Close()

	assert.Equal(t, []string{reservationsSheet, summarySheet}, f.GetSheetList())

	rows, err := f.GetRows(reservationsSheet)
	require.NoError(t, err)
	require.Len(t, rows, 4)
	assert.Equal(t, reservationColumns, rows[0])
	assert.Equal(t, "r-1", rows[1][0])
	assert.Equal(t, "38", rows[1][9])
	assert.Equal(t, "evt-1", rows[1][15])
	assert.Equal(t, "10/06/2030 12:00", rows[2][14])

	summary, err := f.GetRows(summarySheet)
	require.NoError(t, err)
	require.Len(t, summary, 4)
	assert.Equal(t, "Reservas 06/2030", summary[0][0])
	assert.Equal(t, summaryColumns, summary[1])
	assert.Equal(t, []string{"-", "", "1", "0", "0"}, summary[2])
	assert.Equal(t, []string{"011-K", "Yasmin Melo", "1", "1", "38"}, summary[3])
}

func TestFilename(t *testing.T) {
	assert.Equal(t, "reservas_2030_06.xlsx", Filename(6, 2030))
}
