package services

import (
	"bytes"
	"context"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

func TestExportService_PatientReport(t *testing.T) {
	env := newTestEnv(t)
	svc := NewExportService(env.repo, env.logger).(*exportService)
	svc.now = func() time.Time { return fixedNow }

	data, name, err := svc.PatientReport(context.Background(), env.user(t, "doctor-1"), "patient-1")
	require.NoError(t, err)
	assert.Equal(t, "patient-1-report-2024-02-01.xlsx", name)

	f, err := excelize.OpenReader(bytes.NewReader(data))
	require.NoError(t, err)
	defer f.Close()

	assert.Equal(t, []string{"Summary", "Assessments", "Risk Scores", "Medications", "Notes"}, f.GetSheetList())
	assert.Equal(t, 0, f.GetActiveSheetIndex())

	fullName, err := f.GetCellValue("Summary", "B3")
	require.NoError(t, err)
	assert.Equal(t, "John Smith", fullName)

	risk, err := f.GetCellValue("Summary", "B8")
	require.NoError(t, err)
	assert.Equal(t, "high", risk)

	rows, err := f.GetRows("Risk Scores")
	require.NoError(t, err)
	require.Len(t, rows, 4)
	assert.Equal(t, []string{"Assessment ID", "Date", "Disease", "Score", "Confidence", "Level"}, rows[0])
	assert.Equal(t, "Alzheimer's", rows[1][2])
	assert.Equal(t, "72", rows[1][3])

	rows, err = f.GetRows("Medications")
	require.NoError(t, err)
	assert.Len(t, rows, 5)

	rows, err = f.GetRows("Notes")
	require.NoError(t, err)
	require.Len(t, rows, 4)
	assert.True(t, strings.HasPrefix(rows[1][3], "Patient presents"))
}

func TestExportService_RequiresDoctor(t *testing.T) {
	env := newTestEnv(t)
	svc := NewExportService(env.repo, env.logger)

	_, _, err := svc.PatientReport(context.Background(), env.user(t, "patient-1"), "patient-1")
	assert.True(t, IsForbidden(err))

	_, _, err = svc.PatientReport(context.Background(), env.user(t, "doctor-1"), "patient-7")
	assert.ErrorIs(t, err, ErrPatientNotFound)
}
