package services

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/xuri/excelize/v2"

	"github.com/neurosense/assessment-service/internal/models"
	"github.com/neurosense/assessment-service/internal/repositories"
)

const reportDateFormat = "2006-01-02"

type exportService struct {
	repo   repositories.Repository
	logger *ServiceLogger
	now    func() time.Time
}

func NewExportService(repo repositories.Repository, logger *slog.Logger) ExportService {
	return &exportService{
		repo:   repo,
		logger: NewServiceLogger(logger, LogConfig{Service: "export", Component: "service"}),
		now:    time.Now,
	}
}

func (s *exportService) PatientReport(ctx context.Context, caller *models.User, patientID string) ([]byte, string, error) {
	op := s.logger.WithOperation(ctx, "export_patient_report", callerID(caller))

	data, err := s.patientReport(ctx, caller, patientID)
	op.LogResult(patientID, "patient_report", err)
	if err != nil {
		return nil, "", err
	}
	return data, fmt.Sprintf("%s-report-%s.xlsx", patientID, s.now().Format(reportDateFormat)), nil
}

func (s *exportService) patientReport(ctx context.Context, caller *models.User, patientID string) ([]byte, error) {
	if err := requireDoctor(caller, "patient_report", patientID, "export"); err != nil {
		return nil, err
	}
	patient, err := loadPatient(ctx, s.repo, caller, patientID, "export")
	if err != nil {
		return nil, err
	}

	assessments, err := s.repo.Assessments().ListByPatient(ctx, patientID)
	if err != nil {
		return nil, fmt.Errorf("failed to list assessments: %w", err)
	}
	medications, err := s.repo.Clinical().ListMedications(ctx, patientID)
	if err != nil {
		return nil, fmt.Errorf("failed to list medications: %w", err)
	}
	notes, err := s.repo.Clinical().ListNotes(ctx, patientID)
	if err != nil {
		return nil, fmt.Errorf("failed to list notes: %w", err)
	}

	f := excelize.NewFile()
	defer f.Close()

	sheets := []struct {
		name    string
		headers []string
		rows    [][]interface{}
	}{
		{"Summary", []string{"Field", "Value"}, summaryRows(patient, assessments)},
		{"Assessments", []string{"Assessment ID", "Date", "Status", "Overall Risk", "Interpretation", "Recommendations"}, assessmentRows(assessments)},
		{"Risk Scores", []string{"Assessment ID", "Date", "Disease", "Score", "Confidence", "Level"}, riskScoreRows(assessments)},
		{"Medications", []string{"Name", "Dosage", "Frequency", "Start Date", "End Date", "Status", "Prescribed By"}, medicationRows(medications)},
		{"Notes", []string{"Date", "Doctor", "Type", "Content"}, noteRows(notes)},
	}

	for i, sheet := range sheets {
		// The first sheet reuses the workbook's default one and stays active.
		if i == 0 {
			if err := f.SetSheetName(f.GetSheetName(0), sheet.name); err != nil {
				return nil, fmt.Errorf("failed to rename Excel sheet: %w", err)
			}
		} else if _, err := f.NewSheet(sheet.name); err != nil {
			return nil, fmt.Errorf("failed to create Excel sheet: %w", err)
		}
		if err := writeSheet(f, sheet.name, sheet.headers, sheet.rows); err != nil {
			return nil, err
		}
	}

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("failed to write Excel file: %w", err)
	}
	return buf.Bytes(), nil
}

func writeSheet(f *excelize.File, sheetName string, headers []string, rows [][]interface{}) error {
	for i, header := range headers {
		cell := fmt.Sprintf("%c1", 'A'+i)
		if err := f.SetCellValue(sheetName, cell, header); err != nil {
			return fmt.Errorf("failed to write header: %w", err)
		}
	}
	for rowIndex, row := range rows {
		for colIndex, value := range row {
			cell := fmt.Sprintf("%c%d", 'A'+colIndex, rowIndex+2)
			if err := f.SetCellValue(sheetName, cell, value); err != nil {
				return fmt.Errorf("failed to write cell %s: %w", cell, err)
			}
		}
	}
	return nil
}

func summaryRows(patient *models.User, assessments []*models.Assessment) [][]interface{} {
	risk := models.RiskNone
	lastDate := ""
	if len(assessments) > 0 {
		risk = assessments[0].OverallRisk()
		lastDate = assessments[0].Date.Format(reportDateFormat)
	}
	return [][]interface{}{
		{"Patient ID", patient.ID},
		{"Name", patient.FullName()},
		{"Email", patient.Email},
		{"Age", deref(patient.Age)},
		{"Gender", deref(patient.Gender)},
		{"Blood Type", deref(patient.BloodType)},
		{"Overall Risk", string(risk)},
		{"Assessments", len(assessments)},
		{"Last Assessment", lastDate},
	}
}

func assessmentRows(assessments []*models.Assessment) [][]interface{} {
	rows := make([][]interface{}, 0, len(assessments))
	for _, a := range assessments {
		rows = append(rows, []interface{}{
			a.ID,
			a.Date.Format(reportDateFormat),
			string(a.Status),
			string(a.OverallRisk()),
			a.AIInterpretation,
			strings.Join(a.Recommendations, "; "),
		})
	}
	return rows
}

func riskScoreRows(assessments []*models.Assessment) [][]interface{} {
	var rows [][]interface{}
	for _, a := range assessments {
		for _, r := range a.RiskScores {
			rows = append(rows, []interface{}{
				a.ID,
				a.Date.Format(reportDateFormat),
				string(r.Disease),
				r.Score,
				r.Confidence,
				string(r.Level),
			})
		}
	}
	return rows
}

func medicationRows(medications []*models.Medication) [][]interface{} {
	rows := make([][]interface{}, 0, len(medications))
	for _, m := range medications {
		end := ""
		if m.EndDate != nil {
			end = m.EndDate.Format(reportDateFormat)
		}
		rows = append(rows, []interface{}{
			m.Name,
			m.Dosage,
			m.Frequency,
			m.StartDate.Format(reportDateFormat),
			end,
			string(m.Status),
			deref(m.PrescribedBy),
		})
	}
	return rows
}

func noteRows(notes []*models.ClinicalNote) [][]interface{} {
	rows := make([][]interface{}, 0, len(notes))
	for _, n := range notes {
		rows = append(rows, []interface{}{
			n.Date.Format(reportDateFormat),
			n.DoctorName,
			string(n.NoteType),
			n.Content,
		})
	}
	return rows
}

func deref[T any](p *T) interface{} {
	if p == nil {
		return ""
	}
	return *p
}
