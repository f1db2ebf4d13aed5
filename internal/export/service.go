package export

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"time"

	"github.com/xuri/excelize/v2"

	"github.com/joseph-ayodele/biodata-tracker/constants"
	"github.com/joseph-ayodele/biodata-tracker/internal/common"
	"github.com/joseph-ayodele/biodata-tracker/internal/entity"
	"github.com/joseph-ayodele/biodata-tracker/internal/repository"
)

// Service produces XLSX workbooks (as bytes) for profile and batch exports.
type Service struct {
	profileRepo repository.ProfileRepository
	logger      *slog.Logger
}

func NewService(repo repository.ProfileRepository, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{profileRepo: repo, logger: logger}
}

var profileHeaders = []string{
	"ID", "Status", "Confidence", "Name", "Age", "Gender", "Marital Status",
	"Religion", "Caste", "Education", "Occupation", "City", "State", "Country",
	"Contact", "Email", "Original File", "Updated At",
}

// ProfilesXLSX writes every profile with the given status, or all profiles
// when status is empty, newest first.
func (s *Service) ProfilesXLSX(ctx context.Context, status string) ([]byte, error) {
	start := time.Now()

	var filter repository.ProfileFilter
	if status != "" {
		st, ok := constants.ParseOCRStatus(status)
		if !ok {
			return nil, common.InvalidInputf("unknown status %q", status)
		}
		filter.Statuses = []constants.OCRStatus{st}
	}
	profiles, err := s.profileRepo.ListAll(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("query profiles: %w", err)
	}

	f, sheet, err := newWorkbook("Profiles", profileHeaders)
	if err != nil {
		return nil, err
	}
	defer func() { _ = f.Close() }()

	for i, p := range profiles {
		row := i + 2
		write := func(col int, v any) {
			cell, _ := excelize.CoordinatesToCellName(col, row)
			_ = f.SetCellValue(sheet, cell, v)
		}
		fl := p.Fields

		write(1, p.ID)
		write(2, string(p.OCRStatus))
		if p.OCRConfidence != nil {
			write(3, *p.OCRConfidence)
		}
		write(4, entity.Str(fl.Name))
		if fl.Age != nil {
			write(5, *fl.Age)
		}
		if fl.Gender != nil {
			write(6, string(*fl.Gender))
		}
		if fl.Marital != nil {
			write(7, string(*fl.Marital))
		}
		write(8, entity.Str(fl.Religion))
		write(9, entity.Str(fl.Caste))
		write(10, entity.Str(fl.Education))
		write(11, entity.Str(fl.Occupation))
		write(12, entity.Str(fl.CurrentCity))
		write(13, entity.Str(fl.State))
		write(14, entity.Str(fl.Country))
		write(15, entity.Str(fl.Contact))
		write(16, entity.Str(fl.Email))
		write(17, p.OriginalFilename)
		write(18, p.UpdatedAt.Format(time.RFC3339))
	}

	_ = f.SetColWidth(sheet, "A", "A", 38) // id
	_ = f.SetColWidth(sheet, "D", "D", 24) // name
	_ = f.SetColWidth(sheet, "J", "K", 28)
	_ = f.SetColWidth(sheet, "Q", "R", 26)

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("xlsx write: %w", err)
	}
	s.logger.Info("export.xlsx.ok",
		"status", status,
		"rows", len(profiles),
		"elapsed_ms", time.Since(start).Milliseconds(),
	)
	return buf.Bytes(), nil
}

var jobHeaders = []string{"#", "File", "Status", "Profile ID", "Error"}

// JobXLSX writes a per-item report for a batch job, followed by its totals.
func JobXLSX(snap entity.JobSnapshot) ([]byte, error) {
	f, sheet, err := newWorkbook("Batch", jobHeaders)
	if err != nil {
		return nil, err
	}
	defer func() { _ = f.Close() }()

	row := 2
	for _, it := range snap.Items {
		_ = f.SetSheetRow(sheet, "A"+strconv.Itoa(row), &[]any{it.Index + 1, it.Filename, string(it.Status), it.ProfileID, it.Error})
		row++
	}
	row++
	summary := [][]any{
		{"Job", snap.JobID},
		{"Status", string(snap.Status)},
		{"Total", snap.Total},
		{"Successful", snap.Successful},
		{"Failed", snap.Failed},
		{"Progress %", snap.ProgressPercent},
	}
	for _, r := range summary {
		_ = f.SetSheetRow(sheet, "A"+strconv.Itoa(row), &r)
		row++
	}

	_ = f.SetColWidth(sheet, "B", "B", 32)
	_ = f.SetColWidth(sheet, "D", "D", 38)
	_ = f.SetColWidth(sheet, "E", "E", 60)

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("xlsx write: %w", err)
	}
	return buf.Bytes(), nil
}

func newWorkbook(sheet string, headers []string) (*excelize.File, string, error) {
	f := excelize.NewFile()
	if index, _ := f.GetSheetIndex(sheet); index == -1 {
		if _, err := f.NewSheet(sheet); err != nil {
			return nil, "", err
		}
	}
	activeIndex, _ := f.GetSheetIndex(sheet)
	f.SetActiveSheet(activeIndex)
	_ = f.DeleteSheet("Sheet1")

	for i, h := range headers {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		_ = f.SetCellValue(sheet, cell, h)
	}
	return f, sheet, nil
}
