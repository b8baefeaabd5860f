package usecase

import (
	"bytes"
	"context"
	"fmt"
	"strings"

	"zaanjob-backend/internal/domain"
	"zaanjob-backend/pkg/apperror"

	"github.com/xuri/excelize/v2"
)

const exportSheet = "Resumes"

var exportColumns = []struct {
	header string
	value  func(r domain.Resume) interface{}
}{
	{"FULL NAME", func(r domain.Resume) interface{} { return r.FullName }},
	{"TITLE", func(r domain.Resume) interface{} { return r.Title }},
	{"LOCATION", func(r domain.Resume) interface{} { return r.Location }},
	{"EMAIL", func(r domain.Resume) interface{} { return r.Email }},
	{"PHONE", func(r domain.Resume) interface{} { return r.Phone }},
	{"NATIONALITY", func(r domain.Resume) interface{} { return r.Nationality }},
	{"YEARS OF EXPERIENCE", func(r domain.Resume) interface{} { return r.YearsOfExperience }},
	{"EDUCATION LEVEL", func(r domain.Resume) interface{} { return r.EducationLevel }},
	{"SKILLS", func(r domain.Resume) interface{} { return strings.Join(r.Skills, ", ") }},
	{"VIEWS", func(r domain.Resume) interface{} { return r.Views }},
	{"CONTACTS", func(r domain.Resume) interface{} { return r.Contacts }},
	{"SLUG", func(r domain.Resume) interface{} { return r.Slug }},
	{"CREATED AT", func(r domain.Resume) interface{} { return r.CreatedAt.Format("2006-01-02 15:04") }},
}

// Export renders the filtered directory as an XLSX workbook. Admins only.
func (u *resumeUsecase) Export(ctx context.Context, filter domain.ResumeFilter) ([]byte, string, error) {
	if domain.UserIDFrom(ctx) == "" {
		return nil, "", apperror.Unauthorized("User not authenticated")
	}
	if domain.RoleFrom(ctx) != domain.RoleAdmin {
		u.secLog.LogForbidden(ctx, domain.UserIDFrom(ctx), "resumes", "export")
		return nil, "", apperror.Forbidden("Only administrators can export resumes")
	}

	filter.Limit = clampLimit(filter.Limit)
	resumes, err := u.repo.List(ctx, filter)
	if err != nil {
		return nil, "", mapRepoError(err)
	}

	f := excelize.NewFile()
	defer f.Close()
	f.SetSheetName("Sheet1", exportSheet)

	for i, col := range exportColumns {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		f.SetCellValue(exportSheet, cell, col.header)
	}

	headerStyle, _ := f.NewStyle(&excelize.Style{
		Font:      &excelize.Font{Bold: true, Color: "#FFFFFF"},
		Fill:      excelize.Fill{Type: "pattern", Pattern: 1, Color: []string{"#8E3B5F"}},
		Alignment: &excelize.Alignment{Horizontal: "center"},
	})
	endCell, _ := excelize.CoordinatesToCellName(len(exportColumns), 1)
	f.SetCellStyle(exportSheet, "A1", endCell, headerStyle)

	for rowIdx, r := range resumes {
		for colIdx, col := range exportColumns {
			cell, _ := excelize.CoordinatesToCellName(colIdx+1, rowIdx+2)
			f.SetCellValue(exportSheet, cell, col.value(r))
		}
	}

	for i := range exportColumns {
		colName, _ := excelize.ColumnNumberToName(i + 1)
		f.SetColWidth(exportSheet, colName, colName, 22)
	}

	var buf bytes.Buffer
	if err := f.Write(&buf); err != nil {
		return nil, "", apperror.Internal(fmt.Errorf("failed to write Excel file: %w", err))
	}

	filename := fmt.Sprintf("zaanjob_resumes_%s.xlsx", u.now().Format("20060102_150405"))
	return buf.Bytes(), filename, nil
}
