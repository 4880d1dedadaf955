// Package export renders the registered accounts as tables, for the admin
// row listing and the Excel roster download.
package export

import (
	"context"
	"fmt"
	"io"
	"strconv"
	"time"

	"github.com/xuri/excelize/v2"

	"nexus/cmd/identity"
)

// Source lists the three account tables. identity.Store satisfies it.
type Source interface {
	ListStudents(ctx context.Context) ([]identity.Student, error)
	ListAlumni(ctx context.Context) ([]identity.Alumni, error)
	ListAdmins(ctx context.Context) ([]identity.Admin, error)
}

// Sheet is one table. Password hashes are never included.
type Sheet struct {
	Table  string     `json:"table"`
	Header []string   `json:"header"`
	Rows   [][]string `json:"rows"`
}

const dateLayout = "2006-01-02 15:04:05"

// Table returns the rows of one account table by name.
func Table(ctx context.Context, src Source, table string) (Sheet, error) {
	switch table {
	case identity.TableStudents:
		rows, err := src.ListStudents(ctx)
		if err != nil {
			return Sheet{}, err
		}
		sh := Sheet{Table: table, Header: []string{"id", "name", "college", "email", "department", "graduation_year", "degree", "registration_date"}}
		for _, s := range rows {
			sh.Rows = append(sh.Rows, []string{s.ID, s.Name, s.College, s.Email, s.Department, strconv.Itoa(s.GraduationYear), s.Degree, stamp(s.RegistrationDate)})
		}
		return sh, nil

	case identity.TableAlumni:
		rows, err := src.ListAlumni(ctx)
		if err != nil {
			return Sheet{}, err
		}
		sh := Sheet{Table: table, Header: []string{"id", "name", "college", "email", "department", "graduation_year", "degree", "profile_image", "registration_date"}}
		for _, a := range rows {
			img := ""
			if a.ProfileImage != nil {
				img = *a.ProfileImage
			}
			sh.Rows = append(sh.Rows, []string{a.ID, a.Name, a.College, a.Email, a.Department, strconv.Itoa(a.GraduationYear), a.Degree, img, stamp(a.RegistrationDate)})
		}
		return sh, nil

	case identity.TableAdmins:
		rows, err := src.ListAdmins(ctx)
		if err != nil {
			return Sheet{}, err
		}
		sh := Sheet{Table: table, Header: []string{"admin_code", "name", "college", "email", "department_section", "registration_date"}}
		for _, a := range rows {
			sh.Rows = append(sh.Rows, []string{a.ID, a.Name, a.College, a.Email, a.DepartmentSection, stamp(a.RegistrationDate)})
		}
		return sh, nil
	}
	return Sheet{}, identity.NotFoundError{Op: "export.Table", Resource: "table"}
}

// Tables returns every account table in identity.TableNames order.
func Tables(ctx context.Context, src Source) ([]Sheet, error) {
	names := identity.TableNames()
	out := make([]Sheet, 0, len(names))
	for _, name := range names {
		sh, err := Table(ctx, src, name)
		if err != nil {
			return nil, err
		}
		out = append(out, sh)
	}
	return out, nil
}

func stamp(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.UTC().Format(dateLayout)
}

// Workbook builds an .xlsx file with one sheet per table.
func Workbook(sheets []Sheet) (*excelize.File, error) {
	f := excelize.NewFile()

	bold, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		_ = f.Close()
		return nil, fmt.Errorf("header style: %w", err)
	}

	for i, sh := range sheets {
		if i == 0 {
			if err := f.SetSheetName("Sheet1", sh.Table); err != nil {
				_ = f.Close()
				return nil, fmt.Errorf("rename sheet: %w", err)
			}
		} else if _, err := f.NewSheet(sh.Table); err != nil {
			_ = f.Close()
			return nil, fmt.Errorf("new sheet: %w", err)
		}

		if err := writeSheet(f, sh, bold); err != nil {
			_ = f.Close()
			return nil, err
		}
	}
	return f, nil
}

func writeSheet(f *excelize.File, sh Sheet, headerStyle int) error {
	if len(sh.Header) == 0 {
		return nil
	}

	header := make([]any, len(sh.Header))
	for i, h := range sh.Header {
		header[i] = h
	}
	if err := f.SetSheetRow(sh.Table, "A1", &header); err != nil {
		return fmt.Errorf("%s header: %w", sh.Table, err)
	}

	for r, row := range sh.Rows {
		cells := make([]any, len(row))
		for i, v := range row {
			cells[i] = v
		}
		cell, err := excelize.CoordinatesToCellName(1, r+2)
		if err != nil {
			return err
		}
		if err := f.SetSheetRow(sh.Table, cell, &cells); err != nil {
			return fmt.Errorf("%s row %d: %w", sh.Table, r+1, err)
		}
	}

	last, err := excelize.ColumnNumberToName(len(sh.Header))
	if err != nil {
		return err
	}
	_ = f.SetCellStyle(sh.Table, "A1", last+"1", headerStyle)
	_ = f.AutoFilter(sh.Table, "A1:"+last+"1", nil)

	for c := range sh.Header {
		width := len(sh.Header[c])
		for r := 0; r < min(50, len(sh.Rows)); r++ {
			if c < len(sh.Rows[r]) && len(sh.Rows[r][c]) > width {
				width = len(sh.Rows[r][c])
			}
		}
		col, _ := excelize.ColumnNumberToName(c + 1)
		_ = f.SetColWidth(sh.Table, col, col, max(12, min(40, float64(width)*0.9)))
	}
	return nil
}

// WriteRoster writes the Excel roster of all accounts to w.
func WriteRoster(ctx context.Context, src Source, w io.Writer) error {
	sheets, err := Tables(ctx, src)
	if err != nil {
		return err
	}
	f, err := Workbook(sheets)
	if err != nil {
		return err
	}
	defer func() { _ = f.Close() }()

	_, err = f.WriteTo(w)
	return err
}

// Filename is the download name for a roster generated at now.
func Filename(now time.Time) string {
	return fmt.Sprintf("nexus_roster_%s.xlsx", now.Format("2006-01-02"))
}
