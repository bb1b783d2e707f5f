// Package export 生成看板和候选人列表的 Excel 报表
package export

import (
	"fmt"
	"io"
	"strings"
	"time"
	"unicode/utf8"

	"resume-match-go/internal/constants"
	"resume-match-go/internal/storage"
	"resume-match-go/internal/storage/models"

	"github.com/xuri/excelize/v2"
)

const (
	summarySheet = "Summary"
	jobsSheet    = "Jobs"

	// ContentType xlsx 的 MIME 类型
	ContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

	maxSheetName = 31
)

var candidateHeaders = []string{"Candidate", "Email", "Resume", "Score", "Verdict", "Shortlisted", "Missing Skills", "Summary", "Source", "Uploaded"}

// JobSheet 一个岗位及其候选人列表
type JobSheet struct {
	Job        models.Job
	Candidates []storage.CandidateWithAnalysis
}

type styles struct {
	header      int
	label       int
	shortlisted int
	rejected    int
	wrap        int
}

func newStyles(f *excelize.File) (*styles, error) {
	border := []excelize.Border{
		{Type: "left", Color: "000000", Style: 1},
		{Type: "right", Color: "000000", Style: 1},
		{Type: "top", Color: "000000", Style: 1},
		{Type: "bottom", Color: "000000", Style: 1},
	}
	var (
		s   styles
		err error
	)
	if s.header, err = f.NewStyle(&excelize.Style{
		Font:      &excelize.Font{Bold: true, Color: "FFFFFF"},
		Fill:      excelize.Fill{Type: "pattern", Color: []string{"4472C4"}, Pattern: 1},
		Alignment: &excelize.Alignment{Horizontal: "center", Vertical: "center"},
		Border:    border,
	}); err != nil {
		return nil, err
	}
	if s.label, err = f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}}); err != nil {
		return nil, err
	}
	if s.shortlisted, err = f.NewStyle(&excelize.Style{
		Fill:   excelize.Fill{Type: "pattern", Color: []string{"C6EFCE"}, Pattern: 1},
		Border: border,
	}); err != nil {
		return nil, err
	}
	if s.rejected, err = f.NewStyle(&excelize.Style{
		Fill:   excelize.Fill{Type: "pattern", Color: []string{"FFC7CE"}, Pattern: 1},
		Border: border,
	}); err != nil {
		return nil, err
	}
	if s.wrap, err = f.NewStyle(&excelize.Style{
		Alignment: &excelize.Alignment{WrapText: true, Vertical: "top"},
		Border:    border,
	}); err != nil {
		return nil, err
	}
	return &s, nil
}

// WriteDashboard 写出看板报表：汇总页、岗位统计页，以及每个岗位一页候选人
func WriteDashboard(w io.Writer, stats *storage.DashboardStats, jobs []JobSheet, generatedAt time.Time) error {
	f := excelize.NewFile()
	defer f.Close()

	st, err := newStyles(f)
	if err != nil {
		return fmt.Errorf("创建单元格样式失败: %w", err)
	}

	if err := f.SetSheetName("Sheet1", summarySheet); err != nil {
		return err
	}
	if err := writeSummary(f, st, stats, generatedAt); err != nil {
		return fmt.Errorf("写入汇总页失败: %w", err)
	}

	if _, err := f.NewSheet(jobsSheet); err != nil {
		return err
	}
	if err := writeJobStats(f, st, stats.Jobs); err != nil {
		return fmt.Errorf("写入岗位统计页失败: %w", err)
	}

	used := map[string]bool{summarySheet: true, jobsSheet: true}
	for _, js := range jobs {
		name := uniqueSheetName(fmt.Sprintf("%d %s", js.Job.ID, js.Job.Title), used)
		if _, err := f.NewSheet(name); err != nil {
			return err
		}
		if err := writeCandidates(f, st, name, js.Candidates); err != nil {
			return fmt.Errorf("写入岗位 %d 候选人页失败: %w", js.Job.ID, err)
		}
	}

	f.SetActiveSheet(0)
	return f.Write(w)
}

// WriteCandidates 写出单个岗位的候选人列表
func WriteCandidates(w io.Writer, job models.Job, rows []storage.CandidateWithAnalysis) error {
	f := excelize.NewFile()
	defer f.Close()

	st, err := newStyles(f)
	if err != nil {
		return fmt.Errorf("创建单元格样式失败: %w", err)
	}
	name := uniqueSheetName(job.Title, map[string]bool{})
	if err := f.SetSheetName("Sheet1", name); err != nil {
		return err
	}
	if err := writeCandidates(f, st, name, rows); err != nil {
		return err
	}
	return f.Write(w)
}

func writeSummary(f *excelize.File, st *styles, stats *storage.DashboardStats, generatedAt time.Time) error {
	sheet := summarySheet
	if err := f.SetColWidth(sheet, "A", "A", 28); err != nil {
		return err
	}
	if err := f.SetColWidth(sheet, "B", "B", 24); err != nil {
		return err
	}

	if err := f.SetCellValue(sheet, "A1", "Resume Match Dashboard"); err != nil {
		return err
	}
	if err := f.MergeCell(sheet, "A1", "B1"); err != nil {
		return err
	}
	if err := f.SetCellStyle(sheet, "A1", "B1", st.header); err != nil {
		return err
	}

	rows := [][2]any{
		{"Generated:", generatedAt.Format("2006-01-02 15:04:05")},
		{"Total Jobs:", stats.TotalJobs},
		{"Total Candidates:", stats.TotalCandidates},
		{"Shortlisted:", stats.ShortlistedCount},
		{"Shortlist Threshold:", constants.ShortlistThreshold},
	}
	for i, r := range rows {
		row := i + 3
		if err := f.SetCellValue(sheet, cell("A", row), r[0]); err != nil {
			return err
		}
		if err := f.SetCellStyle(sheet, cell("A", row), cell("A", row), st.label); err != nil {
			return err
		}
		if err := f.SetCellValue(sheet, cell("B", row), r[1]); err != nil {
			return err
		}
	}
	return nil
}

func writeJobStats(f *excelize.File, st *styles, jobs []storage.JobStats) error {
	sheet := jobsSheet
	headers := []string{"Job ID", "Title", "Company", "Applicants", "Shortlisted", "Rejected", "Avg Score", "Created"}
	if err := writeHeader(f, st, sheet, headers); err != nil {
		return err
	}
	widths := []float64{8, 30, 24, 12, 12, 12, 12, 20}
	for i, wd := range widths {
		col := colName(i)
		if err := f.SetColWidth(sheet, col, col, wd); err != nil {
			return err
		}
	}

	for i, j := range jobs {
		row := i + 2
		var avg any = "N/A"
		if j.AvgScore != nil {
			avg = *j.AvgScore
		}
		values := []any{j.JobID, j.Title, j.Company, j.Applicants, j.Shortlisted, j.Rejected, avg, j.CreatedAt.Format("2006-01-02 15:04")}
		if err := f.SetSheetRow(sheet, cell("A", row), &values); err != nil {
			return err
		}
	}
	return freezeHeader(f, sheet)
}

func writeCandidates(f *excelize.File, st *styles, sheet string, rows []storage.CandidateWithAnalysis) error {
	if err := writeHeader(f, st, sheet, candidateHeaders); err != nil {
		return err
	}
	widths := []float64{24, 28, 24, 8, 10, 12, 30, 60, 10, 18}
	for i, wd := range widths {
		col := colName(i)
		if err := f.SetColWidth(sheet, col, col, wd); err != nil {
			return err
		}
	}

	last := colName(len(candidateHeaders) - 1)
	for i, c := range rows {
		row := i + 2
		values := []any{
			c.Name,
			deref(c.Email),
			c.ResumeFilename,
			scoreCell(c.Score),
			deref(c.Verdict),
			yesNo(c.Analyzed(), c.Shortlisted()),
			strings.Join(c.MissingSkills, ", "),
			deref(c.Summary),
			deref(c.Source),
			c.CreatedAt.Format("2006-01-02 15:04"),
		}
		if err := f.SetSheetRow(sheet, cell("A", row), &values); err != nil {
			return err
		}

		style := st.wrap
		if c.Analyzed() {
			style = st.rejected
			if c.Shortlisted() {
				style = st.shortlisted
			}
		}
		if err := f.SetCellStyle(sheet, cell("A", row), cell(last, row), style); err != nil {
			return err
		}
	}

	if len(rows) > 0 {
		ref := fmt.Sprintf("A1:%s%d", last, len(rows)+1)
		if err := f.AutoFilter(sheet, ref, []excelize.AutoFilterOptions{}); err != nil {
			return err
		}
	}
	return freezeHeader(f, sheet)
}

func writeHeader(f *excelize.File, st *styles, sheet string, headers []string) error {
	for i, h := range headers {
		c := cell(colName(i), 1)
		if err := f.SetCellValue(sheet, c, h); err != nil {
			return err
		}
		if err := f.SetCellStyle(sheet, c, c, st.header); err != nil {
			return err
		}
	}
	return nil
}

func freezeHeader(f *excelize.File, sheet string) error {
	return f.SetPanes(sheet, &excelize.Panes{
		Freeze:      true,
		YSplit:      1,
		TopLeftCell: "A2",
		ActivePane:  "bottomLeft",
	})
}

func cell(col string, row int) string {
	return fmt.Sprintf("%s%d", col, row)
}

func colName(i int) string {
	name, _ := excelize.ColumnNumberToName(i + 1)
	return name
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

func scoreCell(score *int) any {
	if score == nil {
		return ""
	}
	return *score
}

func yesNo(analyzed, shortlisted bool) string {
	switch {
	case !analyzed:
		return "Not analyzed"
	case shortlisted:
		return "Yes"
	default:
		return "No"
	}
}

// uniqueSheetName 工作表名不能含 []:*?/\，最长 31 个字符且不能重复
func uniqueSheetName(name string, used map[string]bool) string {
	name = strings.Map(func(r rune) rune {
		if strings.ContainsRune(`[]:*?/\`, r) {
			return ' '
		}
		return r
	}, name)
	name = strings.Join(strings.Fields(name), " ")
	if name == "" {
		name = "Sheet"
	}
	name = truncateRunes(name, maxSheetName)

	candidate := name
	for i := 2; used[candidate]; i++ {
		suffix := fmt.Sprintf(" (%d)", i)
		candidate = truncateRunes(name, maxSheetName-len(suffix)) + suffix
	}
	used[candidate] = true
	return candidate
}

func truncateRunes(s string, n int) string {
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	return string([]rune(s)[:n])
}
