package views

import (
	"context"
	"fmt"
	"io"
	"sort"

	"github.com/atinyakov/codepath/internal/models"
	"github.com/xuri/excelize/v2"
)

// ProgressRow is the mastery of one skill, joined with its name.
type ProgressRow struct {
	SkillID   models.ID
	Skill     string
	PKnow     float64
	Exposures int
}

// Progress shows per-skill mastery.
type Progress struct {
	API  API
	data Remote[[]ProgressRow]
}

func (p *Progress) Load(ctx context.Context) error {
	return p.data.Load(ctx, p.fetch)
}

func (p *Progress) fetch(ctx context.Context) ([]ProgressRow, error) {
	mastery, err := p.API.Mastery(ctx)
	if err != nil {
		return nil, err
	}
	skills, err := p.API.Skills(ctx, "")
	if err != nil {
		return nil, err
	}
	names := make(map[models.ID]string, len(skills))
	for _, s := range skills {
		names[s.ID] = s.Name
	}

	rows := make([]ProgressRow, 0, len(mastery))
	for _, m := range mastery {
		name, ok := names[m.SkillID]
		if !ok {
			name = "skill " + m.SkillID.String()
		}
		rows = append(rows, ProgressRow{SkillID: m.SkillID, Skill: name, PKnow: m.PKnow, Exposures: m.Exposures})
	}
	sort.SliceStable(rows, func(i, j int) bool { return rows[i].PKnow > rows[j].PKnow })
	return rows, nil
}

func (p *Progress) Render(w io.Writer) error {
	return renderRemote(w, &p.data, "Progress", func(w io.Writer, rows []ProgressRow) error {
		if len(rows) == 0 {
			_, err := fmt.Fprintln(w, "No progress yet. Take a quiz to get started.")
			return err
		}
		tw := newTable(w)
		fmt.Fprintln(tw, "SKILL\tMASTERY\tEXPOSURES")
		for _, r := range rows {
			fmt.Fprintf(tw, "%s\t%5.1f%%\t%d\n", r.Skill, r.PKnow*100, r.Exposures)
		}
		return tw.Flush()
	})
}

// ProgressSheet is the worksheet Export writes to.
const ProgressSheet = "Sheet1"

// Export writes the loaded progress to an XLSX file at path.
func (p *Progress) Export(path string) error {
	status, rows, _ := p.data.Snapshot()
	if status != Loaded {
		return fmt.Errorf("progress is %s, nothing to export", status)
	}

	f := excelize.NewFile()
	defer f.Close()

	header := []any{"Skill ID", "Skill", "Mastery", "Exposures"}
	if err := writeRow(f, 1, header); err != nil {
		return err
	}
	for i, r := range rows {
		if err := writeRow(f, i+2, []any{r.SkillID.String(), r.Skill, r.PKnow, r.Exposures}); err != nil {
			return err
		}
	}
	if err := f.SaveAs(path); err != nil {
		return fmt.Errorf("failed to save progress workbook: %w", err)
	}
	return nil
}

func writeRow(f *excelize.File, row int, values []any) error {
	for col, v := range values {
		cell, err := excelize.CoordinatesToCellName(col+1, row)
		if err != nil {
			return err
		}
		if err := f.SetCellValue(ProgressSheet, cell, v); err != nil {
			return fmt.Errorf("failed to set %s: %w", cell, err)
		}
	}
	return nil
}
