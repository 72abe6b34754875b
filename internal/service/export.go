package service

import (
	"context"
	"fmt"

	"github.com/ecodeclub/ekit/slice"
	"github.com/xuri/excelize/v2"

	"github.com/ctf-scoreboard/internal/domain"
)

const sheetName = "Scoreboard"

// ExportSheet renders the game's current scoreboard as an xlsx workbook
func (s *ScoreboardService) ExportSheet(ctx context.Context, gameID int64) ([]byte, error) {
	game, err := s.repo.GetGame(ctx, gameID)
	if err != nil {
		return nil, err
	}
	sb, err := s.GetScoreboard(ctx, gameID)
	if err != nil {
		return nil, err
	}
	return BuildScoreboardSheet(game, sb)
}

// BuildScoreboardSheet lays out one row per ranked team and one column per
// challenge, grouped by tag in scoreboard order. Unsolved challenges are
// left blank.
func BuildScoreboardSheet(game domain.Game, sb *domain.Scoreboard) ([]byte, error) {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", sheetName); err != nil {
		return nil, fmt.Errorf("naming sheet: %w", err)
	}

	var challenges []domain.ChallengeInfo
	for _, group := range sb.Challenges {
		challenges = append(challenges, group.Challenges...)
	}

	headers := []string{"Rank", "Team"}
	if game.HasOrganizations() {
		headers = append(headers, "Organization", "Organization Rank")
	}
	headers = append(headers, "Solved", "Score")
	fixed := len(headers)
	headers = append(headers, slice.Map(challenges, func(_ int, c domain.ChallengeInfo) string {
		return fmt.Sprintf("[%s] %s", c.Tag, c.Title)
	})...)

	if err := writeRow(f, 1, toCells(headers)); err != nil {
		return nil, err
	}

	column := make(map[int64]int, len(challenges))
	for i, c := range challenges {
		column[c.ID] = fixed + i
	}

	for i, item := range sb.Items {
		row := make([]any, len(headers))
		row[0] = item.Rank
		row[1] = item.Name
		next := 2
		if game.HasOrganizations() {
			if item.Organization != nil {
				row[2] = *item.Organization
			}
			if item.OrganizationRank != nil {
				row[3] = *item.OrganizationRank
			}
			next = 4
		}
		row[next] = item.SolvedCount
		row[next+1] = item.Score

		for _, ci := range item.Challenges {
			col, ok := column[ci.ID]
			if !ok || ci.Type == domain.SubmissionUnaccepted {
				continue
			}
			row[col] = ci.Score
		}

		if err := writeRow(f, i+2, row); err != nil {
			return nil, err
		}
	}

	header, err := f.NewStyle(&excelize.Style{
		Font:      &excelize.Font{Bold: true},
		Alignment: &excelize.Alignment{Horizontal: "center", Vertical: "center"},
	})
	if err == nil {
		last, _ := excelize.CoordinatesToCellName(len(headers), 1)
		_ = f.SetCellStyle(sheetName, "A1", last, header)
	}
	_ = f.SetColWidth(sheetName, "B", "B", 24)

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("writing workbook: %w", err)
	}
	return buf.Bytes(), nil
}

func writeRow(f *excelize.File, row int, values []any) error {
	for col, v := range values {
		if v == nil {
			continue
		}
		cell, err := excelize.CoordinatesToCellName(col+1, row)
		if err != nil {
			return fmt.Errorf("addressing cell: %w", err)
		}
		if err := f.SetCellValue(sheetName, cell, v); err != nil {
			return fmt.Errorf("writing cell %s: %w", cell, err)
		}
	}
	return nil
}

func toCells(values []string) []any {
	return slice.Map(values, func(_ int, v string) any { return v })
}
