// Package render turns a session view into display data: a cell grid, the
// text labels, and snake colours. It does no I/O.
package render

import (
	"fmt"
	"strconv"

	"snake-client/models"
)

const (
	Title         = "多人贪吃蛇游戏"
	ReadyLabel    = "准备开始"
	ReadiedLabel  = "已准备"
	WaitingTip    = "等待玩家加入..."
	GameOverTip   = "游戏结束！"
	GameOverTitle = "游戏结束"
	RestartLabel  = "重新开始"
)

func MatchingLine(current, required uint) string {
	return fmt.Sprintf("匹配玩家: %d/%d", current, required)
}

func ReadyButton(ready bool) string {
	if ready {
		return ReadiedLabel
	}
	return ReadyLabel
}

// RankingLines formats rankings in the order given, numbered from 1.
func RankingLines(rankings []models.Ranking) []string {
	lines := make([]string, 0, len(rankings))
	for i, r := range rankings {
		lines = append(lines, "第"+strconv.Itoa(i+1)+"名: 蛇"+strconv.FormatUint(uint64(r.SnakeID), 10)+" - "+strconv.FormatUint(uint64(r.Score), 10)+"分")
	}
	return lines
}

// ShowWaitingTip is true before the round starts while nobody has a snake.
func ShowWaitingTip(snap *models.GameState) bool {
	return snap == nil || (!snap.GameStarted && len(snap.Snakes) == 0)
}

func ShowGameOverTip(snap *models.GameState) bool {
	return snap != nil && snap.GameOver
}

type CellKind int

const (
	Empty CellKind = iota
	Food
	Head
	Body
)

type Cell struct {
	Kind    CellKind
	SnakeID uint
}

// Frame rasterizes a snapshot onto a size×size grid indexed [y][x]. Snakes
// are drawn in order, head first, then food on top. Positions outside the
// grid are skipped. A non-positive size yields no grid.
func Frame(snap *models.GameState, size int) [][]Cell {
	if size <= 0 {
		return nil
	}
	grid := make([][]Cell, size)
	for y := range grid {
		grid[y] = make([]Cell, size)
	}
	if snap == nil {
		return grid
	}

	for _, s := range snap.Snakes {
		for i, p := range s.Body {
			if !p.InBounds(size) {
				continue
			}
			kind := Body
			if i == 0 {
				kind = Head
			}
			grid[p.Y][p.X] = Cell{Kind: kind, SnakeID: s.ID}
		}
	}
	for _, f := range snap.Foods {
		if f.Position.InBounds(size) {
			grid[f.Position.Y][f.Position.X] = Cell{Kind: Food}
		}
	}
	return grid
}
