package tui

import (
	"github.com/mattn/go-runewidth"

	"snake-client/constants"
	"snake-client/input"
	"snake-client/render"
	"snake-client/session"
)

const (
	boardTop  = 2
	boardLeft = 0
	// Each grid cell is two columns wide so the board looks square.
	cellWidth = 2
)

var (
	foodAttr  = Colour(render.FoodColor.Cube())
	frameAttr = AttrBold
)

// drawText writes s at (x, y) and returns the column after it.
func drawText(s Screen, x, y int, text string, fg, bg Attr) int {
	for _, r := range text {
		s.SetCell(x, y, r, fg, bg)
		x += runewidth.RuneWidth(r)
	}
	return x
}

func drawButton(s Screen, x, y int, label string, enabled bool) int {
	fg := AttrReverse
	if !enabled {
		fg = AttrDefault
	}
	return drawText(s, x, y, "["+label+"]", fg, AttrDefault)
}

type actionKind int

const (
	actMove actionKind = iota
	actReady
	actRestart
)

type action struct {
	kind   actionKind
	button input.Button
}

// region is a clickable span [x0, x1) on row y.
type region struct {
	x0, x1, y int
	act       action
}

// Layout lists the clickable buttons of the last drawn view.
type Layout []region

func (l Layout) at(x, y int) (action, bool) {
	for _, r := range l {
		if y == r.y && x >= r.x0 && x < r.x1 {
			return r.act, true
		}
	}
	return action{}, false
}

// Draw paints one view and returns where its enabled buttons are. It only
// reads v.
func Draw(s Screen, v session.View) Layout {
	var layout Layout
	s.Clear()
	drawText(s, 0, 0, render.Title, AttrBold, AttrDefault)

	size := constants.MAP_SIZE
	drawBoard(s, v, size)

	panel := boardLeft + size*cellWidth + 4
	y := boardTop

	if v.ShowMatchingPanel {
		drawText(s, panel, y, render.MatchingLine(v.Current, v.Required), AttrDefault, AttrDefault)
		y++
		end := drawButton(s, panel, y, render.ReadyButton(v.Ready), v.ReadyEnabled)
		if v.ReadyEnabled {
			layout = append(layout, region{panel, end, y, action{kind: actReady}})
		}
		y += 2
	}
	if render.ShowWaitingTip(v.Snapshot) {
		drawText(s, panel, y, render.WaitingTip, AttrDefault, AttrDefault)
		y += 2
	}
	if render.ShowGameOverTip(v.Snapshot) {
		drawText(s, panel, y, render.GameOverTip, AttrBold, AttrDefault)
		y += 2
	}
	if v.ShowRankings {
		drawText(s, panel, y, render.GameOverTitle, AttrBold, AttrDefault)
		y++
		for _, line := range render.RankingLines(v.Rankings) {
			drawText(s, panel, y, line, AttrDefault, AttrDefault)
			y++
		}
		end := drawButton(s, panel, y, render.RestartLabel, true)
		layout = append(layout, region{panel, end, y, action{kind: actRestart}})
		y += 2
	}
	if v.ShowVirtualInput {
		layout = append(layout, drawControls(s, panel, y)...)
	}
	return layout
}

func drawBoard(s Screen, v session.View, size int) {
	width := size * cellWidth
	for x := -1; x <= width; x++ {
		s.SetCell(boardLeft+1+x, boardTop-1, '─', frameAttr, AttrDefault)
		s.SetCell(boardLeft+1+x, boardTop+size, '─', frameAttr, AttrDefault)
	}
	for y := 0; y < size; y++ {
		s.SetCell(boardLeft, boardTop+y, '│', frameAttr, AttrDefault)
		s.SetCell(boardLeft+width+1, boardTop+y, '│', frameAttr, AttrDefault)
	}

	grid := render.Frame(v.Snapshot, size)
	for y, row := range grid {
		for x, cell := range row {
			var bg Attr
			switch cell.Kind {
			case render.Empty:
				continue
			case render.Food:
				bg = foodAttr
			case render.Head:
				bg = Colour(render.HeadColor(cell.SnakeID).Cube())
			case render.Body:
				bg = Colour(render.SnakeColor(cell.SnakeID).Cube())
			}
			for i := 0; i < cellWidth; i++ {
				s.SetCell(boardLeft+1+x*cellWidth+i, boardTop+y, ' ', AttrDefault, bg)
			}
		}
	}
}

// drawControls lays out the on-screen arrows: up alone, then left down right.
func drawControls(s Screen, x, y int) Layout {
	up, rest := input.Buttons[0], input.Buttons[1:]
	end := drawButton(s, x+4, y, up.Label(), true)
	layout := Layout{{x + 4, end, y, action{kind: actMove, button: up}}}
	col := x
	for _, b := range rest {
		end = drawButton(s, col, y+1, b.Label(), true)
		layout = append(layout, region{col, end, y + 1, action{kind: actMove, button: b}})
		col = end + 1
	}
	return layout
}
