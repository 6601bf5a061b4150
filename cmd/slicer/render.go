package main

import (
	"fmt"
	"strings"

	"github.com/gdamore/tcell/v2"

	"github.com/TheRealTwizzy/notification_ninja/game"
	"github.com/TheRealTwizzy/notification_ninja/scoreclient"
	"github.com/TheRealTwizzy/notification_ninja/scorekeeper"
)

// Terminal cells are roughly twice as tall as they are wide, so one cell maps
// to 10x20 viewport units.
const (
	cellWidth  = 10.0
	cellHeight = 20.0
)

type overlay int

const (
	overlayNone overlay = iota
	overlayLeaderboard
	overlayNamePrompt
)

// frame is everything one draw needs.
type frame struct {
	View      game.View
	Best      int
	Overlay   overlay
	Result    *game.Result
	Outcome   scorekeeper.Outcome
	NameInput string
	Board     []scoreclient.ScoreRow
	Status    string
}

var (
	styleBase    = tcell.StyleDefault.Background(tcell.NewRGBColor(26, 26, 46)).Foreground(tcell.ColorWhite)
	styleHUD     = tcell.StyleDefault.Background(tcell.NewRGBColor(15, 52, 96)).Foreground(tcell.ColorWhite).Bold(true)
	styleFolder  = styleBase.Foreground(tcell.NewRGBColor(254, 202, 87))
	styleTrail   = styleBase.Foreground(tcell.NewRGBColor(255, 255, 255)).Bold(true)
	styleOverlay = tcell.StyleDefault.Background(tcell.NewRGBColor(22, 33, 62)).Foreground(tcell.ColorWhite)
	styleAccent  = styleOverlay.Foreground(tcell.NewRGBColor(254, 202, 87)).Bold(true)
)

func viewportFor(cols, rows int) game.Viewport {
	return game.Viewport{Width: float64(cols) * cellWidth, Height: float64(rows) * cellHeight}
}

// pointAt is the center of cell (x, y) in viewport units.
func pointAt(x, y int) game.Point {
	return game.Point{X: (float64(x) + 0.5) * cellWidth, Y: (float64(y) + 0.5) * cellHeight}
}

func cellAt(p game.Point) (int, int) {
	return int(p.X / cellWidth), int(p.Y / cellHeight)
}

func render(s tcell.Screen, f frame) {
	cols, rows := s.Size()
	fill(s, 0, 0, cols, rows, styleBase)

	for _, folder := range f.View.Folders {
		x, y := cellAt(game.Point{X: folder.X, Y: folder.Y})
		drawText(s, x, y+1, styleFolder, "[#]")
		drawText(s, x, y+2, styleBase, truncate(folder.Title, 12))
	}
	for _, b := range f.View.Blocks {
		drawBlock(s, b)
	}
	for _, p := range f.View.Trail {
		x, y := cellAt(p)
		s.SetContent(x, y, '•', nil, styleTrail)
	}

	drawHUD(s, cols, f)

	switch {
	case f.Overlay == overlayNamePrompt:
		drawNamePrompt(s, cols, rows, f)
	case f.Overlay == overlayLeaderboard:
		drawLeaderboard(s, cols, rows, f)
	case f.View.Phase == game.PhaseWaiting:
		drawPanel(s, cols, rows, []string{
			"NOTIFICATION NINJA",
			"",
			"Drag with the left button held to slice notifications.",
			"Teal +10   Gold +25   Red -25 (expires in 8s)",
			"",
			"Enter: start   l: leaderboard   q: quit",
		})
	case f.View.Phase == game.PhasePaused:
		drawPanel(s, cols, rows, []string{
			"PAUSED",
			"",
			"Spawns speed up at 45s, 30s and 15s left.",
			"p: resume   x: stop   b: test block   q: quit",
		})
	case f.View.Phase == game.PhaseGameOver:
		drawGameOver(s, cols, rows, f)
	}

	if f.Status != "" {
		drawText(s, 1, rows-1, styleBase.Dim(true), truncate(f.Status, cols-2))
	}
}

func drawHUD(s tcell.Screen, cols int, f frame) {
	fill(s, 0, 0, cols, 1, styleHUD)
	v := f.View
	hud := fmt.Sprintf(" Score: %d   Time: %s   Speed: %s (x%d)   Best: %d",
		v.Score, game.FormatClock(v.TimeLeft), v.Difficulty, v.Multiplier, f.Best)
	if v.LastDelta != 0 && v.Phase == game.PhasePlaying {
		hud += fmt.Sprintf("   %+d", v.LastDelta)
	}
	drawText(s, 0, 0, styleHUD, truncate(hud, cols))
}

func drawBlock(s tcell.Screen, b game.Block) {
	x, y := cellAt(game.Point{X: b.X, Y: b.Y})
	w := int(b.Width() / cellWidth)
	h := int(b.Height() / cellHeight)
	if w < 6 {
		w = 6
	}
	if h < 2 {
		h = 2
	}

	style := tcell.StyleDefault.Background(tcell.GetColor(b.Color)).Foreground(tcell.ColorBlack)
	switch {
	case b.Sliced:
		style = style.Dim(true).StrikeThrough(true)
	case b.Exiting:
		style = style.Dim(true)
	case b.JustSpawned:
		style = style.Bold(true)
	}

	fill(s, x, y, w, h, style)
	drawText(s, x+1, y, style.Bold(true), truncate(iconFor(b.Category)+" "+b.Title, w-2))
	if h > 2 {
		drawText(s, x+1, y+1, style, truncate(b.Description, w-2))
	}
	drawText(s, x+1, y+h-1, style.Bold(true), fmt.Sprintf("%+d", b.Points))
}

func iconFor(c game.Category) string {
	switch c {
	case game.CategoryBonus:
		return "★"
	case game.CategorySpam:
		return "☠"
	default:
		return "✉"
	}
}

func drawGameOver(s tcell.Screen, cols, rows int, f frame) {
	lines := []string{"GAME OVER", ""}
	if f.Result != nil {
		lines = append(lines,
			fmt.Sprintf("Final score: %d", f.Result.Score),
			fmt.Sprintf("Sliced: %d   Spam hit: %d   Expired: %d", f.Result.Slices, f.Result.SpamSlices, f.Result.Expired),
		)
	}
	if f.Outcome.NewTopThree {
		lines = append(lines, "", fmt.Sprintf("New top-3 score! Rank #%d", f.Outcome.Rank))
	} else if f.Outcome.Rank > 0 {
		lines = append(lines, "", fmt.Sprintf("Local rank #%d", f.Outcome.Rank))
	}
	if f.Outcome.Submitted {
		lines = append(lines, "Score sent to the leaderboard.")
	}
	lines = append(lines, "", "Enter: play again   l: leaderboard   q: quit")
	drawPanel(s, cols, rows, lines)
}

func drawNamePrompt(s tcell.Screen, cols, rows int, f frame) {
	score := 0
	if f.Result != nil {
		score = f.Result.Score
	}
	drawPanel(s, cols, rows, []string{
		"SAVE YOUR SCORE",
		"",
		fmt.Sprintf("Score: %d", score),
		"Name: " + f.NameInput + "_",
		"",
		"Enter: submit   Esc: skip",
	})
}

func drawLeaderboard(s tcell.Screen, cols, rows int, f frame) {
	lines := []string{"LEADERBOARD", ""}
	if len(f.Board) == 0 {
		lines = append(lines, "No scores yet.")
	}
	for i, row := range f.Board {
		lines = append(lines, fmt.Sprintf("%2d. %-20s %6d", i+1, truncate(row.Name, 20), row.Score))
	}
	lines = append(lines, "", "l/Esc: close")
	drawPanel(s, cols, rows, lines)
}

// drawPanel centers lines in a box; the first line is the title.
func drawPanel(s tcell.Screen, cols, rows int, lines []string) {
	width := 0
	for _, line := range lines {
		if n := len([]rune(line)); n > width {
			width = n
		}
	}
	width += 4
	if width > cols {
		width = cols
	}
	height := len(lines) + 2
	x := (cols - width) / 2
	y := (rows - height) / 2
	if y < 1 {
		y = 1
	}

	fill(s, x, y, width, height, styleOverlay)
	for i, line := range lines {
		style := styleOverlay
		if i == 0 {
			style = styleAccent
		}
		drawText(s, x+2, y+1+i, style, truncate(line, width-4))
	}
}

func fill(s tcell.Screen, x, y, w, h int, style tcell.Style) {
	for row := y; row < y+h; row++ {
		for col := x; col < x+w; col++ {
			s.SetContent(col, row, ' ', nil, style)
		}
	}
}

func drawText(s tcell.Screen, x, y int, style tcell.Style, text string) {
	for i, r := range []rune(text) {
		s.SetContent(x+i, y, r, nil, style)
	}
}

func truncate(text string, max int) string {
	if max <= 0 {
		return ""
	}
	runes := []rune(text)
	if len(runes) <= max {
		return text
	}
	if max == 1 {
		return string(runes[:1])
	}
	return strings.TrimSpace(string(runes[:max-1])) + "…"
}
