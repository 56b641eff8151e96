package game

import (
	"strconv"
	"strings"
)

// Two display columns per cell; entries with several pairs are indexed by player.
var trailChars = map[string][]rune{
	"UNKNOWN": []rune("? "),
	"EMPTY":   []rune("  "),
	"FILL":    []rune("⋅ ◆ ⋅ ◇ ⋅ ○ "),

	"STARTEND": []rune("0 1 2 "),

	"LEFTEND":  []rune("◄━◄═◄─"),
	"RIGHTEND": []rune("► "),
	"UPEND":    []rune("▲ "),
	"DOWNEND":  []rune("▼ "),

	"STARTLEFT":  []rune("0 1 2 "),
	"STARTRIGHT": []rune("0━1═2─"),
	"STARTUP":    []rune("0 1 2 "),
	"STARTDOWN":  []rune("0 1 2 "),

	"LEFTLEFT":   []rune("━━══──"),
	"RIGHTRIGHT": []rune("━━══──"),

	"LEFTUP":    []rune("┗━╚═└─"),
	"DOWNRIGHT": []rune("┗━╚═└─"),

	"LEFTDOWN": []rune("┏━╔═┌─"),
	"UPRIGHT":  []rune("┏━╔═┌─"),

	"RIGHTUP":  []rune("┛ ╝ ┘ "),
	"DOWNLEFT": []rune("┛ ╝ ┘ "),

	"RIGHTDOWN": []rune("┓ ╗ ┐ "),
	"UPLEFT":    []rune("┓ ╗ ┐ "),

	"UPUP":     []rune("┃ ║ │ "),
	"DOWNDOWN": []rune("┃ ║ │ "),
}

func pick(chars []rune, i int) string {
	if i+2 > len(chars) {
		i = 0
	}
	return string(chars[i : i+2])
}

func trailGlyph(player int, tail, head Dir) string {
	key := "START"
	if tail != NoDir {
		key = tail.String()
	}
	if head != NoDir {
		key += head.String()
	} else {
		key += "END"
	}
	chars, ok := trailChars[key]
	if !ok {
		chars = trailChars["UNKNOWN"]
	}
	return pick(chars, player*2)
}

// String draws live trails with box characters over the shading of the most
// recent floodfill, followed by the occupied/total cell count.
func (g *Game) String() string {
	grid := g.Grid
	canvas := make([]string, grid.Size)
	for i := range canvas {
		c := &grid.cells[i]
		if c.Owner == NoPlayer || c.Epoch != grid.epoch || grid.epoch == 0 {
			canvas[i] = pick(trailChars["EMPTY"], 0)
			continue
		}
		border := 0
		if c.Distance%5 == 0 {
			border = 2
		}
		canvas[i] = pick(trailChars["FILL"], c.Owner*4+border)
	}

	for i, p := range g.Players {
		if p.Dead {
			continue
		}
		head := NoCell
		headDir := NoDir
		tail := p.Cell
		tailDir := grid.cells[tail].Dir
		for steps := 0; steps < p.TrailLength; steps++ {
			if head != NoCell {
				tail = grid.UnsafeShift(headDir.Opposite(), head)
				tailDir = grid.cells[tail].Dir
			}
			canvas[tail] = trailGlyph(i, tailDir, headDir)
			if tailDir == NoDir {
				break
			}
			head = tail
			headDir = tailDir
		}
	}

	var sb strings.Builder
	sb.WriteString("┌╴\n")
	for y := 0; y < grid.Height; y++ {
		sb.WriteString("  ")
		for x := 0; x < grid.Width; x++ {
			cell := canvas[y*grid.Width+x]
			if x == grid.Width-1 {
				r := []rune(cell)
				cell = string(r[:len(r)-1])
			}
			sb.WriteString(cell)
		}
		sb.WriteByte('\n')
	}
	sb.WriteString(strings.Repeat("  ", grid.Width))
	sb.WriteString(" ╶┘\n")
	sb.WriteString(strconv.Itoa(g.NonEmptyCount()))
	sb.WriteByte('/')
	sb.WriteString(strconv.Itoa(grid.Size))
	return sb.String()
}
