package tui

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/x/ansi"
)

// canvas is a fixed-size grid of cells painted back to front and rendered
// as runs of equally styled cells.
type canvas struct {
	w, h   int
	cells  []cell
	styles []lipgloss.Style
	keys   map[string]int
}

type cell struct {
	ch    rune
	style int
}

func newCanvas(w, h int, bg lipgloss.Style) *canvas {
	c := &canvas{
		w:     max(w, 0),
		h:     max(h, 0),
		keys:  make(map[string]int),
		cells: make([]cell, max(w, 0)*max(h, 0)),
	}
	idx := c.style("bg", bg)
	for i := range c.cells {
		c.cells[i] = cell{ch: ' ', style: idx}
	}
	return c
}

// style registers s under key and returns its index. The first registration
// of a key wins.
func (c *canvas) style(key string, s lipgloss.Style) int {
	if i, ok := c.keys[key]; ok {
		return i
	}
	c.styles = append(c.styles, s)
	c.keys[key] = len(c.styles) - 1
	return len(c.styles) - 1
}

func (c *canvas) set(x, y int, ch rune, style int) {
	if x < 0 || y < 0 || x >= c.w || y >= c.h {
		return
	}
	c.cells[y*c.w+x] = cell{ch: ch, style: style}
}

// fill paints the rectangle [x0,x1) x [y0,y1) with blanks.
func (c *canvas) fill(x0, y0, x1, y1 int, style int) {
	for y := max(y0, 0); y < min(y1, c.h); y++ {
		for x := max(x0, 0); x < min(x1, c.w); x++ {
			c.cells[y*c.w+x] = cell{ch: ' ', style: style}
		}
	}
}

// text writes s at (x, y), truncated to width cells, keeping the style of
// the cells underneath.
func (c *canvas) text(x, y, width int, s string) {
	if y < 0 || y >= c.h || width <= 0 {
		return
	}
	s = ansi.Truncate(s, width, "…")
	for _, r := range s {
		if x >= c.w || width <= 0 {
			return
		}
		if x >= 0 {
			c.cells[y*c.w+x].ch = r
		}
		x++
		width--
	}
}

func (c *canvas) render() string {
	var b strings.Builder
	var run strings.Builder
	for y := 0; y < c.h; y++ {
		if y > 0 {
			b.WriteByte('\n')
		}
		row := c.cells[y*c.w : (y+1)*c.w]
		for x := 0; x < len(row); {
			style := row[x].style
			run.Reset()
			for x < len(row) && row[x].style == style {
				run.WriteRune(row[x].ch)
				x++
			}
			b.WriteString(c.styles[style].Render(run.String()))
		}
	}
	return b.String()
}
