// Package plot renders folds, score histories and score distributions with
// gonum/plot. The output format follows the file extension (.png, .svg,
// .pdf).
package plot

import (
	"fmt"
	"image/color"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/plotutil"
	"gonum.org/v1/plot/vg"
	"gonum.org/v1/plot/vg/draw"

	"plegma/internal/lattice"
)

var (
	backboneColor    = color.RGBA{R: 0x66, G: 0x66, B: 0x66, A: 0xff}
	hydrophobicColor = color.RGBA{R: 0xd6, G: 0x2b, B: 0x2b, A: 0xff}
	polarColor       = color.RGBA{R: 0x2b, G: 0x55, B: 0xd6, A: 0xff}
	cysteineColor    = color.RGBA{R: 0x2b, G: 0xa0, B: 0x46, A: 0xff}
	contactColor     = color.RGBA{R: 0xd6, G: 0x2b, B: 0x2b, A: 0x90}
	bridgeColor      = color.RGBA{R: 0x2b, G: 0xa0, B: 0x46, A: 0x90}
)

// Curve is one named series for ScoreCurves.
type Curve struct {
	Name   string
	Points []float64
}

// Fold draws a fully placed chain: the backbone polyline, residues colored
// by class and scoring contacts as dashed segments. 3D chains are projected
// onto the xy plane.
func Fold(chain *lattice.Chain, path string) error {
	positions, err := chain.Positions()
	if err != nil {
		return err
	}

	p := plot.New()
	p.Title.Text = fmt.Sprintf("%d residues, score %d", chain.Len(), chain.Score())
	if chain.Dims() == 3 {
		p.Title.Text += " (xy projection)"
	}
	p.HideAxes()

	backbone := make(plotter.XYs, len(positions))
	for i, pos := range positions {
		backbone[i].X = float64(pos.X)
		backbone[i].Y = float64(pos.Y)
	}
	line, err := plotter.NewLine(backbone)
	if err != nil {
		return err
	}
	line.LineStyle.Width = vg.Points(1.5)
	line.LineStyle.Color = backboneColor
	p.Add(line)

	for _, pair := range chain.ContactPairs() {
		a, b := positions[pair[0]], positions[pair[1]]
		segment := plotter.XYs{
			{X: float64(a.X), Y: float64(a.Y)},
			{X: float64(b.X), Y: float64(b.Y)},
		}
		contact, err := plotter.NewLine(segment)
		if err != nil {
			return err
		}
		contact.LineStyle.Dashes = []vg.Length{vg.Points(2), vg.Points(2)}
		contact.LineStyle.Color = contactColor
		if chain.Residue(pair[0]) == lattice.Cysteine && chain.Residue(pair[1]) == lattice.Cysteine {
			contact.LineStyle.Color = bridgeColor
		}
		p.Add(contact)
	}

	classes := []struct {
		name    string
		residue lattice.Residue
		color   color.RGBA
	}{
		{"H", lattice.Hydrophobic, hydrophobicColor},
		{"P", lattice.Polar, polarColor},
		{"C", lattice.Cysteine, cysteineColor},
	}
	for _, class := range classes {
		var points plotter.XYs
		for i, pos := range positions {
			if chain.Residue(i) != class.residue {
				continue
			}
			points = append(points, plotter.XY{X: float64(pos.X), Y: float64(pos.Y)})
		}
		if len(points) == 0 {
			continue
		}
		scatter, err := plotter.NewScatter(points)
		if err != nil {
			return err
		}
		scatter.GlyphStyle.Shape = draw.CircleGlyph{}
		scatter.GlyphStyle.Radius = vg.Points(3.5)
		scatter.GlyphStyle.Color = class.color
		p.Add(scatter)
		p.Legend.Add(class.name, scatter)
	}
	p.Legend.Top = true

	squareRange(p, positions)
	return p.Save(12*vg.Centimeter, 12*vg.Centimeter, path)
}

// squareRange pads both axes to the same span so lattice steps render
// square-ish regardless of the fold's bounding box.
func squareRange(p *plot.Plot, positions []lattice.Vec) {
	minX, maxX := positions[0].X, positions[0].X
	minY, maxY := positions[0].Y, positions[0].Y
	for _, pos := range positions[1:] {
		if pos.X < minX {
			minX = pos.X
		}
		if pos.X > maxX {
			maxX = pos.X
		}
		if pos.Y < minY {
			minY = pos.Y
		}
		if pos.Y > maxY {
			maxY = pos.Y
		}
	}
	span := maxX - minX
	if dy := maxY - minY; dy > span {
		span = dy
	}
	padX := float64(span-(maxX-minX)) / 2
	padY := float64(span-(maxY-minY)) / 2
	p.X.Min = float64(minX) - padX - 1
	p.X.Max = float64(maxX) + padX + 1
	p.Y.Min = float64(minY) - padY - 1
	p.Y.Max = float64(maxY) + padY + 1
}

// ScoreHistory draws one run's per-iteration best score.
func ScoreHistory(scores []int, path string) error {
	points := make([]float64, len(scores))
	for i, score := range scores {
		points[i] = float64(score)
	}
	return ScoreCurves(path, Curve{Name: "score", Points: points})
}

// ScoreCurves draws one or more score series over iterations on a shared
// plot, for comparing trials or aggregates.
func ScoreCurves(path string, curves ...Curve) error {
	if len(curves) == 0 {
		return fmt.Errorf("at least one curve is required")
	}

	p := plot.New()
	p.Title.Text = "score by iteration"
	p.X.Label.Text = "iteration"
	p.Y.Label.Text = "score"
	p.Add(plotter.NewGrid())

	for i, curve := range curves {
		if len(curve.Points) == 0 {
			return fmt.Errorf("curve %q has no points", curve.Name)
		}
		xys := make(plotter.XYs, len(curve.Points))
		for j, value := range curve.Points {
			xys[j].X = float64(j)
			xys[j].Y = value
		}
		line, err := plotter.NewLine(xys)
		if err != nil {
			return err
		}
		line.LineStyle.Width = vg.Points(1)
		line.LineStyle.Color = plotutil.Color(i)
		p.Add(line)
		p.Legend.Add(curve.Name, line)
	}
	p.Legend.Top = true

	return p.Save(16*vg.Centimeter, 10*vg.Centimeter, path)
}

// ScoreHistogram draws the distribution of final scores across trials, one
// bin per integer score.
func ScoreHistogram(scores []int, path string) error {
	if len(scores) == 0 {
		return fmt.Errorf("at least one score is required")
	}

	values := make(plotter.Values, len(scores))
	minScore, maxScore := scores[0], scores[0]
	for i, score := range scores {
		values[i] = float64(score)
		if score < minScore {
			minScore = score
		}
		if score > maxScore {
			maxScore = score
		}
	}

	p := plot.New()
	p.Title.Text = "score distribution"
	p.X.Label.Text = "score"
	p.Y.Label.Text = "trials"

	hist, err := plotter.NewHist(values, maxScore-minScore+1)
	if err != nil {
		return err
	}
	hist.FillColor = polarColor
	p.Add(hist)

	return p.Save(16*vg.Centimeter, 10*vg.Centimeter, path)
}
