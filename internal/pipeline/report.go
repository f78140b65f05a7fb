package pipeline

import (
	"fmt"
	"io"
	"os"
	"os/exec"
	"strings"

	"github.com/wcharczuk/go-chart/v2"
	"github.com/wcharczuk/go-chart/v2/drawing"

	"go-character-pipeline/internal/model"
)

// ------------------- Report Engine -------------------

const (
	// DefaultChartFile is where the direct runner writes the chart.
	DefaultChartFile = "status_distribution.png"

	defaultSpecies    = "Human"
	defaultSearchTerm = "Morty"

	chartTitle = "Distribution of Character Statuses in Rick and Morty"

	chartWidth  = 1000
	chartHeight = 600
)

// xAxisTitle draws a label centered under the bars.
func xAxisTitle(title string) chart.Renderable {
	return func(r chart.Renderer, canvasBox chart.Box, defaults chart.Style) {
		style := chart.Style{
			FontSize:  12,
			FontColor: chart.DefaultTextColor,
			Font:      defaults.Font,
		}
		style.WriteTextOptionsToRenderer(r)
		tb := r.MeasureText(title)
		r.Text(title, (chartWidth-tb.Width())/2, chartHeight-10)
	}
}

var barColors = []drawing.Color{
	chart.ColorBlue,
	chart.ColorGreen,
	chart.ColorRed,
}

// ReportEngine runs aggregations over a fixed in-memory record set.
type ReportEngine struct {
	data []model.Character
	out  io.Writer
}

func NewReportEngine(data []model.Character) *ReportEngine {
	return &ReportEngine{data: data, out: os.Stdout}
}

// StatusDistribution counts records per distinct status value. Distinct
// statuses are enumerated in first-occurrence order of the input.
func (e *ReportEngine) StatusDistribution() model.StatusDistribution {
	dist := model.StatusDistribution{Counts: make(map[string]int)}
	for _, c := range e.data {
		if _, seen := dist.Counts[c.Status]; !seen {
			dist.Statuses = append(dist.Statuses, c.Status)
		}
		dist.Counts[c.Status]++
	}
	return dist
}

// RenderDistributionChart writes the distribution as a PNG bar chart, one
// bar per status with its count in the label. The file handle is scoped
// here and closed on every exit path.
func (e *ReportEngine) RenderDistributionChart(dist model.StatusDistribution, path string) (err error) {
	// go-chart rejects zero bars; an empty record set is informational,
	// not a failure, so there is simply nothing to draw.
	if len(dist.Statuses) == 0 {
		fmt.Printf("📊 No records to chart, skipping %s\n", path)
		return nil
	}

	bars := make([]chart.Value, 0, len(dist.Statuses))
	for i, status := range dist.Statuses {
		color := barColors[i%len(barColors)]
		bars = append(bars, chart.Value{
			Label: fmt.Sprintf("%s (%d)", status, dist.Counts[status]),
			Value: float64(dist.Counts[status]),
			Style: chart.Style{FillColor: color, StrokeColor: color},
		})
	}

	graph := chart.BarChart{
		Title:      chartTitle,
		Width:      chartWidth,
		Height:     chartHeight,
		BarWidth:   80,
		Background: chart.Style{Padding: chart.Box{Top: 40, Bottom: 30}},
		XAxis:      chart.Style{FontSize: 12},
		YAxis: chart.YAxis{
			Name:  "Count",
			Style: chart.Style{FontSize: 12},
		},
		Bars: bars,
		// go-chart has no x-axis title field, so the label is drawn as
		// an extra element under the bars.
		Elements: []chart.Renderable{xAxisTitle("Character Status")},
	}

	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create chart file: %w", err)
	}
	defer func() {
		if cerr := f.Close(); cerr != nil && err == nil {
			err = cerr
		}
	}()

	if err := graph.Render(chart.PNG, f); err != nil {
		return fmt.Errorf("failed to render chart: %w", err)
	}

	fmt.Printf("📊 Chart saved to %s\n", path)

	// Best effort: pop the chart in a viewer when a display is around.
	if os.Getenv("DISPLAY") != "" {
		_ = exec.Command("xdg-open", path).Start()
	}
	return nil
}

// FilterByField returns records whose named field equals target, compared
// case-insensitively. Input order is preserved.
func (e *ReportEngine) FilterByField(field, target string) ([]model.Character, error) {
	var matches []model.Character
	for _, c := range e.data {
		value, err := fieldValue(c, field)
		if err != nil {
			return nil, err
		}
		if strings.EqualFold(value, target) {
			matches = append(matches, c)
		}
	}

	fmt.Fprintf(e.out, "\nList of '%s' characters:\n", target)
	for _, c := range matches {
		fmt.Fprintf(e.out, "- %s (%s)\n", c.Name, c.Status)
	}
	return matches, nil
}

// SearchByName returns records whose name contains term, compared
// case-insensitively. An empty result is not an error.
func (e *ReportEngine) SearchByName(term string) []model.Character {
	var matches []model.Character
	lower := strings.ToLower(term)
	for _, c := range e.data {
		if strings.Contains(strings.ToLower(c.Name), lower) {
			matches = append(matches, c)
		}
	}

	if len(matches) == 0 {
		fmt.Fprintf(e.out, "No characters found with '%s' in their name.\n", term)
		return nil
	}

	fmt.Fprintf(e.out, "\nCharacters containing '%s' in their name:\n", term)
	for _, c := range matches {
		fmt.Fprintf(e.out, "- %s (%s)\n", c.Name, c.Species)
	}
	return matches
}

// RunDefaultReport runs the fixed report sequence: status distribution
// with chart render, species filter "Human", name search "Morty".
func (e *ReportEngine) RunDefaultReport(chartPath string) (model.ReportResult, error) {
	dist := e.StatusDistribution()
	if err := e.RenderDistributionChart(dist, chartPath); err != nil {
		return model.ReportResult{}, err
	}

	species, err := e.FilterByField("species", defaultSpecies)
	if err != nil {
		return model.ReportResult{}, err
	}
	names := e.SearchByName(defaultSearchTerm)

	return model.ReportResult{
		Distribution:   dist,
		ChartPath:      chartPath,
		SpeciesMatches: species,
		NameMatches:    names,
	}, nil
}

func fieldValue(c model.Character, field string) (string, error) {
	switch strings.ToLower(field) {
	case "name":
		return c.Name, nil
	case "status":
		return c.Status, nil
	case "species":
		return c.Species, nil
	default:
		return "", fmt.Errorf("unknown record field: %s", field)
	}
}
