package server

import (
	"bytes"
	"embed"
	"fmt"
	"html/template"
	"math"
	"strings"

	"github.com/dustin/go-humanize"
	"github.com/gofiber/fiber/v3"

	"games-dashboard/models"
)

//go:embed templates/*.html
var templateFS embed.FS

const (
	scatterWidth  = 640.0
	scatterHeight = 320.0
)

func parsePages() (*template.Template, error) {
	funcs := template.FuncMap{
		"comma": func(n any) string {
			switch v := n.(type) {
			case int:
				return humanize.Comma(int64(v))
			case int64:
				return humanize.Comma(v)
			case float64:
				return humanize.Commaf(v)
			default:
				return fmt.Sprint(n)
			}
		},
		"money": func(v float64) string { return fmt.Sprintf("$%.2f", v) },
		"join":  strings.Join,
	}
	return template.New("pages").Funcs(funcs).ParseFS(templateFS, "templates/*.html")
}

func (s *Server) render(c fiber.Ctx, name string, data any) error {
	var buf bytes.Buffer
	if err := s.pages.ExecuteTemplate(&buf, name, data); err != nil {
		return fmt.Errorf("render %s: %w", name, err)
	}
	c.Set(fiber.HeaderContentType, fiber.MIMETextHTMLCharsetUTF8)
	return c.Send(buf.Bytes())
}

type bar struct {
	Label string
	Count int
	Width float64
}

func bars(counts []models.BucketCount) []bar {
	max := 0
	for _, b := range counts {
		if b.Count > max {
			max = b.Count
		}
	}
	out := make([]bar, 0, len(counts))
	for _, b := range counts {
		out = append(out, bar{Label: b.Label, Count: b.Count, Width: share(b.Count, max)})
	}
	return out
}

func share(n, max int) float64 {
	if max == 0 {
		return 0
	}
	return 100 * float64(n) / float64(max)
}

type tagOption struct {
	Name     string
	Selected bool
}

type platformRow struct {
	Name   string
	Counts models.PlatformCounts
	Width  float64
}

type descriptiveView struct {
	Tab       string
	Tags      []tagOption
	Selected  []string
	Report    *models.DescriptiveReport
	Platforms []platformRow
	Ratings   []bar
	Ratios    []bar
	Prices    []bar
}

// descriptivePage handles GET /
func (s *Server) descriptivePage(c fiber.Ctx) error {
	ctx, cancel := s.requestContext()
	defer cancel()

	all, err := s.dashboard.Tags(ctx)
	if err != nil {
		return err
	}
	report, err := s.dashboard.Descriptive(ctx, queryTags(c))
	if err != nil {
		return err
	}

	selected := make(map[string]bool, len(report.Tags))
	for _, t := range report.Tags {
		selected[t] = true
	}
	view := descriptiveView{
		Tab:      "descriptive",
		Selected: report.Tags,
		Report:   report,
		Ratios:   bars(report.RatioBuckets),
		Prices:   bars(report.PriceBuckets),
	}
	for _, t := range all {
		view.Tags = append(view.Tags, tagOption{Name: t, Selected: selected[t]})
	}
	for _, p := range []struct {
		name string
		pc   models.PlatformCounts
	}{{"Windows", report.Windows}, {"Mac", report.Mac}, {"Linux", report.Linux}} {
		view.Platforms = append(view.Platforms, platformRow{
			Name:   p.name,
			Counts: p.pc,
			Width:  share(p.pc.Supported, report.TotalRows),
		})
	}
	ratings := make([]models.BucketCount, 0, len(report.Ratings))
	for _, r := range report.Ratings {
		ratings = append(ratings, models.BucketCount{Label: r.Value, Count: r.Count})
	}
	view.Ratings = bars(ratings)

	return s.render(c, "descriptive", view)
}

type heatCell struct {
	Count int
	Alpha float64
}

type heatRow struct {
	Label string
	Cells []heatCell
}

type point struct {
	X, Y  float64
	Title string
}

type inferentialView struct {
	Tab     string
	Report  *models.InferentialReport
	XLabels []string
	Rows    []heatRow
	Points  []point
	Width   float64
	Height  float64
}

// inferentialPage handles GET /inferential
func (s *Server) inferentialPage(c fiber.Ctx) error {
	price, reviews, err := s.queryLimits(c)
	if err != nil {
		return err
	}

	ctx, cancel := s.requestContext()
	defer cancel()

	report, err := s.dashboard.Inferential(ctx, price, reviews)
	if err != nil {
		return err
	}

	view := inferentialView{
		Tab:    "inferential",
		Report: report,
		Width:  scatterWidth,
		Height: scatterHeight,
	}
	view.XLabels, view.Rows = heatRows(report.Heatmap)
	view.Points = scatterPoints(report.Scatter, report.ReviewsLimit)

	return s.render(c, "inferential", view)
}

// heatRows lays the heatmap out top to bottom, highest y bin first.
func heatRows(h models.Heatmap) ([]string, []heatRow) {
	peak := 0
	for _, row := range h.Counts {
		for _, n := range row {
			if n > peak {
				peak = n
			}
		}
	}

	xLabels := make([]string, 0, len(h.XEdges))
	for i := 1; i < len(h.XEdges); i++ {
		xLabels = append(xLabels, fmt.Sprintf("%.0f", h.XEdges[i]))
	}

	rows := make([]heatRow, 0, len(h.Counts))
	for y := len(h.Counts) - 1; y >= 0; y-- {
		row := heatRow{Label: fmt.Sprintf("$%.2f", h.YEdges[y+1])}
		for _, n := range h.Counts[y] {
			row.Cells = append(row.Cells, heatCell{Count: n, Alpha: share(n, peak) / 100})
		}
		rows = append(rows, row)
	}
	return xLabels, rows
}

func scatterPoints(scatter []models.ScatterPoint, reviewsLimit float64) []point {
	out := make([]point, 0, len(scatter))
	top := math.Max(reviewsLimit, 1)
	for _, p := range scatter {
		out = append(out, point{
			X:     scatterWidth * p.PositiveRatio / 100,
			Y:     scatterHeight - scatterHeight*math.Min(float64(p.UserReviews)/top, 1),
			Title: p.Title,
		})
	}
	return out
}

type rawView struct {
	Tab   string
	Extra []string
	Games []*models.Game
	Total int
	Page  int
	Pages int
	Prev  int
	Next  int
}

// rawPage handles GET /raw
func (s *Server) rawPage(c fiber.Ctx) error {
	pageNum, err := queryPositiveInt(c, "page", 1)
	if err != nil {
		return err
	}

	catalog := s.dashboard.Catalog()
	pages := (catalog.Len() + s.opts.PageSize - 1) / s.opts.PageSize
	if pages == 0 {
		pages = 1
	}
	if pageNum > pages {
		pageNum = pages
	}

	view := rawView{
		Tab:   "raw",
		Extra: catalog.ExtraColumns,
		Games: page(catalog.Games, pageNum, s.opts.PageSize),
		Total: catalog.Len(),
		Page:  pageNum,
		Pages: pages,
	}
	if pageNum > 1 {
		view.Prev = pageNum - 1
	}
	if pageNum < pages {
		view.Next = pageNum + 1
	}
	return s.render(c, "raw", view)
}
