package server

import (
	"strconv"
	"strings"

	"github.com/gofiber/fiber/v3"

	"games-dashboard/models"
)

const maxPerPage = 1000

// ErrInvalidLimit is returned when a threshold query parameter is not a number
var ErrInvalidLimit = fiber.NewError(fiber.StatusBadRequest, "price_limit and reviews_limit must be numbers")

// ErrInvalidPage is returned when page or per_page is not a positive integer
var ErrInvalidPage = fiber.NewError(fiber.StatusBadRequest, "page and per_page must be positive integers")

// queryTags collects the tag selection from repeated tag= parameters and a
// comma-separated tags= parameter.
func queryTags(c fiber.Ctx) []string {
	var tags []string
	for _, raw := range c.Request().URI().QueryArgs().PeekMulti("tag") {
		if t := strings.TrimSpace(string(raw)); t != "" {
			tags = append(tags, t)
		}
	}
	for _, t := range strings.Split(c.Query("tags"), ",") {
		if t = strings.TrimSpace(t); t != "" {
			tags = append(tags, t)
		}
	}
	return tags
}

func (s *Server) queryLimits(c fiber.Ctx) (float64, float64, error) {
	price, reviews := s.dashboard.DefaultLimits(s.opts.DefaultPriceLimit, s.opts.DefaultReviewsLimit)

	if raw := c.Query("price_limit"); raw != "" {
		v, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			return 0, 0, ErrInvalidLimit
		}
		price = v
	}
	if raw := c.Query("reviews_limit"); raw != "" {
		v, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			return 0, 0, ErrInvalidLimit
		}
		reviews = v
	}
	return price, reviews, nil
}

func queryPositiveInt(c fiber.Ctx, key string, fallback int) (int, error) {
	raw := c.Query(key)
	if raw == "" {
		return fallback, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < 1 {
		return 0, ErrInvalidPage
	}
	return n, nil
}

// page returns the slice of games for a 1-based page number. Pages past the
// end are empty.
func page(games []*models.Game, pageNum, perPage int) []*models.Game {
	if pageNum-1 >= (len(games)+perPage-1)/perPage {
		return []*models.Game{}
	}
	start := (pageNum - 1) * perPage
	if start >= len(games) {
		return []*models.Game{}
	}
	end := start + perPage
	if end > len(games) {
		end = len(games)
	}
	return games[start:end]
}

// health handles GET /healthz
func (s *Server) health(c fiber.Ctx) error {
	catalog := s.dashboard.Catalog()
	return c.JSON(fiber.Map{
		"status":  "ok",
		"rows":    catalog.Len(),
		"version": catalog.Version,
	})
}

// listTags handles GET /api/v1/tags
func (s *Server) listTags(c fiber.Ctx) error {
	ctx, cancel := s.requestContext()
	defer cancel()

	tags, err := s.dashboard.Tags(ctx)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{
		"tags":  tags,
		"total": len(tags),
	})
}

// listGames handles GET /api/v1/games
func (s *Server) listGames(c fiber.Ctx) error {
	pageNum, err := queryPositiveInt(c, "page", 1)
	if err != nil {
		return err
	}
	perPage, err := queryPositiveInt(c, "per_page", s.opts.PageSize)
	if err != nil {
		return err
	}
	if perPage > maxPerPage {
		perPage = maxPerPage
	}

	ctx, cancel := s.requestContext()
	defer cancel()

	subset, err := s.dashboard.FilterByTags(ctx, queryTags(c))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{
		"games":         page(subset.Games, pageNum, perPage),
		"extra_columns": subset.ExtraColumns,
		"total":         subset.Len(),
		"page":          pageNum,
		"per_page":      perPage,
	})
}

// descriptive handles GET /api/v1/descriptive
func (s *Server) descriptive(c fiber.Ctx) error {
	ctx, cancel := s.requestContext()
	defer cancel()

	report, err := s.dashboard.Descriptive(ctx, queryTags(c))
	if err != nil {
		return err
	}
	return c.JSON(report)
}

// inferential handles GET /api/v1/inferential
func (s *Server) inferential(c fiber.Ctx) error {
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
	return c.JSON(report)
}

// bins handles GET /api/v1/bins
func (s *Server) bins(c fiber.Ctx) error {
	column := c.Query("column", models.ColumnPositiveRatio)

	ctx, cancel := s.requestContext()
	defer cancel()

	counts, err := s.dashboard.Bins(ctx, column, queryTags(c))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{
		"column":  column,
		"buckets": counts,
	})
}
