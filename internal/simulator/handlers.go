package simulator

import (
	"strconv"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/ANIKETSHETTY47/phase-energy-monitor/internal/domain"
)

// queryLayout is how start and end are sent on the wire.
const queryLayout = "2006-01-02 15:04:05"

const defaultResults = 100

// Register mounts a ThingSpeak-compatible read endpoint for the simulated channels.
func Register(app *fiber.App, s *Simulator) {
	app.Get("/channels/:id/feeds.json", s.feeds)
}

func (s *Simulator) feeds(c *fiber.Ctx) error {
	id := c.Params("id")

	var (
		entries []Entry
		ok      bool
	)
	if c.Query("start") != "" || c.Query("end") != "" {
		start, err := time.ParseInLocation(queryLayout, c.Query("start"), time.UTC)
		if err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid start"})
		}
		end, err := time.ParseInLocation(queryLayout, c.Query("end"), time.UTC)
		if err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid end"})
		}
		entries, ok = s.Between(id, start, end)
	} else {
		n := defaultResults
		if raw := c.Query("results"); raw != "" {
			v, err := strconv.Atoi(raw)
			if err != nil || v <= 0 {
				return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid results"})
			}
			n = v
		}
		entries, ok = s.Last(id, n)
	}
	if !ok {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "channel not found"})
	}

	feeds := make([]fiber.Map, 0, len(entries))
	for _, e := range entries {
		m := fiber.Map{
			"created_at": e.At.Format(time.RFC3339),
			"entry_id":   e.ID,
		}
		for _, f := range domain.Fields() {
			m[f.Key()] = formatValue(e.Values[f])
		}
		feeds = append(feeds, m)
	}
	return c.JSON(fiber.Map{
		"channel": fiber.Map{"id": id, "name": s.phaseOf(id).Title()},
		"feeds":   feeds,
	})
}

func (s *Simulator) phaseOf(id string) domain.Phase {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if ch, ok := s.channels[id]; ok {
		return ch.phase
	}
	return ""
}
