package http

import (
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog/log"

	"github.com/ANIKETSHETTY47/phase-energy-monitor/internal/cloud"
	"github.com/ANIKETSHETTY47/phase-energy-monitor/internal/domain"
	"github.com/ANIKETSHETTY47/phase-energy-monitor/internal/export"
	"github.com/ANIKETSHETTY47/phase-energy-monitor/internal/observability/metrics"
	"github.com/ANIKETSHETTY47/phase-energy-monitor/internal/window"
)

type phaseBody struct {
	Phase string `json:"phase"`
}

type limitBody struct {
	Limit int `json:"limit"`
}

// bandBody accepts numbers, numeric strings or null for each bound.
type bandBody struct {
	Min interface{} `json:"min"`
	Max interface{} `json:"max"`
}

func boundText(v interface{}) string {
	switch b := v.(type) {
	case nil:
		return ""
	case string:
		return b
	case float64:
		return strconv.FormatFloat(b, 'f', -1, 64)
	}
	return fmt.Sprint(v)
}

func (h *handlers) getPhase(c *fiber.Ctx) error {
	p := h.App.Phase()
	return c.JSON(fiber.Map{"phase": p, "title": p.Title(), "phases": domain.Phases()})
}

func (h *handlers) putPhase(c *fiber.Ctx) error {
	var body phaseBody
	if err := c.BodyParser(&body); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid body"})
	}
	p, err := domain.ParsePhase(body.Phase)
	if err != nil {
		return fail(c, err)
	}
	if err := h.App.SetPhase(p); err != nil {
		return fail(c, err)
	}
	return c.JSON(fiber.Map{"phase": p, "title": p.Title()})
}

// snapshot refreshes the live view. On failure the last good view is served with the notice.
func (h *handlers) snapshot(c *fiber.Ctx) error {
	ctx, cancel := h.ctx(c)
	defer cancel()
	s, err := h.App.RefreshRealtime(ctx)
	if err == nil {
		return c.JSON(fiber.Map{"snapshot": s})
	}
	if held, ok := h.App.Snapshot(); ok && !errors.Is(err, domain.ErrStaleResponse) {
		notice, _ := h.App.Notice()
		return c.JSON(fiber.Map{"snapshot": held, "stale": true, "notice": notice})
	}
	return fail(c, err)
}

func (h *handlers) fields(c *fiber.Ctx) error {
	type fieldView struct {
		domain.FieldDescriptor
		Limit int `json:"limit"`
	}
	out := make([]fieldView, 0, domain.FieldCount)
	for _, d := range domain.Descriptors() {
		out = append(out, fieldView{FieldDescriptor: d, Limit: h.App.FieldLimit(d.ID)})
	}
	return c.JSON(out)
}

func (h *handlers) history(c *fiber.Ctx) error {
	f, err := domain.ParseField(c.Params("field"))
	if err != nil {
		return fail(c, err)
	}
	ctx, cancel := h.ctx(c)
	defer cancel()
	s, err := h.App.RefreshField(ctx, f)
	if err == nil {
		return c.JSON(fiber.Map{"series": s, "limit": h.App.FieldLimit(f)})
	}
	if held, ok := h.App.Series(f); ok && !errors.Is(err, domain.ErrStaleResponse) {
		notice, _ := h.App.Notice()
		return c.JSON(fiber.Map{"series": held, "limit": h.App.FieldLimit(f), "stale": true, "notice": notice})
	}
	return fail(c, err)
}

func (h *handlers) putLimit(c *fiber.Ctx) error {
	f, err := domain.ParseField(c.Params("field"))
	if err != nil {
		return fail(c, err)
	}
	var body limitBody
	if err := c.BodyParser(&body); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid body"})
	}
	if !h.App.SetFieldLimit(f, body.Limit) {
		return fail(c, fmt.Errorf("%w: %d", domain.ErrInvalidCount, body.Limit))
	}
	return c.JSON(fiber.Map{"field": f.Key(), "limit": body.Limit})
}

func (h *handlers) thresholds(c *fiber.Ctx) error {
	return c.JSON(h.App.Thresholds().Bands())
}

func (h *handlers) putThreshold(c *fiber.Ctx) error {
	parameter := c.Params("parameter")
	var body bandBody
	if err := c.BodyParser(&body); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid body"})
	}
	if err := h.App.SetBandText(parameter, boundText(body.Min), boundText(body.Max)); err != nil {
		return fail(c, err)
	}
	log.Info().Str("parameter", parameter).Str("band", h.App.Thresholds().Band(parameter).String()).Msg("Threshold saved")
	return c.JSON(fiber.Map{"parameter": parameter, "band": h.App.Thresholds().Band(parameter)})
}

func (h *handlers) setPoint(c *fiber.Ctx) error {
	f, err := domain.ParseField(c.Params("field"))
	if err != nil {
		return fail(c, err)
	}
	ctx, cancel := h.ctx(c)
	defer cancel()
	s, err := h.App.SetPointPreview(ctx, f)
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(fiber.Map{"series": s, "band": h.App.Thresholds().Band(f.Parameter())})
}

// report serves GET /report?range=&start=&end=&n=&field=&format=&upload=.
func (h *handlers) report(c *fiber.Ctx) error {
	started := time.Now()
	format, err := export.ParseFormat(c.Query("format"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
	}
	result := metrics.ResultError
	defer func() { metrics.ObserveReport(string(format), result, time.Since(started)) }()

	sel, err := window.ParseSelector(c.Query("range", string(window.SelectorLast)))
	if err != nil {
		return fail(c, err)
	}
	bounds, err := window.ParseBounds(c.Query("start"), c.Query("end"), c.Query("n"), h.Location)
	if err != nil {
		return fail(c, err)
	}
	f, err := domain.ParseField(c.Query("field", domain.FieldEnergy.Key()))
	if err != nil {
		return fail(c, err)
	}
	upload := c.QueryBool("upload", false)
	if upload && h.Uploader == nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "report upload is not configured"})
	}

	ctx, cancel := h.ctx(c)
	defer cancel()
	r, err := h.App.Report(ctx, sel, bounds, f)
	if err != nil {
		if errors.Is(err, domain.ErrStaleResponse) {
			result = metrics.ResultStale
		}
		return fail(c, err)
	}

	if format == export.FormatJSON && !upload {
		result = metrics.ResultSuccess
		return c.JSON(r)
	}

	var data []byte
	if format == export.FormatJSON {
		data, err = c.App().Config().JSONEncoder(r)
	} else {
		data, err = export.Render(format, r)
	}
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": err.Error()})
	}

	if upload {
		key := cloud.ReportKey(string(r.Phase), r.ID, r.GeneratedAt, string(format))
		url, err := h.Uploader.UploadReport(ctx, key, data, format.ContentType())
		if err != nil {
			return c.Status(fiber.StatusBadGateway).JSON(fiber.Map{"error": err.Error()})
		}
		result = metrics.ResultSuccess
		return c.JSON(fiber.Map{"id": r.ID, "key": key, "url": url})
	}

	result = metrics.ResultSuccess
	c.Set(fiber.HeaderContentType, format.ContentType())
	c.Attachment(format.FileName(r))
	return c.Send(data)
}
