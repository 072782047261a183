package api

import (
	"errors"
	"log/slog"
	"strconv"

	"spacyserver/app/service/amrviz"

	"github.com/gofiber/fiber/v2"
)

type errorResponse struct {
	Error string `json:"error"`
}

// health answers even while the models are still loading.
func (s *Server) health(c *fiber.Ctx) error {
	c.Set("X-Models-Ready", strconv.FormatBool(s.modelsSvc.Ready()))
	return c.SendString("OK")
}

func (s *Server) parse(c *fiber.Ctx) error {
	result, err := s.parserSvc.Parse(c.UserContext(), string(c.Body()))
	if err != nil {
		return err
	}

	return c.JSON(result)
}

func (s *Server) renderAMR(c *fiber.Ctx) error {
	format := c.Query("format", amrviz.FormatSVG)

	result, err := s.parserSvc.Parse(c.UserContext(), string(c.Body()))
	if err != nil {
		return err
	}

	out, err := s.amrvizSvc.Render(c.UserContext(), result.AMRGraphs, format)
	if errors.Is(err, amrviz.ErrUnsupportedFormat) {
		return fiber.NewError(fiber.StatusBadRequest, err.Error())
	}
	if err != nil {
		return err
	}

	c.Set(fiber.HeaderContentType, amrviz.ContentType(format))
	return c.Send(out)
}

func notFound(c *fiber.Ctx) error {
	return c.Status(fiber.StatusNotFound).SendString("Not Found")
}

func errorHandler(c *fiber.Ctx, err error) error {
	var fiberErr *fiber.Error
	if errors.As(err, &fiberErr) {
		return c.Status(fiberErr.Code).SendString(fiberErr.Message)
	}

	slog.Error("Request failed",
		"path", c.Path(),
		"request_id", c.GetRespHeader(fiber.HeaderXRequestID),
		"error", err,
	)

	return c.Status(fiber.StatusInternalServerError).JSON(errorResponse{Error: err.Error()})
}
