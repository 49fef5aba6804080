package api

import (
	"bytes"
	"io"

	"github.com/gofiber/fiber/v2"

	"github.com/piwi3910/optimystic/internal/model"
	"github.com/piwi3910/optimystic/internal/service"
	"github.com/piwi3910/optimystic/internal/templates"
)

func HealthCheckHandler(c *fiber.Ctx) error {
	return c.Status(fiber.StatusOK).JSON(fiber.Map{
		"status":  "UP",
		"service": AppName,
	})
}

func TemplatesHandler(svc *service.Service) fiber.Handler {
	return func(c *fiber.Ctx) error {
		return c.JSON(svc.Templates())
	}
}

// GenerateModelRequest carries the input tables of a template.
type GenerateModelRequest struct {
	Tables   templates.Tables  `json:"tables"`
	Settings model.CutSettings `json:"settings"`
}

func GenerateModelHandler(svc *service.Service) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var req GenerateModelRequest
		if err := parseBody(c, &req); err != nil {
			return err
		}
		m, err := svc.GenerateModel(c.Params("mode"), req.Tables, req.Settings)
		if err != nil {
			return err
		}
		return c.JSON(m)
	}
}

func SolveHandler(svc *service.Service) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var req service.SolveRequest
		if err := parseBody(c, &req); err != nil {
			return err
		}
		res, err := svc.Solve(c.UserContext(), req)
		if err != nil {
			return err
		}
		return c.JSON(res)
	}
}

func SolveCuttingHandler(svc *service.Service) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var req service.CuttingRequest
		if err := parseBody(c, &req); err != nil {
			return err
		}
		out, err := svc.SolveCutting(c.UserContext(), req)
		if err != nil {
			return err
		}
		return c.JSON(out)
	}
}

func CompareHandler(svc *service.Service) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var req service.CompareRequest
		if err := parseBody(c, &req); err != nil {
			return err
		}
		results, err := svc.Compare(c.UserContext(), req)
		if err != nil {
			return err
		}
		return c.JSON(fiber.Map{
			"results": results,
			"count":   len(results),
		})
	}
}

func ExportHandler(svc *service.Service) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var req service.ExportRequest
		if err := parseBody(c, &req); err != nil {
			return err
		}
		var buf bytes.Buffer
		format, err := svc.Export(c.UserContext(), c.Params("format"), req, &buf)
		if err != nil {
			return err
		}
		c.Attachment(format.FileName("cut_plan"))
		c.Set(fiber.HeaderContentType, format.ContentType())
		return c.Send(buf.Bytes())
	}
}

func ImportHandler(svc *service.Service) fiber.Handler {
	return func(c *fiber.Ctx) error {
		fh, err := c.FormFile("file")
		if err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "missing upload field \"file\"")
		}
		f, err := fh.Open()
		if err != nil {
			return err
		}
		defer f.Close()
		data, err := io.ReadAll(f)
		if err != nil {
			return err
		}
		res, err := svc.Import(c.Params("table"), fh.Filename, data)
		if err != nil {
			return err
		}
		return c.JSON(res)
	}
}

func ListProjectsHandler(svc *service.Service) fiber.Handler {
	return func(c *fiber.Ctx) error {
		list, err := svc.ListProjects()
		if err != nil {
			return err
		}
		return c.JSON(list)
	}
}

func GetProjectHandler(svc *service.Service) fiber.Handler {
	return func(c *fiber.Ctx) error {
		p, err := svc.GetProject(c.Params("id"))
		if err != nil {
			return err
		}
		return c.JSON(p)
	}
}

func SaveProjectHandler(svc *service.Service) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var p model.Project
		if err := parseBody(c, &p); err != nil {
			return err
		}
		saved, err := svc.SaveProject(p)
		if err != nil {
			return err
		}
		return c.Status(fiber.StatusCreated).JSON(saved)
	}
}

func DeleteProjectHandler(svc *service.Service) fiber.Handler {
	return func(c *fiber.Ctx) error {
		if err := svc.DeleteProject(c.Params("id")); err != nil {
			return err
		}
		return c.SendStatus(fiber.StatusNoContent)
	}
}

func InventoryHandler(svc *service.Service) fiber.Handler {
	return func(c *fiber.Ctx) error {
		inv, err := svc.Inventory()
		if err != nil {
			return err
		}
		return c.JSON(inv)
	}
}

func PresetHandler(svc *service.Service) fiber.Handler {
	return func(c *fiber.Ctx) error {
		p, err := svc.Preset(c.Params("id"))
		if err != nil {
			return err
		}
		return c.JSON(p)
	}
}

func AddPresetsHandler(svc *service.Service) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var in model.Inventory
		if err := parseBody(c, &in); err != nil {
			return err
		}
		inv, added, err := svc.AddPresets(in.Stocks)
		if err != nil {
			return err
		}
		return c.JSON(fiber.Map{
			"inventory": inv,
			"added":     added,
		})
	}
}
