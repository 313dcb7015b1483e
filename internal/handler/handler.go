// Package handler exposes the Maildir exporter and importer over HTTP.
package handler

import (
	"log/slog"
	"path/filepath"
	"strings"

	"github.com/gofiber/contrib/otelfiber/v2"
	"github.com/gofiber/fiber/v2"

	"github.com/olafkfreund/comunicado-sub006/pkg/maildir"
	"github.com/olafkfreund/comunicado-sub006/pkg/store"
)

type Handler struct {
	store     store.MessageStore
	exportCfg maildir.ExportConfig
	importCfg maildir.ImportConfig
	opts      []maildir.Option
	logger    *slog.Logger
	baseDir   string
}

// New serves requests against s. Paths in request bodies are resolved
// below baseDir and rejected when they escape it.
func New(s store.MessageStore, exportCfg maildir.ExportConfig, importCfg maildir.ImportConfig, baseDir string, logger *slog.Logger, opts ...maildir.Option) *Handler {
	if abs, err := filepath.Abs(baseDir); err == nil {
		baseDir = abs
	}
	return &Handler{
		store:     s,
		exportCfg: exportCfg,
		importCfg: importCfg,
		baseDir:   filepath.Clean(baseDir),
		opts:      append([]maildir.Option{maildir.WithLogger(logger)}, opts...),
		logger:    logger,
	}
}

// App builds the fiber application with tracing middleware.
func (h *Handler) App() *fiber.App {
	app := fiber.New(fiber.Config{
		AppName:      "comunicado",
		ErrorHandler: h.errorHandler,
		Views:        newViews(),
	})
	app.Use(otelfiber.Middleware())

	app.Get("/health", h.Health)
	accounts := app.Group("/accounts/:account")
	accounts.Get("/", h.Account)
	accounts.Get("/preview", h.Preview)
	accounts.Post("/export", h.Export)
	accounts.Post("/import", h.Import)
	app.Use(h.NotFound)
	return app
}

type exportRequest struct {
	OutputDir string `json:"output_dir"`
}

type importRequest struct {
	Root string `json:"root"`
}

type errorResponse struct {
	Error  string               `json:"error"`
	Report *maildir.ErrorReport `json:"report,omitempty"`
}

func (h *Handler) Health(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{"status": "ok"})
}

// Preview reports what an export of the account would write.
func (h *Handler) Preview(c *fiber.Ctx) error {
	preview, err := maildir.NewExporter(h.store, h.exportCfg, h.opts...).Preview(c.UserContext(), c.Params("account"))
	if err != nil {
		return h.failure(c, err)
	}
	return c.JSON(preview)
}

func (h *Handler) Export(c *fiber.Ctx) error {
	var req exportRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
	}
	if strings.TrimSpace(req.OutputDir) == "" {
		return fiber.NewError(fiber.StatusBadRequest, "output_dir is required")
	}

	outputDir, err := h.confine(req.OutputDir)
	if err != nil {
		return err
	}

	account := c.Params("account")
	stats, err := maildir.NewExporter(h.store, h.exportCfg, h.opts...).
		ExportAccount(c.UserContext(), account, outputDir, nil)
	if err != nil {
		return h.failure(c, err)
	}
	h.logger.InfoContext(c.UserContext(), "Export finished",
		slog.String("account", account),
		slog.Int("messages_exported", stats.MessagesExported))
	return c.JSON(stats)
}

func (h *Handler) Import(c *fiber.Ctx) error {
	var req importRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
	}
	if strings.TrimSpace(req.Root) == "" {
		return fiber.NewError(fiber.StatusBadRequest, "root is required")
	}

	root, err := h.confine(req.Root)
	if err != nil {
		return err
	}

	account := c.Params("account")
	stats, err := maildir.NewImporter(h.store, h.importCfg, h.opts...).
		ImportFromDirectory(c.UserContext(), root, account, nil)
	if err != nil {
		return h.failure(c, err)
	}
	h.logger.InfoContext(c.UserContext(), "Import finished",
		slog.String("account", account),
		slog.Int("messages_imported", stats.MessagesImported))
	return c.JSON(stats)
}

// confine resolves p against the base directory. Relative paths are taken
// from the base; anything outside it is a bad request.
func (h *Handler) confine(p string) (string, error) {
	if !filepath.IsAbs(p) {
		p = filepath.Join(h.baseDir, p)
	}
	p = filepath.Clean(p)
	rel, err := filepath.Rel(h.baseDir, p)
	if err != nil || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return "", fiber.NewError(fiber.StatusBadRequest, "path is outside the base directory")
	}
	return p, nil
}

func (h *Handler) NotFound(c *fiber.Ctx) error {
	return c.Status(fiber.StatusNotFound).JSON(errorResponse{Error: "not found"})
}

func (h *Handler) failure(c *fiber.Ctx, err error) error {
	report := maildir.Report(err)
	status := fiber.StatusInternalServerError
	switch report.Kind {
	case maildir.KindInvalidStructure, maildir.KindPath, maildir.KindFolderMapping:
		status = fiber.StatusUnprocessableEntity
	case maildir.KindCancelled:
		status = fiber.StatusServiceUnavailable
	}
	h.logger.ErrorContext(c.UserContext(), "Request failed",
		slog.String("path", c.Path()),
		slog.String("error", err.Error()))
	return c.Status(status).JSON(errorResponse{Error: report.Title, Report: &report})
}

func (h *Handler) errorHandler(c *fiber.Ctx, err error) error {
	code := fiber.StatusInternalServerError
	if e, ok := err.(*fiber.Error); ok {
		code = e.Code
	}
	return c.Status(code).JSON(errorResponse{Error: err.Error()})
}
