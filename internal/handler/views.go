package handler

import (
	"embed"
	"io/fs"
	"net/http"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/template/html/v2"

	"github.com/olafkfreund/comunicado-sub006/pkg/maildir"
)

//go:embed views
var viewsFS embed.FS

func newViews() *html.Engine {
	sub, err := fs.Sub(viewsFS, "views")
	if err != nil {
		panic(err)
	}
	return html.NewFileSystem(http.FS(sub), ".html")
}

// Account renders the export preview of an account as an HTML page.
func (h *Handler) Account(c *fiber.Ctx) error {
	account := c.Params("account")
	preview, err := maildir.NewExporter(h.store, h.exportCfg, h.opts...).Preview(c.UserContext(), account)
	if err != nil {
		return h.failure(c, err)
	}
	return c.Render("accounts/index", fiber.Map{
		"Title":   "Account " + account,
		"Account": account,
		"Preview": preview,
		"Size":    preview.EstimatedSizeHuman(),
	})
}
