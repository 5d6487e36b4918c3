package contacts

import (
	"errors"

	"contact-sync/core/diff"
	"contact-sync/core/logger"
	"contact-sync/core/reconcile"
	"contact-sync/core/record"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

// Handler handles HTTP requests for contacts and groups.
type Handler struct {
	service *Service
	logger  *zap.Logger
}

// NewHandler creates a new HTTP handler.
func NewHandler(service *Service, logger *zap.Logger) *Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Handler{service: service, logger: logger}
}

// DiffRequest is the body of a diff request.
type DiffRequest struct {
	// Family defaults to contacts.
	Family string         `json:"family"`
	Source map[string]any `json:"source"`
	Target map[string]any `json:"target"`
}

// RegisterRoutes registers the contact routes.
func (h *Handler) RegisterRoutes(app fiber.Router) {
	group := app.Group("/contacts")
	group.Post("/diff", h.HandleDiff)
	group.Post("/reconcile", h.HandleReconcile)
	group.Get("/:id", h.HandleGetContact)

	app.Get("/groups/:id", h.HandleGetGroup)
	app.Post("/sync", h.HandleSync)
}

// HandleGetContact returns a single stored contact.
// @Summary Get Contact
// @Description Get a contact of the local store by its uid.
// @Tags contacts
// @Produce json
// @Param id path string true "Contact uid"
// @Success 200 {object} map[string]interface{} "Contact record"
// @Failure 404 {object} map[string]string "Not Found"
// @Router /contacts/{id} [get]
func (h *Handler) HandleGetContact(c *fiber.Ctx) error {
	return h.get(c, FamilyContacts)
}

// HandleGetGroup returns a single stored group.
// @Summary Get Group
// @Description Get a group of the local store by its uid.
// @Tags contacts
// @Produce json
// @Param id path string true "Group uid"
// @Success 200 {object} map[string]interface{} "Group record"
// @Failure 404 {object} map[string]string "Not Found"
// @Router /groups/{id} [get]
func (h *Handler) HandleGetGroup(c *fiber.Ctx) error {
	return h.get(c, FamilyGroups)
}

func (h *Handler) get(c *fiber.Ctx, family string) error {
	rec, err := h.service.Get(c.Context(), family, c.Params("id"))
	if err != nil {
		return h.fail(c, "Record lookup failed", err)
	}
	return c.JSON(rec)
}

// HandleDiff computes the change set between two records.
// @Summary Diff Records
// @Description Compute the field-level change set turning source into target.
// @Tags contacts
// @Accept json
// @Produce json
// @Param request body DiffRequest true "Records to compare"
// @Success 200 {array} diff.ChangeOp "Change set"
// @Failure 400 {object} map[string]string "Bad Request"
// @Failure 422 {object} map[string]string "Invalid record"
// @Router /contacts/diff [post]
func (h *Handler) HandleDiff(c *fiber.Ctx) error {
	var req DiffRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
	}
	if req.Family == "" {
		req.Family = FamilyContacts
	}

	cs, err := h.service.Diff(req.Family, req.Source, req.Target)
	if err != nil {
		return h.fail(c, "Diff failed", err)
	}
	if cs == nil {
		cs = diff.ChangeSet{}
	}
	return c.JSON(cs)
}

// HandleReconcile classifies an export against the local store without applying it.
// @Summary Reconcile Export (dry run)
// @Description Resolve every record of an export against the local store and report the planned outcome and change set of each.
// @Tags contacts
// @Accept json
// @Produce json
// @Param request body Export true "Address book export"
// @Success 200 {object} map[string]reconcile.Report "Reports per family"
// @Failure 400 {object} map[string]string "Bad Request"
// @Router /contacts/reconcile [post]
func (h *Handler) HandleReconcile(c *fiber.Ctx) error {
	exp, err := DecodeExport(c.Body())
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
	}

	reports, err := h.service.Reconcile(c.Context(), exp)
	if err != nil {
		return h.fail(c, "Reconcile failed", err)
	}
	return c.JSON(reports)
}

// HandleSync runs a sync pass against the configured export.
// @Summary Sync
// @Description Reconcile the export object with the local store. Nothing is written unless confirm=true and dry_run is false.
// @Tags contacts
// @Produce json
// @Param confirm query bool false "Apply the plan"
// @Param dry_run query bool false "Force a dry run"
// @Param update query bool false "Patch matched records" default(true)
// @Param create query bool false "Create new records" default(true)
// @Success 200 {object} SyncResult "Sync result"
// @Failure 500 {object} map[string]string "Internal Server Error"
// @Router /sync [post]
func (h *Handler) HandleSync(c *fiber.Ctx) error {
	opts := reconcile.Options{
		Confirmed: c.QueryBool("confirm", false),
		DryRun:    c.QueryBool("dry_run", false),
		DoUpdate:  c.QueryBool("update", true),
		DoCreate:  c.QueryBool("create", true),
	}

	res, err := h.service.Sync(c.Context(), opts)
	if err != nil {
		return h.fail(c, "Sync failed", err)
	}
	return c.JSON(res)
}

// fail maps service errors onto HTTP statuses.
func (h *Handler) fail(c *fiber.Ctx, msg string, err error) error {
	status := fiber.StatusInternalServerError
	switch {
	case errors.Is(err, ErrNotFound), errors.Is(err, ErrUnknownFamily):
		status = fiber.StatusNotFound
	case errors.Is(err, record.ErrShapeMismatch),
		errors.Is(err, record.ErrUnmappedField),
		errors.Is(err, record.ErrGuardedField),
		errors.Is(err, record.ErrUnknownListItemType):
		status = fiber.StatusUnprocessableEntity
	}

	l := logger.WithRayID(h.logger, c)
	if status == fiber.StatusInternalServerError {
		l.Error(msg, zap.Error(err))
	} else {
		l.Debug(msg, zap.Error(err))
	}
	return c.Status(status).JSON(fiber.Map{"error": err.Error()})
}
