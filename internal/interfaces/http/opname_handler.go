package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/jhoicas/opname-api/internal/application/dto"
	"github.com/jhoicas/opname-api/internal/application/opname"
	"github.com/jhoicas/opname-api/internal/domain/entity"
	"github.com/jhoicas/opname-api/internal/domain/repository"
)

// OpnameHandler maneja las sesiones de conteo físico (protegido).
type OpnameHandler struct {
	uc *opname.UseCase
}

// NewOpnameHandler construye el handler.
func NewOpnameHandler(uc *opname.UseCase) *OpnameHandler {
	return &OpnameHandler{uc: uc}
}

// CreateSession godoc
// @Summary      Abrir sesión de opname
// @Tags         opname
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        body  body      dto.CreateSessionRequest  false  "outlet_id opcional, notas"
// @Success      201   {object}  dto.SessionResponse
// @Failure      400   {object}  dto.ErrorResponse
// @Failure      404   {object}  dto.ErrorResponse
// @Router       /api/opname/sessions [post]
func (h *OpnameHandler) CreateSession(c *fiber.Ctx) error {
	userID := GetUserID(c)
	if userID == "" {
		return unauthorized(c)
	}
	var in dto.CreateSessionRequest
	if len(c.Body()) > 0 {
		if err := c.BodyParser(&in); err != nil {
			return invalidBody(c)
		}
	}
	s, err := h.uc.CreateSession(c.Context(), opname.CreateSessionInput{
		OutletID: in.OutletID,
		Notes:    in.Notes,
		ActorID:  userID,
	})
	if err != nil {
		return writeError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(toSessionResponse(s))
}

// ListSessions godoc
// @Summary      Listar sesiones de opname
// @Tags         opname
// @Security     Bearer
// @Produce      json
// @Param        status     query  string  false  "in_progress | completed | cancelled"
// @Param        outlet_id  query  string  false  "filtrar por outlet"
// @Param        limit      query  int     false  "máximo 100"
// @Param        offset     query  int     false  "desplazamiento"
// @Success      200  {object}  dto.SessionListResponse
// @Failure      400  {object}  dto.ErrorResponse
// @Router       /api/opname/sessions [get]
func (h *OpnameHandler) ListSessions(c *fiber.Ctx) error {
	page := dto.PageRequest{Limit: c.QueryInt("limit", 20), Offset: c.QueryInt("offset", 0)}
	page.DefaultPage()
	list, err := h.uc.ListSessions(c.Context(), repository.SessionFilter{
		Status:   entity.SessionStatus(c.Query("status")),
		OutletID: c.Query("outlet_id"),
		Limit:    page.Limit,
		Offset:   page.Offset,
	})
	if err != nil {
		return writeError(c, err)
	}
	items := make([]dto.SessionResponse, 0, len(list))
	for _, s := range list {
		items = append(items, toSessionResponse(s))
	}
	return c.JSON(dto.SessionListResponse{Items: items, Page: dto.PageResponse{Limit: page.Limit, Offset: page.Offset}})
}

// GetSession godoc
// @Summary      Detalle de sesión con ítems y resumen
// @Tags         opname
// @Security     Bearer
// @Produce      json
// @Param        id   path      string  true  "ID de sesión"
// @Success      200  {object}  dto.SessionDetailResponse
// @Failure      404  {object}  dto.ErrorResponse
// @Router       /api/opname/sessions/{id} [get]
func (h *OpnameHandler) GetSession(c *fiber.Ctx) error {
	detail, err := h.uc.GetSession(c.Context(), c.Params("id"))
	if err != nil {
		return writeError(c, err)
	}
	items := make([]dto.CountItemResponse, 0, len(detail.Items))
	for _, it := range detail.Items {
		items = append(items, toCountItemResponse(it))
	}
	return c.JSON(dto.SessionDetailResponse{
		Session: toSessionResponse(detail.Session),
		Items:   items,
		Summary: toSummaryResponse(detail.Summary),
	})
}

// RecordCount godoc
// @Summary      Registrar conteo de un producto
// @Description  Primer escaneo toma el stock agregado como system_stock; los reconteos solo cambian actual_stock.
// @Tags         opname
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        id    path      string                  true  "ID de sesión"
// @Param        body  body      dto.RecordCountRequest  true  "product_id o barcode, actual_stock"
// @Success      200   {object}  dto.CountItemResponse
// @Failure      400   {object}  dto.ErrorResponse
// @Failure      404   {object}  dto.ErrorResponse
// @Failure      409   {object}  dto.ErrorResponse
// @Router       /api/opname/sessions/{id}/counts [post]
func (h *OpnameHandler) RecordCount(c *fiber.Ctx) error {
	var in dto.RecordCountRequest
	if err := c.BodyParser(&in); err != nil {
		return invalidBody(c)
	}
	if in.ActualStock == nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "VALIDATION", Message: "actual_stock es requerido"})
	}
	item, err := h.uc.RecordCount(c.Context(), opname.RecordCountInput{
		SessionID:   c.Params("id"),
		ProductID:   in.ProductID,
		Barcode:     in.Barcode,
		ActualStock: *in.ActualStock,
	})
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(toCountItemResponse(item))
}

// CompleteSession godoc
// @Summary      Completar sesión y aplicar ajustes
// @Tags         opname
// @Security     Bearer
// @Produce      json
// @Param        id   path      string  true  "ID de sesión"
// @Success      200  {object}  dto.CompleteSessionResponse
// @Failure      404  {object}  dto.ErrorResponse
// @Failure      409  {object}  dto.ErrorResponse
// @Failure      500  {object}  dto.ErrorResponse
// @Router       /api/opname/sessions/{id}/complete [post]
func (h *OpnameHandler) CompleteSession(c *fiber.Ctx) error {
	userID := GetUserID(c)
	if userID == "" {
		return unauthorized(c)
	}
	res, err := h.uc.CompleteSession(c.Context(), c.Params("id"), userID)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(toCompleteResponse(res))
}

// CancelSession godoc
// @Summary      Cancelar sesión
// @Tags         opname
// @Security     Bearer
// @Produce      json
// @Param        id   path      string  true  "ID de sesión"
// @Success      200  {object}  dto.SessionResponse
// @Failure      404  {object}  dto.ErrorResponse
// @Failure      409  {object}  dto.ErrorResponse
// @Router       /api/opname/sessions/{id}/cancel [post]
func (h *OpnameHandler) CancelSession(c *fiber.Ctx) error {
	s, err := h.uc.CancelSession(c.Context(), c.Params("id"))
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(toSessionResponse(s))
}

// ListAdjustments godoc
// @Summary      Ajustes aplicados por la sesión
// @Tags         opname
// @Security     Bearer
// @Produce      json
// @Param        id   path      string  true  "ID de sesión"
// @Success      200  {array}   dto.AdjustmentResponse
// @Failure      404  {object}  dto.ErrorResponse
// @Router       /api/opname/sessions/{id}/adjustments [get]
func (h *OpnameHandler) ListAdjustments(c *fiber.Ctx) error {
	list, err := h.uc.ListAdjustments(c.Context(), c.Params("id"))
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(toAdjustmentResponses(list))
}

// Report godoc
// @Summary      Acta de opname en PDF
// @Tags         opname
// @Security     Bearer
// @Produce      application/pdf
// @Param        id   path  string  true  "ID de sesión"
// @Success      200  {file}    file
// @Failure      404  {object}  dto.ErrorResponse
// @Router       /api/opname/sessions/{id}/report.pdf [get]
func (h *OpnameHandler) Report(c *fiber.Ctx) error {
	id := c.Params("id")
	doc, err := h.uc.Report(c.Context(), id)
	if err != nil {
		return writeError(c, err)
	}
	c.Set(fiber.HeaderContentType, "application/pdf")
	c.Set(fiber.HeaderContentDisposition, `inline; filename="opname-`+id+`.pdf"`)
	return c.Send(doc)
}
