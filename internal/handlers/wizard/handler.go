// internal/handlers/wizard/handler.go
package wizard

import (
	"context"
	"encoding/json"
	stderrors "errors"
	"fmt"
	"io"
	"mime"
	"net/http"
	"strconv"
	"strings"

	"github.com/labstack/echo/v4"

	"rental-portal/internal/audit"
	"rental-portal/internal/common/errors"
	"rental-portal/internal/common/logger"
	"rental-portal/internal/common/response"
	"rental-portal/internal/session"
	"rental-portal/internal/wizard"
)

const (
	RouteGroup = "wizard"

	multipartMemory = 8 << 20
)

// History lists past submit attempts of a user.
type History interface {
	Recent(ctx context.Context, owner string, limit int) ([]audit.Entry, error)
}

type Handler struct {
	service      *wizard.Service
	history      History
	maxFileBytes int64
	logger       logger.Logger
}

// NewHandler builds the draft routes. history may be nil when no audit
// database is configured.
func NewHandler(service *wizard.Service, history History, maxFileBytes int64, log logger.Logger) *Handler {
	return &Handler{
		service:      service,
		history:      history,
		maxFileBytes: maxFileBytes,
		logger:       log.WithFields(map[string]interface{}{"route": RouteGroup}),
	}
}

func (h *Handler) Register(e *echo.Echo) {
	g := e.Group("/api/wizards")
	g.GET("", h.HandleList)
	g.GET("/submissions", h.HandleHistory)
	g.POST("/:wizard/drafts", h.HandleStart)
	g.GET("/drafts/:id", h.HandleView)
	g.PATCH("/drafts/:id", h.HandleUpdate)
	g.DELETE("/drafts/:id", h.HandleDiscard)
	g.POST("/drafts/:id/next", h.HandleNext)
	g.POST("/drafts/:id/back", h.HandleBack)
	g.POST("/drafts/:id/submit", h.HandleSubmit)
}

func (h *Handler) HandleList(c echo.Context) error {
	defs := h.service.Definitions()
	out := make([]WizardSummary, 0, len(defs))
	for i := range defs {
		d := &defs[i]
		out = append(out, WizardSummary{
			ID:             d.ID,
			DisplayName:    d.DisplayName,
			Description:    d.Description,
			PropertyScoped: d.PropertyScoped,
			TotalSteps:     d.TotalSteps(),
			FileFields:     d.FileFields,
			ListFields:     d.ListFields,
		})
	}
	return response.Success(c, "", out)
}

func (h *Handler) HandleStart(c echo.Context) error {
	var req StartRequest
	if c.Request().ContentLength != 0 {
		if err := c.Bind(&req); err != nil {
			return errors.NewInvalidInputError("malformed request body")
		}
	}
	if req.PropertyID == "" {
		req.PropertyID = c.QueryParam("propertyId")
	}

	view, err := h.service.Start(c.Request().Context(), session.FromContext(c), c.Param("wizard"), strings.TrimSpace(req.PropertyID))
	if err != nil {
		return err
	}
	return response.Created(c, "Draft created", view)
}

func (h *Handler) HandleView(c echo.Context) error {
	view, err := h.service.View(c.Request().Context(), session.FromContext(c), c.Param("id"))
	if err != nil {
		return err
	}
	return response.Success(c, "", view)
}

func (h *Handler) HandleUpdate(c echo.Context) error {
	partial, err := h.readPartial(c)
	if err != nil {
		return err
	}
	view, err := h.service.Update(c.Request().Context(), session.FromContext(c), c.Param("id"), partial)
	if err != nil {
		return err
	}
	return response.Success(c, "Saved", view)
}

// HandleNext accepts the same optional partial as PATCH so a page can save
// and advance in one request.
func (h *Handler) HandleNext(c echo.Context) error {
	partial, err := h.readPartial(c)
	if err != nil {
		return err
	}
	view, err := h.service.Next(c.Request().Context(), session.FromContext(c), c.Param("id"), partial)
	if err != nil {
		return err
	}
	return response.Success(c, "", view)
}

func (h *Handler) HandleBack(c echo.Context) error {
	view, err := h.service.Back(c.Request().Context(), session.FromContext(c), c.Param("id"))
	if err != nil {
		return err
	}
	return response.Success(c, "", view)
}

func (h *Handler) HandleDiscard(c echo.Context) error {
	if err := h.service.Discard(c.Request().Context(), session.FromContext(c), c.Param("id")); err != nil {
		return err
	}
	return c.NoContent(http.StatusNoContent)
}

func (h *Handler) HandleSubmit(c echo.Context) error {
	receipt, err := h.service.Submit(c.Request().Context(), session.FromContext(c), c.Param("id"))
	if err != nil {
		return err
	}
	return response.Success(c, "Submitted", SubmitResponse{Receipt: receipt})
}

func (h *Handler) HandleHistory(c echo.Context) error {
	if h.history == nil {
		return response.Success(c, "", HistoryResponse{Submissions: []audit.Entry{}})
	}
	who := session.FromContext(c)
	if who == nil {
		return errors.NewSessionInvalidError("no identity")
	}
	limit, _ := strconv.Atoi(c.QueryParam("limit"))
	entries, err := h.history.Recent(c.Request().Context(), who.Email, limit)
	if err != nil {
		return errors.NewStorageFailedError("audit history", err)
	}
	return response.Success(c, "", HistoryResponse{Submissions: entries})
}

// readPartial decodes a JSON object or a multipart form into form state.
// An empty body is an empty partial.
func (h *Handler) readPartial(c echo.Context) (wizard.FormState, error) {
	req := c.Request()
	if req.ContentLength == 0 {
		return wizard.FormState{}, nil
	}

	mediaType, _, _ := mime.ParseMediaType(req.Header.Get(echo.HeaderContentType))
	switch mediaType {
	case echo.MIMEMultipartForm:
		return h.readMultipart(req)
	case echo.MIMEApplicationJSON, "":
		return readJSON(req.Body)
	default:
		return nil, errors.NewInvalidInputError(fmt.Sprintf("unsupported content type %q", mediaType))
	}
}

func readJSON(body io.Reader) (wizard.FormState, error) {
	var raw map[string]interface{}
	if err := json.NewDecoder(body).Decode(&raw); err != nil {
		if stderrors.Is(err, io.EOF) {
			return wizard.FormState{}, nil
		}
		return nil, errors.NewInvalidInputError("body must be a JSON object")
	}
	state, err := wizard.NormalizeState(raw)
	if err != nil {
		return nil, errors.NewInvalidInputError(err.Error())
	}
	return state, nil
}

// readMultipart maps text parts to strings (repeated names to lists) and file
// parts to *wizard.File. Names listed under _clear are set to nil. Fields the
// registry declares as lists are made lists by the controller, whatever the
// number of parts.
func (h *Handler) readMultipart(req *http.Request) (wizard.FormState, error) {
	if err := req.ParseMultipartForm(multipartMemory); err != nil {
		return nil, errors.NewInvalidInputError("malformed multipart body")
	}
	form := req.MultipartForm
	defer form.RemoveAll()

	state := wizard.FormState{}
	for name, values := range form.Value {
		if name == ClearField {
			continue
		}
		if len(values) == 1 {
			state[name] = values[0]
		} else {
			state[name] = append([]string(nil), values...)
		}
	}
	for _, names := range form.Value[ClearField] {
		for _, name := range strings.Split(names, ",") {
			if name = strings.TrimSpace(name); name != "" {
				state[name] = nil
			}
		}
	}

	for name, headers := range form.File {
		if len(headers) == 0 {
			continue
		}
		if len(headers) > 1 {
			return nil, errors.NewInvalidFileFieldError(name, "only one file per field")
		}
		fh := headers[0]
		if h.maxFileBytes > 0 && fh.Size > h.maxFileBytes {
			return nil, errors.NewFileTooLargeError(name, fh.Size, h.maxFileBytes)
		}
		f, err := fh.Open()
		if err != nil {
			return nil, errors.NewInvalidInputError(fmt.Sprintf("unreadable upload %q", name))
		}
		data, err := io.ReadAll(f)
		f.Close()
		if err != nil {
			return nil, errors.NewInvalidInputError(fmt.Sprintf("unreadable upload %q", name))
		}
		state[name] = &wizard.File{
			Name:        fh.Filename,
			ContentType: fh.Header.Get(echo.HeaderContentType),
			Size:        int64(len(data)),
			Data:        data,
		}
	}
	return state, nil
}
