package submission

import (
	"errors"
	"fmt"
	"html/template"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"go.uber.org/zap"

	"webformular/internal/pkg/response"
)

// Admin actions.
const (
	ActionList   = "list"
	ActionExport = "export"
	ActionDelete = "delete"
)

type adminListPage struct {
	Submissions []SubmissionResponse
	Total       int
	Filter      Filter
	FormToken   string
	Notice      string
	BaseURL     template.URL
	SelfURL     template.URL
}

// AdminList handles GET /admin/submissions
//
// action=export streams the filtered set as CSV, anything else lists it.
func (h *Handler) AdminList(c *gin.Context) {
	f, ok := h.bindFilter(c)
	if !ok {
		return
	}

	if c.Query("action") == ActionExport {
		h.export(c, f)
		return
	}
	h.renderList(c, f, "")
}

// AdminAction handles POST /admin/submissions (delete, export)
func (h *Handler) AdminAction(c *gin.Context) {
	f, ok := h.bindFilter(c)
	if !ok {
		return
	}

	switch c.PostForm("action") {
	case ActionExport:
		h.export(c, f)
	case ActionDelete:
		h.deleteSelected(c, f)
	default:
		response.Error(c, http.StatusBadRequest, "UNKNOWN_ACTION", "Unknown admin action")
	}
}

func (h *Handler) deleteSelected(c *gin.Context, f Filter) {
	if !h.service.VerifyToken(c.Request.Context(), c.PostForm("form_token"), AdminFormID) {
		response.Error(c, http.StatusForbidden, "INVALID_FORM_TOKEN", "The page has expired, reload it and try again")
		return
	}

	ids, err := parseIDs(c.PostFormArray("ids"))
	if err != nil {
		response.Error(c, http.StatusBadRequest, "INVALID_ID", "Invalid submission ID")
		return
	}

	n, err := h.service.Delete(c.Request.Context(), ids)
	if err != nil {
		h.log.Error("bulk delete failed", zap.Error(err))
		reportError(c, err)
		response.Error(c, http.StatusInternalServerError, "INTERNAL_ERROR", "Submissions could not be deleted")
		return
	}

	h.renderList(c, f, fmt.Sprintf("%d submission(s) deleted.", n))
}

// export writes the filtered submissions as CSV and ends the response.
func (h *Handler) export(c *gin.Context, f Filter) {
	subs, err := h.service.List(c.Request.Context(), f)
	if err != nil {
		h.log.Error("export query failed", zap.Error(err))
		reportError(c, err)
		response.Error(c, http.StatusInternalServerError, "INTERNAL_ERROR", "Export failed")
		return
	}

	c.Header("Content-Type", "text/csv; charset=utf-8")
	c.Header("Content-Disposition", `attachment; filename="export.csv"`)
	c.Status(http.StatusOK)

	if err := WriteCSV(c.Writer, subs); err != nil {
		h.log.Error("csv export write failed", zap.Error(err))
	}
	c.Abort()
}

func (h *Handler) renderList(c *gin.Context, f Filter, notice string) {
	subs, err := h.service.List(c.Request.Context(), f)
	if err != nil {
		h.log.Error("list submissions failed", zap.Error(err))
		reportError(c, err)
		response.Error(c, http.StatusInternalServerError, "INTERNAL_ERROR", "Submissions could not be loaded")
		return
	}

	token, err := h.service.IssueToken(AdminFormID)
	if err != nil {
		h.log.Error("failed to issue admin form token", zap.Error(err))
		response.Error(c, http.StatusInternalServerError, "INTERNAL_ERROR", "Submissions could not be loaded")
		return
	}

	items := toResponses(subs)
	if wantsJSON(c) {
		response.Success(c, http.StatusOK, ListResponse{
			Submissions: items,
			Total:       len(items),
			Filter:      f,
			FormToken:   token,
		})
		return
	}

	c.HTML(http.StatusOK, "admin_list.html", adminListPage{
		Submissions: items,
		Total:       len(items),
		Filter:      f,
		FormToken:   token,
		Notice:      notice,
		BaseURL:     template.URL(c.Request.URL.Path),
		SelfURL:     template.URL(selfURL(c.Request.URL.Path, f)),
	})
}

func (h *Handler) bindFilter(c *gin.Context) (Filter, bool) {
	var f Filter
	if err := c.ShouldBindWith(&f, binding.Form); err != nil {
		response.Error(c, http.StatusBadRequest, "INVALID_FILTER", "Invalid filter")
		return Filter{}, false
	}
	return f.Normalize(), true
}

// selfURL keeps the active filter in the query string so that actions posted
// from the list apply to the same set.
func selfURL(path string, f Filter) string {
	q := url.Values{}
	for name, v := range map[string]string{
		"first_name": f.FirstName,
		"last_name":  f.LastName,
		"email":      f.Email,
	} {
		if v != "" {
			q.Set(name, v)
		}
	}
	if len(q) == 0 {
		return path
	}
	return path + "?" + q.Encode()
}

func parseIDs(raw []string) ([]int64, error) {
	ids := make([]int64, 0, len(raw))
	for _, s := range raw {
		id, err := strconv.ParseInt(strings.TrimSpace(s), 10, 64)
		if err != nil || id <= 0 {
			return nil, errors.Join(ErrInvalidID, err)
		}
		ids = append(ids, id)
	}
	return ids, nil
}
