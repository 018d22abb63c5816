package httpapi

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"
	"strings"

	"postcare/internal/service"

	"go.uber.org/zap"
)

const maxBodyBytes = 1 << 20

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func parseInt(s string, def int) int {
	if s == "" {
		return def
	}
	i, err := strconv.Atoi(s)
	if err != nil {
		return def
	}
	return i
}

var errEmptyBody = errors.New("request body is required")

func readBodyJSON(r *http.Request, maxBytes int64, out any) error {
	body, err := io.ReadAll(io.LimitReader(r.Body, maxBytes))
	if err != nil {
		return err
	}
	if len(body) == 0 {
		return nil
	}
	return json.Unmarshal(body, out)
}

// readRequiredBodyJSON 同 readBodyJSON，但空请求体返回 errEmptyBody
func readRequiredBodyJSON(r *http.Request, maxBytes int64, out any) error {
	body, err := io.ReadAll(io.LimitReader(r.Body, maxBytes))
	if err != nil {
		return err
	}
	if len(strings.TrimSpace(string(body))) == 0 {
		return errEmptyBody
	}
	return json.Unmarshal(body, out)
}

// Identity 当前请求的用户（由上游网关注入 X-User-Id / X-User-Role）
type Identity struct {
	UserID string
	Role   string
}

// identityFromReq 读取身份头；缺失时直接写 401
func identityFromReq(w http.ResponseWriter, r *http.Request) (Identity, bool) {
	id := Identity{
		UserID: strings.TrimSpace(r.Header.Get("X-User-Id")),
		Role:   strings.ToUpper(strings.TrimSpace(r.Header.Get("X-User-Role"))),
	}
	if id.UserID == "" || id.Role == "" {
		writeJSON(w, http.StatusUnauthorized, Fail("user identity is required"))
		return Identity{}, false
	}
	return id, true
}

// requireRole 身份校验 + 角色限制；roles 为空表示任意角色
func requireRole(w http.ResponseWriter, r *http.Request, roles ...string) (Identity, bool) {
	id, ok := identityFromReq(w, r)
	if !ok {
		return id, false
	}
	if len(roles) == 0 {
		return id, true
	}
	for _, role := range roles {
		if id.Role == role {
			return id, true
		}
	}
	writeJSON(w, http.StatusForbidden, Fail("access denied for role "+id.Role))
	return Identity{}, false
}

// pathParam 去掉前缀/后缀后取出单段路径参数；不合法返回 ""
func pathParam(path, prefix, suffix string) string {
	if !strings.HasPrefix(path, prefix) || !strings.HasSuffix(path, suffix) {
		return ""
	}
	v := strings.TrimSuffix(strings.TrimPrefix(path, prefix), suffix)
	if v == "" || strings.Contains(v, "/") {
		return ""
	}
	return v
}

// statusForError 业务错误 → HTTP 状态码
func statusForError(err error) int {
	switch {
	case errors.Is(err, service.ErrInvalidCheckIn),
		errors.Is(err, service.ErrInvalidPlan),
		errors.Is(err, service.ErrPatientIDRequired),
		errors.Is(err, service.ErrAlreadyCheckedIn):
		return http.StatusBadRequest
	case errors.Is(err, service.ErrNotAuthorized):
		return http.StatusForbidden
	case errors.Is(err, service.ErrPlanNotFound),
		errors.Is(err, service.ErrAlertNotFound),
		errors.Is(err, service.ErrPatientNotFound):
		return http.StatusNotFound
	}
	return http.StatusInternalServerError
}

// writeServiceError 业务错误原样返回；内部错误只记日志
func writeServiceError(w http.ResponseWriter, logger *zap.Logger, r *http.Request, err error) {
	status := statusForError(err)
	if status == http.StatusInternalServerError {
		logger.Error("Request failed",
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.Error(err),
		)
		writeJSON(w, status, Fail("internal server error"))
		return
	}
	writeJSON(w, status, Fail(err.Error()))
}
