package gateway

import (
	"encoding/json"
	"net/http"
)

// Response 统一应答信封。
type Response struct {
	Success   bool        `json:"success"`
	Message   string      `json:"message"`
	Data      interface{} `json:"data"`
	ErrorCode string      `json:"error_code,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func ok(w http.ResponseWriter, data interface{}, message string) {
	writeJSON(w, http.StatusOK, Response{Success: true, Message: message, Data: data})
}

// fail 业务失败仍回 200，靠信封里的 success/error_code 表达。
func fail(w http.ResponseWriter, message, code string) {
	writeJSON(w, http.StatusOK, Response{
		Success:   false,
		Message:   message,
		Data:      map[string]interface{}{},
		ErrorCode: code,
	})
}

func systemError(w http.ResponseWriter) {
	writeJSON(w, http.StatusInternalServerError, Response{
		Success:   false,
		Message:   "internal error",
		Data:      map[string]interface{}{},
		ErrorCode: "SYSTEM_ERROR",
	})
}

// decodeBody 解析 JSON 请求体；失败时直接写应答并返回 false。
func decodeBody(w http.ResponseWriter, r *http.Request, dst interface{}) bool {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		fail(w, "invalid request body", "INVALID_PARAMS")
		return false
	}
	return true
}
