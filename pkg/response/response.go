package response

// Response represents a standard API response format
type Response struct {
	Status     string            `json:"status"`      // "success" or "error"
	StatusCode int               `json:"status_code"` // HTTP status code
	Data       interface{}       `json:"data,omitempty"`
	Error      string            `json:"error,omitempty"`
	Code       string            `json:"code,omitempty"`    // machine-readable error code
	Fields     map[string]string `json:"fields,omitempty"`  // field-scoped validation messages
	Details    map[string]any    `json:"details,omitempty"` // extra error context
}

// Success returns a standard success response wrapping the data
func Success(statusCode int, data interface{}) Response {
	return Response{
		Status:     "success",
		StatusCode: statusCode,
		Data:       data,
	}
}

// Error returns a standard error response wrapping the error message
func Error(statusCode int, err string) Response {
	return Response{
		Status:     "error",
		StatusCode: statusCode,
		Error:      err,
	}
}

// FieldError returns an error response whose message belongs to one request field
func FieldError(statusCode int, code, field, message string, details map[string]any) Response {
	res := Error(statusCode, message)
	res.Code = code
	res.Details = details
	if field != "" {
		res.Fields = map[string]string{field: message}
	}
	return res
}

// Page wraps a list payload with its paging metadata
func Page(key string, items interface{}, total int64, page, limit int) map[string]interface{} {
	return map[string]interface{}{
		key:     items,
		"total": total,
		"page":  page,
		"limit": limit,
	}
}
