package httpapi

// errorBody is the JSON error envelope shared by every endpoint.
type errorBody struct {
	OK     bool   `json:"ok"`
	Error  string `json:"error"`
	Detail string `json:"detail,omitempty"`
}

func Fail(message string) errorBody {
	return errorBody{OK: false, Error: message}
}

func FailDetail(message, detail string) errorBody {
	return errorBody{OK: false, Error: message, Detail: detail}
}
