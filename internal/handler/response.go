package handler

// Response is the envelope every endpoint returns. Message is only set on
// errors; Meta only on paginated lists.
type Response struct {
	Status  string      `json:"status"`
	Message string      `json:"message,omitempty"`
	Data    interface{} `json:"data,omitempty"`
	Meta    *ListMeta   `json:"meta,omitempty"`
}

type ListMeta struct {
	Page     int `json:"page,omitempty"`
	PageSize int `json:"page_size,omitempty"`
	Count    int `json:"count"`
}

func NewSuccessResponse(data interface{}) *Response {
	return &Response{
		Status: "success",
		Data:   data,
	}
}

func NewListResponse(data interface{}, meta ListMeta) *Response {
	return &Response{
		Status: "success",
		Data:   data,
		Meta:   &meta,
	}
}

func NewErrorResponse(message string) *Response {
	return &Response{
		Status:  "error",
		Message: message,
	}
}
