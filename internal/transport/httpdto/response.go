package httpdto

type Response[T any] struct {
	Success bool   `json:"success"`
	Data    T      `json:"data,omitempty"`
	Error   string `json:"error,omitempty"`
	Code    string `json:"code,omitempty"`
}

func NewSuccessResponse[T any](data T) Response[T] {
	return Response[T]{
		Success: true,
		Data:    data,
	}
}

func NewErrorResponse(err string, code string) Response[any] {
	return Response[any]{
		Success: false,
		Error:   err,
		Code:    code,
	}
}

// MessageResponse is the bare {"message": ...} body of informational routes.
type MessageResponse struct {
	Message string `json:"message"`
}

// InfoResponse is returned by the root route.
type InfoResponse struct {
	Title       string `json:"title"`
	Environment string `json:"environment"`
	Connections int    `json:"connections"`
	Online      *int64 `json:"online,omitempty"`
}
