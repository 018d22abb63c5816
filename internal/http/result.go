package httpapi

// Result 统一响应包
// code 为 2000 表示成功、-1 表示失败；type 与之对应（success / error）
// 失败时 message 是给前端展示的原因，result 为 null
type Result[T any] struct {
	Code    int    `json:"code"`
	Type    string `json:"type"`
	Message string `json:"message"`
	Result  T      `json:"result"`
}

const (
	ResultSuccess = 2000
	ResultError   = -1

	ResultTypeSuccess = "success"
	ResultTypeError   = "error"
)

// Ok 成功响应
func Ok[T any](result T) Result[T] {
	return Result[T]{Code: ResultSuccess, Type: ResultTypeSuccess, Message: "ok", Result: result}
}

// Fail 失败响应
func Fail(message string) Result[any] {
	return Result[any]{Code: ResultError, Type: ResultTypeError, Message: message}
}
