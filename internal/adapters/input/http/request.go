package http

// AuthorizationCallbackRequest struct - Query of the OAuth redirect
type AuthorizationCallbackRequest struct {
	State string `json:"state" validate:"required" query:"state"`
	Code  string `json:"code" validate:"required" query:"code"`
	Error string `json:"error" validate:"omitempty" query:"error"`
}
