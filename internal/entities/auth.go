package entities

type RequestOTPRequest struct {
	Phone string `json:"phone"`
}

type RequestOTPResponse struct {
	Message string `json:"message"`
	// RetryAfterSeconds is set when the resend cooldown rejected the request.
	RetryAfterSeconds int `json:"retry_after_seconds,omitempty"`
}

type VerifyOTPRequest struct {
	Phone string `json:"phone"`
	Code  string `json:"code"`
}

type VerifyOTPResponse struct {
	Token         string `json:"token"`
	Authenticated bool   `json:"authenticated"`
	HasVehicle    bool   `json:"has_vehicle"`
}
