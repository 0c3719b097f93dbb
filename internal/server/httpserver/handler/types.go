package handler

import "time"

// Response is the JSON envelope for every operational endpoint.
type Response struct {
	Code      string `json:"code"`
	Message   string `json:"message"`
	RequestID string `json:"request_id"`
	Timestamp int64  `json:"timestamp"`
	Data      any    `json:"data,omitempty"`
}

// NewResponse returns an OK envelope around data.
func NewResponse(requestID string, data any) *Response {
	resp := NewErrorResponse(requestID, "OK", "Success")
	resp.Data = data
	return resp
}

// NewErrorResponse returns an envelope carrying code and message.
func NewErrorResponse(requestID, code, message string) *Response {
	return &Response{Code: code, Message: message, RequestID: requestID, Timestamp: time.Now().UnixMilli()}
}

// HealthResponse is the body of GET /health.
type HealthResponse struct {
	Status      string `json:"status"`
	ServerID    string `json:"server_id"`
	Version     string `json:"version"`
	Commit      string `json:"commit"`
	Address     string `json:"address,omitempty"`
	Connections int64  `json:"connections"`
	Time        string `json:"time"`
}
