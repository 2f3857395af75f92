package api

import "github.com/cxd309/trip-engine/internal/snapshot"

type errcode int

const (
	errBadRequest errcode = 10001 + iota
	errInvalidInput
	errInfeasible
	errInternalServer
)

func (e errcode) String() string {
	switch e {
	case errBadRequest:
		return "malformed request"
	case errInvalidInput:
		return "invalid input"
	case errInfeasible:
		return "no feasible solution"
	case errInternalServer:
		return "internal error"
	default:
		return "unknown error"
	}
}

type apiResponse struct {
	Code    errcode `json:"code"`
	Message string  `json:"message"`
	Data    any     `json:"data,omitempty"`
}

func success(data any) apiResponse {
	return apiResponse{
		Code:    0,
		Message: "success",
		Data:    data,
	}
}

func fail(code errcode, message string) apiResponse {
	return apiResponse{
		Code:    code,
		Message: code.String() + ": " + message,
	}
}

type diffRequest struct {
	Frozen  snapshot.Snapshot `json:"frozen"`
	Current snapshot.Snapshot `json:"current"`
}

type diffResponse struct {
	Stale   bool              `json:"stale"`
	Changes []snapshot.Change `json:"changes"`
}
