// Package handlers defines the HTTP-layer result codes used across all API
// endpoints.
//
// This file centralizes the four-digit code constants carried in every
// response envelope (via the helpers in response.go). The codes are a stable,
// machine-readable taxonomy that supplements HTTP status and human-readable
// messages; clients branch on the code, not the message.
//
// Conventions:
//   - "0000" is the only success code.
//   - 4xxx codes mirror common HTTP semantics (4000 bad request, 4040 not
//     found, 4090 conflict, 4290 too many requests).
//   - 5000 is the generic internal error.
//   - 8xxx codes are authorization outcomes: 8999 unauthenticated, 8991
//     role mismatch, 8001 approval gate not passed (the response carries the
//     current verification status in details).
//
// Example response:
//
//	HTTP/1.1 403 Forbidden
//	{
//	  "code": "8001",
//	  "message": "승인이 필요합니다",
//	  "details": { "status": "pending" }
//	}
package handlers

const (
	CodeSuccess          = "0000"
	CodeBadRequest       = "4000"
	CodeNotFound         = "4040"
	CodeConflict         = "4090"
	CodeTooManyRequests  = "4290"
	CodeInternal         = "5000"
	CodeUnauthorized     = "8999"
	CodeForbidden        = "8991"
	CodeApprovalRequired = "8001"
)

// Default user-facing messages per code. Handlers override them when a more
// specific message exists (e.g. the doctor-cancel rule).
const (
	MsgBadRequest         = "잘못된 요청입니다"
	MsgNotFound           = "리소스를 찾을 수 없습니다"
	MsgConflict           = "이미 처리된 요청입니다"
	MsgTooManyRequests    = "요청이 너무 많습니다"
	MsgInternal           = "서버 오류가 발생했습니다"
	MsgUnauthorized       = "로그인이 필요합니다"
	MsgNoProfile          = "프로필이 없습니다"
	MsgForbidden          = "권한이 없습니다"
	MsgApprovalRequired   = "승인이 필요합니다"
	MsgDoctorCancelOnly   = "한의사는 문의 취소만 가능합니다"
	MsgAdminCannotMessage = "관리자는 메시지를 작성할 수 없습니다"
)
