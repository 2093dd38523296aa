// Package notify – templates
//
// Korean-language email templates for verification decisions and lead-thread
// messages. Kept as plain string builders; the bodies are short enough that a
// template engine would add more than it saves.
package notify

import "fmt"

// Notification types recorded on delivery rows.
const (
	TypeVerificationApproved = "verification.approved"
	TypeVerificationRejected = "verification.rejected"
	TypeLeadMessageReceived  = "lead.message_received"
)

// VerificationApprovedMail builds the approval notice for a doctor whose
// license verification was accepted.
func VerificationApprovedMail(to, displayName string) Message {
	return Message{
		To:      to,
		Subject: "[메디허브] 한의사 인증이 승인되었습니다",
		Body: fmt.Sprintf(
			"<p>%s님, 안녕하세요.</p>"+
				"<p>제출하신 한의사 면허 인증이 승인되었습니다. 이제 업체에 견적 문의를 보낼 수 있습니다.</p>"+
				"<p>메디허브 드림</p>",
			displayName),
	}
}

// VerificationRejectedMail builds the rejection notice. reason may be empty.
func VerificationRejectedMail(to, displayName, reason string) Message {
	body := fmt.Sprintf(
		"<p>%s님, 안녕하세요.</p>"+
			"<p>제출하신 한의사 면허 인증이 반려되었습니다.</p>",
		displayName)
	if reason != "" {
		body += fmt.Sprintf("<p>반려 사유: %s</p>", reason)
	}
	body += "<p>정보를 확인하신 후 다시 제출해 주세요.</p><p>메디허브 드림</p>"
	return Message{
		To:      to,
		Subject: "[메디허브] 한의사 인증이 반려되었습니다",
		Body:    body,
	}
}

// LeadMessageMail builds the new-message notice for the counterparty of a
// lead thread. preview is already clipped by the caller.
func LeadMessageMail(to, recipientName, senderName, preview string) Message {
	return Message{
		To:      to,
		Subject: fmt.Sprintf("[메디허브] %s님으로부터 새 메시지가 도착했습니다", senderName),
		Body: fmt.Sprintf(
			"<p>%s님, 안녕하세요.</p>"+
				"<p>%s님이 문의에 새 메시지를 남겼습니다.</p>"+
				"<p>%s</p>"+
				"<p>전체 대화는 메디허브에서 확인해 주세요.</p>"+
				"<p>메디허브 드림</p>",
			recipientName, senderName, preview),
	}
}
