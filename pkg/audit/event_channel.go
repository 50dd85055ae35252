package audit

import "fmt"

// ChannelEvent records a channel being created or archived.
type ChannelEvent struct {
	ChannelID    string
	ChannelName  string
	Operation    string // "create" or "archive"
	Success      bool
	ErrorMessage string
}

func (e ChannelEvent) MessageID() string {
	return "channel"
}

func (e ChannelEvent) Message() string {
	subject := e.ChannelName
	if subject == "" {
		subject = e.ChannelID
	}
	if e.Success {
		return fmt.Sprintf("channel %s: %s", e.Operation, subject)
	}
	msg := fmt.Sprintf("channel %s failed: %s", e.Operation, subject)
	if e.ErrorMessage != "" {
		msg += ": " + e.ErrorMessage
	}
	return msg
}

func (e ChannelEvent) Severity() Severity {
	if e.Success {
		return SeverityNotice
	}
	return SeverityWarning
}

func (e ChannelEvent) StructuredData() map[string]map[string]string {
	return map[string]map[string]string{
		SDIDSubject: {
			"channel": e.ChannelID,
			"name":    e.ChannelName,
		},
		SDIDAction: {
			"operation": e.Operation,
			"result":    resultString(e.Success),
		},
	}
}
