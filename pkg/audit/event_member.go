package audit

import "fmt"

// EnrollEvent records a member being added to a channel.
type EnrollEvent struct {
	ChannelID    string
	Email        string
	IsAdmin      bool
	Success      bool
	ErrorMessage string
}

func (e EnrollEvent) MessageID() string {
	return "enroll"
}

func (e EnrollEvent) Message() string {
	role := "member"
	if e.IsAdmin {
		role = "admin"
	}
	if e.Success {
		return fmt.Sprintf("enrolled %s in channel %s as %s", e.Email, e.ChannelID, role)
	}
	msg := fmt.Sprintf("failed to enroll %s in channel %s as %s", e.Email, e.ChannelID, role)
	if e.ErrorMessage != "" {
		msg += ": " + e.ErrorMessage
	}
	return msg
}

func (e EnrollEvent) Severity() Severity {
	if e.Success {
		return SeverityInfo
	}
	return SeverityWarning
}

func (e EnrollEvent) StructuredData() map[string]map[string]string {
	role := "member"
	if e.IsAdmin {
		role = "admin"
	}
	return map[string]map[string]string{
		SDIDSubject: {
			"channel": e.ChannelID,
			"email":   e.Email,
		},
		SDIDAction: {
			"operation": "enroll",
			"role":      role,
			"result":    resultString(e.Success),
		},
	}
}

// RemoveEvent records a member being removed from a channel.
type RemoveEvent struct {
	ChannelID    string
	Email        string
	Orphan       bool
	Success      bool
	ErrorMessage string
}

func (e RemoveEvent) MessageID() string {
	return "remove"
}

func (e RemoveEvent) Message() string {
	subject := e.Email
	if e.Orphan {
		subject = "orphan " + subject
	}
	if e.Success {
		return fmt.Sprintf("removed %s from channel %s", subject, e.ChannelID)
	}
	msg := fmt.Sprintf("failed to remove %s from channel %s", subject, e.ChannelID)
	if e.ErrorMessage != "" {
		msg += ": " + e.ErrorMessage
	}
	return msg
}

func (e RemoveEvent) Severity() Severity {
	if e.Success {
		return SeverityInfo
	}
	return SeverityWarning
}

func (e RemoveEvent) StructuredData() map[string]map[string]string {
	return map[string]map[string]string{
		SDIDSubject: {
			"channel": e.ChannelID,
			"email":   e.Email,
		},
		SDIDAction: {
			"operation": "remove",
			"orphan":    fmt.Sprintf("%t", e.Orphan),
			"result":    resultString(e.Success),
		},
	}
}

// RoleChangeEvent records a member's privilege flip.
type RoleChangeEvent struct {
	ChannelID    string
	LocalUserID  string
	IsAdmin      bool
	Success      bool
	ErrorMessage string
}

func (e RoleChangeEvent) MessageID() string {
	return "role-change"
}

func (e RoleChangeEvent) Message() string {
	role := "member"
	if e.IsAdmin {
		role = "admin"
	}
	if e.Success {
		return fmt.Sprintf("changed role of user %s in channel %s to %s", e.LocalUserID, e.ChannelID, role)
	}
	msg := fmt.Sprintf("failed to change role of user %s in channel %s to %s", e.LocalUserID, e.ChannelID, role)
	if e.ErrorMessage != "" {
		msg += ": " + e.ErrorMessage
	}
	return msg
}

func (e RoleChangeEvent) Severity() Severity {
	if e.Success {
		return SeverityInfo
	}
	return SeverityWarning
}

func (e RoleChangeEvent) StructuredData() map[string]map[string]string {
	role := "member"
	if e.IsAdmin {
		role = "admin"
	}
	return map[string]map[string]string{
		SDIDSubject: {
			"channel": e.ChannelID,
			"user":    e.LocalUserID,
		},
		SDIDAction: {
			"operation": "role-change",
			"role":      role,
			"result":    resultString(e.Success),
		},
	}
}

func resultString(success bool) string {
	if success {
		return "success"
	}
	return "failure"
}
