package models

// All returns every model in migration order
func All() []interface{} {
	return []interface{}{
		&Case{},
		&Participant{},
		&Driver{},
		&Damage{},
		&Decision{},
		&Appeal{},
		&ClientClaim{},
		&Recourse{},
		&Settlement{},
		&CaseNote{},
		&CaseDocument{},
		&Message{},
		&Attachment{},
		&MessageAssignment{},
		&Notification{},
		&AuditLog{},
	}
}
