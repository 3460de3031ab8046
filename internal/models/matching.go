package models

// TimeSlot is a recurring weekly interval in minutes from midnight.
// Valid slots satisfy EndMinute > StartMinute.
type TimeSlot struct {
	DayOfWeek   int `json:"day_of_week" validate:"gte=0,lte=6"`
	StartMinute int `json:"start_minute" validate:"gte=0,lte=1440"`
	EndMinute   int `json:"end_minute" validate:"gte=0,lte=1440,gtfield=StartMinute"`
}

// Minutes returns the slot length, floored at zero.
func (s TimeSlot) Minutes() int {
	if s.EndMinute <= s.StartMinute {
		return 0
	}
	return s.EndMinute - s.StartMinute
}

// MatchingRequest describes what a student is looking for. Constructed
// per query, never persisted.
type MatchingRequest struct {
	SubjectID     string     `json:"subject_id" validate:"required"`
	GradeLevel    string     `json:"grade_level"`
	City          string     `json:"city"`
	District      string     `json:"district"`
	BudgetPerHour float64    `json:"budget_per_hour" validate:"gt=0"`
	DesiredSlots  []TimeSlot `json:"desired_slots" validate:"dive"`
	Description   string     `json:"description"`
}

// MatchedTutor is one ranked entry in a matching result.
type MatchedTutor struct {
	Tutor   CandidateTutor `json:"tutor"`
	Score   float64        `json:"score"`
	Reasons []string       `json:"reasons"`
}
