package model

// TherapyConstraints captures hard timing requirements a therapy imposes on
// every one of its sessions.
type TherapyConstraints struct {
	PreferredTime   TimeOfDay // soft preference, scored not enforced
	SpecificTime    ClockTime // exact required start; 0 with HasSpecificTime=false means none
	HasSpecificTime bool
	RequiresFasting bool // fasting sessions must start before 10:00
}

// ResourceRequirements lists what a therapy needs from the clinic.
type ResourceRequirements struct {
	SkillLevel string
	Room       string
	Equipment  []string
}

// Therapy is a master-catalog entry. It is read-only to the scheduling
// engine; an unresolved therapy reference aborts a run.
type Therapy struct {
	ID               string
	Name             string
	Type             string
	StandardDuration int // minutes
	BufferTime       int // minutes of cleanup/rest after a session
	Constraints      TherapyConstraints
	Resources        ResourceRequirements
}
