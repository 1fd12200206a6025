package models

// RepairChange describes a single field correction.
type RepairChange struct {
	ID     string `json:"id"`
	Field  string `json:"field"`
	Before string `json:"before"`
	After  string `json:"after"`
}

// RepairReport summarises a repair run. Mutated counts distinct entities.
type RepairReport struct {
	Collection string         `json:"collection"`
	Changes    []RepairChange `json:"changes"`
	Mutated    int            `json:"mutated"`
	DryRun     bool           `json:"dryRun"`
}
