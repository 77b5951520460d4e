package models

type TaskType string

const (
	TaskPhysical TaskType = "PHYSICAL"
	TaskDigital  TaskType = "DIGITAL"
)

type AssignmentStatus string

const (
	AssignmentPending  AssignmentStatus = "PENDING"
	AssignmentComplete AssignmentStatus = "COMPLETE"
)

// CatalogTask is one entry of the fixed task catalog the pool is drawn from.
type CatalogTask struct {
	Label    string
	Type     TaskType
	QRID     string // physical tasks: printed tag identifier
	MiniID   string // digital tasks: mini-game identifier
	Location string
}
