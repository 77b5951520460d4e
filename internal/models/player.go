package models

type PlayerRole string

const (
	RoleCrewmate PlayerRole = "CREWMATE"
	RoleImpostor PlayerRole = "IMPOSTOR"
	RoleSnitch   PlayerRole = "SNITCH"
)

// ValidPlayerRole reports whether s is one of the closed role values.
func ValidPlayerRole(s string) bool {
	switch PlayerRole(s) {
	case RoleCrewmate, RoleImpostor, RoleSnitch:
		return true
	}
	return false
}
