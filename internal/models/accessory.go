package models

type AccessoryRole string

const (
	AccessoryMaster AccessoryRole = "MASTER"
	AccessorySlave  AccessoryRole = "SLAVE"
)

// ValidAccessoryRole reports whether s is MASTER or SLAVE.
func ValidAccessoryRole(s string) bool {
	switch AccessoryRole(s) {
	case AccessoryMaster, AccessorySlave:
		return true
	}
	return false
}
