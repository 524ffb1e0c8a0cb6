package model

// Role is the acting user's role in the host application.
type Role string

const (
	RolePatient   Role = "patient"
	RoleTherapist Role = "therapist"
)

// User is the authenticated principal as seen by the notification client.
type User struct {
	ID   string
	Role Role
}
