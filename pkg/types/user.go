package types

// UserRole represents the different user roles in the system
type UserRole string

const (
	RoleAdmin        UserRole = "admin"
	RoleDoctor       UserRole = "doctor"
	RoleReceptionist UserRole = "receptionist"
)

// UserClaims represents JWT token claims carried by dashboard requests.
// Role and UserID drive the aggregation query: a doctor sees only their own
// appointments and prescriptions, everyone else sees the clinic-wide view.
type UserClaims struct {
	UserID   string   `json:"user_id"`
	Username string   `json:"username"`
	Role     UserRole `json:"role"`
	OrgID    string   `json:"org_id"`
}
