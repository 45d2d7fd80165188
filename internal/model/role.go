package model

const (
	RoleStudent = "STUDENT"
	RoleAlumni  = "ALUMNI"
	RoleAdmin   = "ADMIN"
)

// IsSelfAssignable 注册时可自行选择的角色
func IsSelfAssignable(role string) bool {
	return role == RoleStudent || role == RoleAlumni
}
