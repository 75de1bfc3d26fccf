package controllers

import "github.com/abic-consultancy/abic_backend/internal/models"

var allowedRoles = map[string]struct{}{
	models.RoleAdmin:  {},
	models.RoleEditor: {},
}

func IsValidRole(role string) bool {
	_, ok := allowedRoles[role]
	return ok
}
