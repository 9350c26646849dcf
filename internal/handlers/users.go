package handlers

import (
	"errors"
	"log"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/spynet-dev/spynet/db"
	"github.com/spynet-dev/spynet/internal/models"
	"github.com/spynet-dev/spynet/internal/policy"
	"github.com/spynet-dev/spynet/internal/types"
	"github.com/spynet-dev/spynet/internal/utils"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type AssignDetectiveRequest struct {
	DetectiveID string `json:"detective_id" binding:"required"`
}

func ListUsers(ctx *gin.Context) {
	principal, err := utils.GetPrincipal(ctx)

	if err != nil {
		ctx.JSON(http.StatusUnauthorized, gin.H{"error": "User not authenticated"})
		return
	}

	decision := policy.Authorize(principal, policy.ActionReadList, policy.ResourceUser, "", nil)

	if !decision.Allow {
		ctx.JSON(http.StatusForbidden, gin.H{"error": "Insufficient permissions"})
		return
	}

	var users []models.User

	if err := db.DB.Order("created_at").Find(&users).Error; err != nil {
		log.Printf("Failed to list users: %v", err)
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to retrieve users"})
		return
	}

	response := make([]types.UserResponse, 0, len(users))

	for _, user := range users {
		response = append(response, userResponse(user))
	}

	ctx.JSON(http.StatusOK, response)
}

func queryDetectives(managerID string) ([]models.User, error) {
	query := db.DB.Model(&models.User{}).Where("users.role = ?", string(policy.RoleDetective))

	if managerID != "" {
		query = query.
			Joins("JOIN detective_manager ON detective_manager.detective_id = users.id").
			Where("detective_manager.manager_id = ?", managerID)
	}

	var detectives []models.User
	err := query.Order("users.created_at").Find(&detectives).Error
	return detectives, err
}

// ListDetectives is open to any authenticated principal. Without a
// manager_id filter it returns the full detective roster; with one it
// returns the detectives assigned to that manager.
func ListDetectives(ctx *gin.Context) {
	detectives, err := queryDetectives(ctx.Query("manager_id"))

	if err != nil {
		log.Printf("Failed to list detectives: %v", err)
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to retrieve detectives"})
		return
	}

	response := make([]types.UserResponse, 0, len(detectives))

	for _, detective := range detectives {
		response = append(response, userResponse(detective))
	}

	ctx.JSON(http.StatusOK, response)
}

// MyDetectives is the manager-only shorthand for ListDetectives filtered
// by the caller's own id. Both paths run the same query.
func MyDetectives(ctx *gin.Context) {
	principal, err := utils.GetPrincipal(ctx)

	if err != nil {
		ctx.JSON(http.StatusUnauthorized, gin.H{"error": "User not authenticated"})
		return
	}

	decision := policy.Authorize(principal, policy.ActionReadList, policy.ResourceUser, "", nil)

	if !decision.Allow {
		ctx.JSON(http.StatusForbidden, gin.H{"error": "Insufficient permissions"})
		return
	}

	detectives, err := queryDetectives(principal.ID)

	if err != nil {
		log.Printf("Failed to list detectives: %v", err)
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to retrieve detectives"})
		return
	}

	response := make([]types.UserResponse, 0, len(detectives))

	for _, detective := range detectives {
		response = append(response, userResponse(detective))
	}

	ctx.JSON(http.StatusOK, response)
}

func GetUser(ctx *gin.Context) {
	principal, err := utils.GetPrincipal(ctx)

	if err != nil {
		ctx.JSON(http.StatusUnauthorized, gin.H{"error": "User not authenticated"})
		return
	}

	userID := ctx.Param("id")

	decision := policy.Authorize(principal, policy.ActionReadOne, policy.ResourceUser, userID, nil)

	if !decision.Allow {
		ctx.JSON(http.StatusForbidden, gin.H{"error": "You can only view your own profile"})
		return
	}

	var user models.User

	if err := db.DB.First(&user, "id = ?", userID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			ctx.JSON(http.StatusNotFound, gin.H{"error": "User not found"})
		} else {
			log.Printf("Failed to fetch user: %v", err)
			ctx.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to retrieve user"})
		}
		return
	}

	ctx.JSON(http.StatusOK, userResponse(user))
}

func UpdateUser(ctx *gin.Context) {
	principal, err := utils.GetPrincipal(ctx)

	if err != nil {
		ctx.JSON(http.StatusUnauthorized, gin.H{"error": "User not authenticated"})
		return
	}

	userID := ctx.Param("id")

	// Decode into a map so the policy engine sees exactly the fields the
	// caller attempted to modify.
	var body map[string]interface{}

	if err := ctx.BindJSON(&body); err != nil {
		log.Printf("Failed to bind JSON: %v", err)
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request"})
		return
	}

	if len(body) == 0 {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "No fields to update"})
		return
	}

	fields := make([]string, 0, len(body))

	for field := range body {
		switch field {
		case "name", "email", "role":
			fields = append(fields, field)
		default:
			ctx.JSON(http.StatusBadRequest, gin.H{"error": "Unknown field: " + field})
			return
		}
	}

	decision := policy.Authorize(principal, policy.ActionUpdate, policy.ResourceUser, userID, fields)

	if !decision.Allow {
		ctx.JSON(http.StatusForbidden, gin.H{"error": "Insufficient permissions"})
		return
	}

	var user models.User

	if err := db.DB.First(&user, "id = ?", userID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			ctx.JSON(http.StatusNotFound, gin.H{"error": "User not found"})
		} else {
			log.Printf("Failed to fetch user: %v", err)
			ctx.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to retrieve user"})
		}
		return
	}

	updates := make(map[string]interface{})
	newRole := ""

	if raw, ok := body["name"]; ok {
		name, ok := raw.(string)
		if !ok || strings.TrimSpace(name) == "" {
			ctx.JSON(http.StatusBadRequest, gin.H{"error": "Name must be a non-empty string"})
			return
		}
		updates["name"] = strings.TrimSpace(name)
	}

	if raw, ok := body["email"]; ok {
		email, ok := raw.(string)
		if !ok {
			ctx.JSON(http.StatusBadRequest, gin.H{"error": "Email must be a string"})
			return
		}

		email = strings.ToLower(strings.TrimSpace(email))

		if !strings.Contains(email, "@") {
			ctx.JSON(http.StatusBadRequest, gin.H{"error": "Invalid email"})
			return
		}

		if email != user.Email {
			var existingUser models.User
			err := db.DB.Where("email = ? AND id != ?", email, user.ID).First(&existingUser).Error
			if err == nil {
				ctx.JSON(http.StatusBadRequest, gin.H{"error": "Email already exists"})
				return
			}
			if !errors.Is(err, gorm.ErrRecordNotFound) {
				log.Printf("Database error when checking existing email: %v", err)
				ctx.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
				return
			}
		}

		updates["email"] = email
	}

	if raw, ok := body["role"]; ok {
		roleStr, ok := raw.(string)
		if !ok {
			ctx.JSON(http.StatusBadRequest, gin.H{"error": "Role must be a string"})
			return
		}

		role, ok := policy.ParseRole(roleStr)

		if !ok {
			ctx.JSON(http.StatusBadRequest, gin.H{"error": "Role must be detective or manager"})
			return
		}

		if string(role) != user.Role {
			newRole = string(role)
		}

		updates["role"] = string(role)
	}

	err = db.DB.Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(&user).Updates(updates).Error; err != nil {
			return err
		}

		if newRole == "" {
			return nil
		}

		// A role change swaps the subtype row. Assignments hang off the
		// subtype rows, so they are removed with the old row.
		if newRole == string(policy.RoleManager) {
			if err := tx.Where("detective_id = ?", user.ID).Delete(&models.DetectiveManager{}).Error; err != nil {
				return err
			}
			if err := tx.Delete(&models.Detective{}, "id = ?", user.ID).Error; err != nil {
				return err
			}
			return tx.Create(&models.Manager{ID: user.ID}).Error
		}

		if err := tx.Where("manager_id = ?", user.ID).Delete(&models.DetectiveManager{}).Error; err != nil {
			return err
		}
		if err := tx.Delete(&models.Manager{}, "id = ?", user.ID).Error; err != nil {
			return err
		}
		return tx.Create(&models.Detective{ID: user.ID}).Error
	})

	if err != nil {
		log.Printf("Failed to update user: %v", err)
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
		return
	}

	if err := db.DB.First(&user, "id = ?", user.ID).Error; err != nil {
		log.Printf("Failed to refresh user data: %v", err)
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
		return
	}

	ctx.JSON(http.StatusOK, userResponse(user))
}

func AssignDetective(ctx *gin.Context) {
	principal, err := utils.GetPrincipal(ctx)

	if err != nil {
		ctx.JSON(http.StatusUnauthorized, gin.H{"error": "User not authenticated"})
		return
	}

	decision := policy.Authorize(principal, policy.ActionCreate, policy.ResourceAssignment, "", nil)

	if !decision.Allow {
		ctx.JSON(http.StatusForbidden, gin.H{"error": "Insufficient permissions"})
		return
	}

	var req AssignDetectiveRequest

	if err := ctx.BindJSON(&req); err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request"})
		return
	}

	var detective models.Detective

	if err := db.DB.First(&detective, "id = ?", req.DetectiveID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			ctx.JSON(http.StatusNotFound, gin.H{"error": "Detective not found"})
		} else {
			log.Printf("Failed to fetch detective: %v", err)
			ctx.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
		}
		return
	}

	assignment := models.DetectiveManager{
		ManagerID:   principal.ID,
		DetectiveID: detective.ID,
	}

	// Re-assigning an existing pair is a no-op success.
	if err := db.DB.Clauses(clause.OnConflict{DoNothing: true}).Create(&assignment).Error; err != nil {
		log.Printf("Failed to create assignment: %v", err)
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create assignment"})
		return
	}

	ctx.JSON(http.StatusCreated, gin.H{
		"manager_id":   assignment.ManagerID,
		"detective_id": assignment.DetectiveID,
	})
}

func UnassignDetective(ctx *gin.Context) {
	principal, err := utils.GetPrincipal(ctx)

	if err != nil {
		ctx.JSON(http.StatusUnauthorized, gin.H{"error": "User not authenticated"})
		return
	}

	decision := policy.Authorize(principal, policy.ActionDelete, policy.ResourceAssignment, "", nil)

	if !decision.Allow {
		ctx.JSON(http.StatusForbidden, gin.H{"error": "Insufficient permissions"})
		return
	}

	detectiveID := ctx.Param("detective_id")

	result := db.DB.Where("manager_id = ? AND detective_id = ?", principal.ID, detectiveID).
		Delete(&models.DetectiveManager{})

	if result.Error != nil {
		log.Printf("Failed to delete assignment: %v", result.Error)
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to delete assignment"})
		return
	}

	if result.RowsAffected == 0 {
		ctx.JSON(http.StatusNotFound, gin.H{"error": "Assignment not found"})
		return
	}

	ctx.Status(http.StatusNoContent)
}
