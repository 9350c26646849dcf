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
)

type CreateCaseRequest struct {
	Title       string  `json:"title" binding:"required"`
	Details     string  `json:"details" binding:"required"`
	Location    string  `json:"location" binding:"required"`
	Status      string  `json:"status"`
	DetectiveID *string `json:"detective_id"`
}

func caseResponse(c models.Case) types.CaseResponse {
	return types.CaseResponse{
		ID:          c.ID,
		Title:       c.Title,
		Details:     c.Details,
		Location:    c.Location,
		Status:      c.Status,
		DetectiveID: c.DetectiveID,
		ManagerID:   c.ManagerID,
		CreatedAt:   c.CreatedAt,
		UpdatedAt:   c.UpdatedAt,
	}
}

// caseOwner is the reference the ownerOnly policy rules compare against.
func caseOwner(c models.Case) string {
	if c.DetectiveID == nil {
		return ""
	}
	return *c.DetectiveID
}

func detectiveExists(id string) (bool, error) {
	var detective models.Detective

	err := db.DB.First(&detective, "id = ?", id).Error

	if err == nil {
		return true, nil
	}

	if errors.Is(err, gorm.ErrRecordNotFound) {
		return false, nil
	}

	return false, err
}

func CreateCase(ctx *gin.Context) {
	principal, err := utils.GetPrincipal(ctx)

	if err != nil {
		ctx.JSON(http.StatusUnauthorized, gin.H{"error": "User not authenticated"})
		return
	}

	decision := policy.Authorize(principal, policy.ActionCreate, policy.ResourceCase, "", nil)

	if !decision.Allow {
		ctx.JSON(http.StatusForbidden, gin.H{"error": "Only managers can create cases"})
		return
	}

	var body CreateCaseRequest

	if err := ctx.BindJSON(&body); err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request"})
		return
	}

	body.Title = strings.TrimSpace(body.Title)
	body.Details = strings.TrimSpace(body.Details)
	body.Location = strings.TrimSpace(body.Location)

	if body.Title == "" || body.Details == "" || body.Location == "" {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "Title, details and location are required"})
		return
	}

	if body.Status == "" {
		body.Status = models.CaseStatusOpen
	}

	if !models.ValidCaseStatus(body.Status) {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "Status must be open, in_progress or closed"})
		return
	}

	if body.DetectiveID != nil {
		exists, err := detectiveExists(*body.DetectiveID)

		if err != nil {
			log.Printf("Failed to fetch detective: %v", err)
			ctx.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
			return
		}

		if !exists {
			ctx.JSON(http.StatusBadRequest, gin.H{"error": "Detective not found"})
			return
		}
	}

	managerID := principal.ID

	newCase := models.Case{
		Title:       body.Title,
		Details:     body.Details,
		Location:    body.Location,
		Status:      body.Status,
		DetectiveID: body.DetectiveID,
		ManagerID:   &managerID,
	}

	if err := db.DB.Create(&newCase).Error; err != nil {
		log.Printf("Failed to create case: %v", err)
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create case"})
		return
	}

	ctx.JSON(http.StatusCreated, caseResponse(newCase))
}

func ListCases(ctx *gin.Context) {
	principal, err := utils.GetPrincipal(ctx)

	if err != nil {
		ctx.JSON(http.StatusUnauthorized, gin.H{"error": "User not authenticated"})
		return
	}

	scope, ok := policy.CaseScope(principal)

	if !ok {
		ctx.JSON(http.StatusForbidden, gin.H{"error": "Insufficient permissions"})
		return
	}

	query := db.DB.Model(&models.Case{})

	if !scope.All {
		query = query.Where("detective_id = ?", scope.DetectiveID)
	}

	if status := ctx.Query("status"); status != "" {
		if !models.ValidCaseStatus(status) {
			ctx.JSON(http.StatusBadRequest, gin.H{"error": "Status must be open, in_progress or closed"})
			return
		}
		query = query.Where("status = ?", status)
	}

	if detectiveID := ctx.Query("detective_id"); detectiveID != "" {
		query = query.Where("detective_id = ?", detectiveID)
	}

	var cases []models.Case

	if err := query.Order("created_at").Find(&cases).Error; err != nil {
		log.Printf("Failed to list cases: %v", err)
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to retrieve cases"})
		return
	}

	response := make([]types.CaseResponse, 0, len(cases))

	for _, c := range cases {
		response = append(response, caseResponse(c))
	}

	ctx.JSON(http.StatusOK, response)
}

func GetCase(ctx *gin.Context) {
	principal, err := utils.GetPrincipal(ctx)

	if err != nil {
		ctx.JSON(http.StatusUnauthorized, gin.H{"error": "User not authenticated"})
		return
	}

	var c models.Case

	if err := db.DB.First(&c, "id = ?", ctx.Param("id")).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			ctx.JSON(http.StatusNotFound, gin.H{"error": "Case not found"})
		} else {
			log.Printf("Failed to fetch case: %v", err)
			ctx.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to retrieve case"})
		}
		return
	}

	decision := policy.Authorize(principal, policy.ActionReadOne, policy.ResourceCase, caseOwner(c), nil)

	if !decision.Allow {
		// A case outside a detective's visibility reads as absent so its
		// existence is not confirmed.
		if decision.Reason == policy.ReasonNotOwner {
			ctx.JSON(http.StatusNotFound, gin.H{"error": "Case not found"})
		} else {
			ctx.JSON(http.StatusForbidden, gin.H{"error": "Insufficient permissions"})
		}
		return
	}

	ctx.JSON(http.StatusOK, caseResponse(c))
}

func UpdateCase(ctx *gin.Context) {
	principal, err := utils.GetPrincipal(ctx)

	if err != nil {
		ctx.JSON(http.StatusUnauthorized, gin.H{"error": "User not authenticated"})
		return
	}

	// Decode into a map so the policy engine sees exactly the fields the
	// caller attempted to modify, and so an explicit null detective_id
	// (unassign) is distinguishable from an absent one.
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
		case "title", "details", "location", "status", "detective_id":
			fields = append(fields, field)
		default:
			ctx.JSON(http.StatusBadRequest, gin.H{"error": "Unknown field: " + field})
			return
		}
	}

	var c models.Case

	if err := db.DB.First(&c, "id = ?", ctx.Param("id")).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			ctx.JSON(http.StatusNotFound, gin.H{"error": "Case not found"})
		} else {
			log.Printf("Failed to fetch case: %v", err)
			ctx.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to retrieve case"})
		}
		return
	}

	decision := policy.Authorize(principal, policy.ActionUpdate, policy.ResourceCase, caseOwner(c), fields)

	if !decision.Allow {
		switch decision.Reason {
		case policy.ReasonNotOwner:
			ctx.JSON(http.StatusNotFound, gin.H{"error": "Case not found"})
		case policy.ReasonFieldDenied:
			ctx.JSON(http.StatusForbidden, gin.H{"error": "Detectives can only update status and details"})
		default:
			ctx.JSON(http.StatusForbidden, gin.H{"error": "Insufficient permissions"})
		}
		return
	}

	updates := make(map[string]interface{})

	for _, field := range []string{"title", "details", "location"} {
		raw, ok := body[field]
		if !ok {
			continue
		}

		value, ok := raw.(string)
		if !ok || strings.TrimSpace(value) == "" {
			ctx.JSON(http.StatusBadRequest, gin.H{"error": "Field " + field + " must be a non-empty string"})
			return
		}

		updates[field] = strings.TrimSpace(value)
	}

	if raw, ok := body["status"]; ok {
		status, ok := raw.(string)
		if !ok || !models.ValidCaseStatus(status) {
			ctx.JSON(http.StatusBadRequest, gin.H{"error": "Status must be open, in_progress or closed"})
			return
		}
		updates["status"] = status
	}

	if raw, ok := body["detective_id"]; ok {
		if raw == nil {
			updates["detective_id"] = nil
		} else {
			detectiveID, ok := raw.(string)
			if !ok {
				ctx.JSON(http.StatusBadRequest, gin.H{"error": "Field detective_id must be a string or null"})
				return
			}

			exists, err := detectiveExists(detectiveID)

			if err != nil {
				log.Printf("Failed to fetch detective: %v", err)
				ctx.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
				return
			}

			if !exists {
				ctx.JSON(http.StatusBadRequest, gin.H{"error": "Detective not found"})
				return
			}

			updates["detective_id"] = detectiveID
		}
	}

	if err := db.DB.Model(&c).Updates(updates).Error; err != nil {
		log.Printf("Failed to update case: %v", err)
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to update case"})
		return
	}

	if err := db.DB.First(&c, "id = ?", c.ID).Error; err != nil {
		log.Printf("Failed to refresh case: %v", err)
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
		return
	}

	ctx.JSON(http.StatusOK, caseResponse(c))
}

func DeleteCase(ctx *gin.Context) {
	principal, err := utils.GetPrincipal(ctx)

	if err != nil {
		ctx.JSON(http.StatusUnauthorized, gin.H{"error": "User not authenticated"})
		return
	}

	decision := policy.Authorize(principal, policy.ActionDelete, policy.ResourceCase, "", nil)

	if !decision.Allow {
		ctx.JSON(http.StatusForbidden, gin.H{"error": "Only managers can delete cases"})
		return
	}

	var c models.Case

	if err := db.DB.First(&c, "id = ?", ctx.Param("id")).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			ctx.JSON(http.StatusNotFound, gin.H{"error": "Case not found"})
		} else {
			log.Printf("Failed to fetch case: %v", err)
			ctx.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to retrieve case"})
		}
		return
	}

	if err := db.DB.Delete(&c).Error; err != nil {
		log.Printf("Failed to delete case: %v", err)
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to delete case"})
		return
	}

	ctx.Status(http.StatusNoContent)
}
