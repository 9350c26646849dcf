package utils

import (
	"fmt"

	"github.com/gin-gonic/gin"
	"github.com/spynet-dev/spynet/internal/middleware"
	"github.com/spynet-dev/spynet/internal/policy"
	"github.com/spynet-dev/spynet/internal/types"
)

func GetCurrentUser(ctx *gin.Context) (middleware.AuthenticatedUser, error) {
	user, exists := ctx.Get(types.ContextUserKey)

	if !exists {
		return middleware.AuthenticatedUser{}, fmt.Errorf("User not authenticated")
	}

	authenticatedUser, ok := user.(middleware.AuthenticatedUser)

	if !ok {
		return middleware.AuthenticatedUser{}, fmt.Errorf("Invalid user type in context")
	}

	return authenticatedUser, nil
}

// GetPrincipal returns the policy-engine view of the authenticated user.
func GetPrincipal(ctx *gin.Context) (policy.Principal, error) {
	user, err := GetCurrentUser(ctx)

	if err != nil {
		return policy.Principal{}, err
	}

	return policy.Principal{ID: user.ID, Role: policy.Role(user.Role)}, nil
}
