package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/AdamJosephKalimi/linesheet-backend/internal/logger"
	"github.com/AdamJosephKalimi/linesheet-backend/internal/repos"
	"github.com/AdamJosephKalimi/linesheet-backend/internal/requestdata"
)

type TenantMiddleware struct {
	log       *logger.Logger
	brandRepo repos.BrandRepo
}

func NewTenantMiddleware(log *logger.Logger, brandRepo repos.BrandRepo) *TenantMiddleware {
	return &TenantMiddleware{
		log:       log.With("middleware", "TenantMiddleware"),
		brandRepo: brandRepo,
	}
}

// RequireBrand resolves the tenant from the gateway-verified X-Brand-ID
// header. The gateway authenticates the caller; this service only scopes
// data access to the brand it asserts.
func (tm *TenantMiddleware) RequireBrand() gin.HandlerFunc {
	return func(c *gin.Context) {
		raw := strings.TrimSpace(c.GetHeader("X-Brand-ID"))
		if raw == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "missing brand"})
			return
		}
		brandID, err := uuid.Parse(raw)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "invalid brand id"})
			return
		}

		brands, err := tm.brandRepo.GetByIDs(c.Request.Context(), nil, []uuid.UUID{brandID})
		if err != nil {
			c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "failed to resolve brand"})
			return
		}
		if len(brands) == 0 || brands[0] == nil {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "unknown brand"})
			return
		}

		rd := &requestdata.RequestData{
			BrandID:   brandID,
			RequestID: c.GetHeader("X-Request-ID"),
		}
		c.Request = c.Request.WithContext(requestdata.WithRequestData(c.Request.Context(), rd))
		c.Next()
	}
}
