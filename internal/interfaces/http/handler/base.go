package handler

import (
	"errors"
	"net/http"

	"github.com/erp/provisioner/internal/domain/shared"
	"github.com/erp/provisioner/internal/infrastructure/logger"
	"github.com/erp/provisioner/internal/interfaces/http/dto"
	"github.com/erp/provisioner/internal/interfaces/http/middleware"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

func reply(c *gin.Context, status int, data any) {
	c.JSON(status, dto.NewSuccessResponse(data))
}

func replyPage(c *gin.Context, data any, total int64, page dto.ListRequest) {
	c.JSON(http.StatusOK, dto.NewSuccessResponseWithMeta(data, total, page.Page, page.PageSize))
}

// abortWith answers with an error code, domain or API; the status follows
// from the code
func abortWith(c *gin.Context, code, message string) {
	code = dto.NormalizeErrorCode(code)
	c.AbortWithStatusJSON(dto.GetHTTPStatus(code), dto.NewErrorResponseWithRequestID(code, message, middleware.GetRequestID(c)))
}

// abortWithError reports a domain error under its own code. Anything else is
// logged and answered with a generic 500.
func abortWithError(c *gin.Context, err error) {
	var domainErr *shared.DomainError
	if errors.As(err, &domainErr) {
		abortWith(c, domainErr.Code, domainErr.Message)
		return
	}
	logger.FromContext(c.Request.Context()).Error("request failed", zap.Error(err))
	_ = c.Error(err)
	abortWith(c, dto.ErrCodeInternal, "An unexpected error occurred")
}

// uuidParam reads a UUID path parameter, answering 400 when it is malformed
func uuidParam(c *gin.Context, name string) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param(name))
	if err != nil {
		abortWith(c, dto.ErrCodeBadRequest, "Invalid "+name+" format")
		return uuid.Nil, false
	}
	return id, true
}
