package handler

import (
	"errors"

	"github.com/gin-gonic/gin"

	"github.com/xxxsen/docchat/internal/pkg/errcode"
	apperrors "github.com/xxxsen/docchat/internal/pkg/errors"
	"github.com/xxxsen/docchat/internal/pkg/response"
)

func handleError(c *gin.Context, err error) {
	switch {
	case err == nil:
		return
	case errors.Is(err, apperrors.ErrUnauthorized):
		response.Error(c, errcode.ErrUnauthorized, "unauthorized")
	case errors.Is(err, apperrors.ErrNotFound):
		response.Error(c, errcode.ErrNotFound, "not found")
	case errors.Is(err, apperrors.ErrInvalid):
		response.Error(c, errcode.ErrInvalid, "invalid request")
	case errors.Is(err, apperrors.ErrSourceUnavailable):
		response.Error(c, errcode.ErrSourceUnavailable, "document source unavailable")
	case errors.Is(err, apperrors.ErrUnsupportedFormat), errors.Is(err, apperrors.ErrEmptyDocument):
		response.Error(c, errcode.ErrIngestFailed, err.Error())
	case apperrors.IsRetryable(err), errors.Is(err, apperrors.ErrEmptyResponse):
		response.Error(c, errcode.ErrAIUnavailable, "model unavailable")
	default:
		response.Error(c, errcode.ErrInternal, "internal error")
	}
}
