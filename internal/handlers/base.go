package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"pollup/internal/apperr"
	"pollup/internal/codec"
)

// Fail maps a service error to its HTTP status and writes the structured
// error body. Unknown errors become a plain 500; a failed mutation never
// takes the process down.
func Fail(c *gin.Context, err error) {
	status := http.StatusInternalServerError
	kind := apperr.KindOf(err)
	switch kind {
	case apperr.KindAuthenticationRequired:
		status = http.StatusUnauthorized
	case apperr.KindValidation, apperr.KindInvalidIdentifier:
		status = http.StatusBadRequest
	case apperr.KindNotFound:
		status = http.StatusNotFound
	case apperr.KindUpstreamUnavailable:
		status = http.StatusBadGateway
	}

	message := "internal error"
	var appErr *apperr.Error
	if errors.As(err, &appErr) {
		message = appErr.Message
	}
	c.JSON(status, gin.H{"error": string(kind), "message": message})
}

// PathID decodes a codec token from a path parameter into an ObjectID.
func PathID(c *gin.Context, param string) (primitive.ObjectID, error) {
	hexID, err := codec.Decode(c.Param(param))
	if err != nil {
		return primitive.NilObjectID, err
	}
	id, err := primitive.ObjectIDFromHex(hexID)
	if err != nil {
		return primitive.NilObjectID, apperr.InvalidIdentifier("bad identifier %q", c.Param(param))
	}
	return id, nil
}

// Token encodes an ObjectID into its external token; ids minted by the
// store are always valid so the error path is unreachable in practice.
func Token(id primitive.ObjectID) string {
	token, err := codec.Encode(id.Hex())
	if err != nil {
		return id.Hex()
	}
	return token
}
