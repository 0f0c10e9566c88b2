// Package handlers contains HTTP handlers for the API.
package handlers

import (
	"net/http"

	"go.mongodb.org/mongo-driver/v2/bson"

	"castlane.dev/signcast/backend/internal/models"
	"castlane.dev/signcast/backend/internal/utils"
)

// GetUserIDFromContext extracts the authenticated user's ID from the request
// context. On failure it writes an error response and returns the nil ID.
func GetUserIDFromContext(w http.ResponseWriter, r *http.Request) bson.ObjectID {
	userID, ok := r.Context().Value("userID").(string)
	if !ok || userID == "" {
		utils.RespondWithError(w, http.StatusUnauthorized, "User ID not found")
		return bson.NilObjectID
	}
	oid, err := bson.ObjectIDFromHex(userID)
	if err != nil {
		utils.RespondWithError(w, http.StatusUnauthorized, "Invalid user ID format")
		return bson.NilObjectID
	}
	return oid
}

// RespondWithDomainError writes a service error using the domain error
// response format and its mapped HTTP status.
func RespondWithDomainError(w http.ResponseWriter, err error) {
	utils.RespondWithJSON(w, models.MapErrorToHTTPStatus(err), models.NewErrorResponse(err))
}

// URLObjectID parses an ObjectID from a URL parameter value. On failure it
// writes a bad request response and returns false.
func URLObjectID(w http.ResponseWriter, value, field string) (bson.ObjectID, bool) {
	if value == "" {
		utils.RespondWithError(w, http.StatusBadRequest, field+" is required")
		return bson.NilObjectID, false
	}
	id, err := bson.ObjectIDFromHex(value)
	if err != nil {
		utils.RespondWithError(w, http.StatusBadRequest, "Invalid "+field)
		return bson.NilObjectID, false
	}
	return id, true
}
