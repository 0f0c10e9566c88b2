// Package methods contains RPC method handlers for the application.
package methods

import (
	"errors"

	"go.mongodb.org/mongo-driver/v2/bson"

	"castlane.dev/signcast/backend/internal/models"
	"castlane.dev/signcast/backend/internal/rpc"
)

// parseID converts a hex string into an ObjectID, returning an invalid
// params error naming the field on failure.
func parseID(field, value string) (bson.ObjectID, *rpc.Error) {
	id, err := bson.ObjectIDFromHex(value)
	if err != nil {
		return bson.ObjectID{}, &rpc.Error{
			Code:    rpc.ErrInvalidParams,
			Message: "Invalid " + field,
		}
	}
	return id, nil
}

// invalidParams wraps a validation error in an RPC error.
func invalidParams(err error) *rpc.Error {
	return &rpc.Error{
		Code:    rpc.ErrInvalidParams,
		Message: "Invalid parameters",
		Data:    err.Error(),
	}
}

// domainError translates service errors into RPC errors, carrying the
// domain error's details as data when present.
func domainError(err error) *rpc.Error {
	var data any
	var domainErr *models.DomainError
	if errors.As(err, &domainErr) && len(domainErr.Details) > 0 {
		data = domainErr.Details
	}

	code := rpc.ErrInternalError
	switch {
	case errors.Is(err, models.ErrPlaylistNotFound):
		code = rpc.ErrPlaylistNotFound
	case errors.Is(err, models.ErrItemNotFound), errors.Is(err, models.ErrUnknownItem):
		code = rpc.ErrPlaylistItemNotFound
	case errors.Is(err, models.ErrPlaylistArchived):
		code = rpc.ErrPlaylistArchived
	case errors.Is(err, models.ErrStaleVersion):
		code = rpc.ErrStaleVersion
	case errors.Is(err, models.ErrOrderConflict), errors.Is(err, models.ErrDuplicateOrder):
		code = rpc.ErrOrderConflict
	case errors.Is(err, models.ErrAccessDenied):
		code = rpc.ErrNotAuthorized
	case errors.Is(err, models.ErrScreenNotFound):
		code = rpc.ErrScreenNotFound
	case errors.Is(err, models.ErrMediaNotFound):
		code = rpc.ErrMediaNotFound
	case errors.Is(err, models.ErrUserNotFound):
		code = rpc.ErrUserNotFound
	case errors.Is(err, models.ErrInvalidReorder),
		errors.Is(err, models.ErrInvalidSchedule),
		errors.Is(err, models.ErrNameCollision),
		errors.Is(err, models.ErrPlaylistFull):
		code = rpc.ErrInvalidParams
	}

	return &rpc.Error{
		Code:    code,
		Message: code.String(),
		Data:    data,
	}
}
