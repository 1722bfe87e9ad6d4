package transport

import (
	"net/http"

	"github.com/goliatone/go-destinations/core"
	goerrors "github.com/goliatone/go-errors"
)

// restError builds the failures raised around the round trip itself. A
// non-2xx reply is not one of them; that is reported as core.TransportError.
func restError(source error, category goerrors.Category, message string, metadata map[string]any) error {
	var err *goerrors.Error
	if source != nil {
		err = goerrors.Wrap(source, category, message)
	} else {
		err = goerrors.New(message, category)
	}
	fields := map[string]any{"transport": KindREST}
	for key, value := range metadata {
		fields[key] = value
	}
	err.WithMetadata(fields)
	return err.WithCode(categoryStatus(category)).WithTextCode(categoryTextCode(category))
}

func categoryStatus(category goerrors.Category) int {
	switch category {
	case goerrors.CategoryBadInput, goerrors.CategoryValidation:
		return http.StatusBadRequest
	case goerrors.CategoryExternal:
		return http.StatusBadGateway
	}
	return http.StatusInternalServerError
}

func categoryTextCode(category goerrors.Category) string {
	switch category {
	case goerrors.CategoryBadInput, goerrors.CategoryValidation:
		return core.DestinationErrorConfiguration
	case goerrors.CategoryExternal:
		return core.DestinationErrorUpstream
	}
	return core.DestinationErrorInternal
}
