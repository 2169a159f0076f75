package elements

import "errors"

var (
	// ErrConstruction indicates invalid shape geometry or mass.
	ErrConstruction = errors.New("elements: invalid construction")

	// ErrMissingDepletion indicates a dynamic element without floor mass or burn duration.
	ErrMissingDepletion = errors.New("elements: dynamic element requires floor mass and burn duration")
)
