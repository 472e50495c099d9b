package mapping

import (
	"fmt"

	"github.com/keyforge/backend/internal/models"
)

// Geometry error codes.
const (
	CodeDuplicateMatrix  = "DUPLICATE_MATRIX"
	CodeDuplicateLed     = "DUPLICATE_LED"
	CodeMatrixOutOfRange = "MATRIX_OUT_OF_RANGE"
	CodeInvalidSplit     = "INVALID_SPLIT"
	CodeUnassigned       = "UNASSIGNED_VISUAL"
	CodeEmptyGeometry    = "EMPTY_GEOMETRY"
)

// GeometryError reports a malformed or incomplete keyboard description.
type GeometryError struct {
	Code    string
	Message string
	Matrix  *models.MatrixPosition
	Led     *models.LedIndex
}

func (e *GeometryError) Error() string {
	if e.Matrix != nil {
		return fmt.Sprintf("%s: %s at %s", e.Code, e.Message, e.Matrix)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func newGeometryError(code, message string, matrix *models.MatrixPosition) *GeometryError {
	return &GeometryError{Code: code, Message: message, Matrix: matrix}
}

// NotFoundError is returned by mapping queries that have no answer.
type NotFoundError struct {
	Kind string // "matrix", "visual" or "led"
	Key  fmt.Stringer
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s position not found: %s", e.Kind, e.Key)
}

func notFound(kind string, key fmt.Stringer) *NotFoundError {
	return &NotFoundError{Kind: kind, Key: key}
}
