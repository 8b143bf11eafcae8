package httpx

import (
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"

	"github.com/jcmexdev/nutrition-store/internal/store-service/domain"
)

const maxBodyBytes = 1 << 20

// errorCodes maps domain sentinels to status codes and stable error codes.
// Order matters: the first match wins.
var errorCodes = []struct {
	err    error
	status int
	code   string
}{
	{errBadJSON, http.StatusBadRequest, "invalid_json"},
	{domain.ErrInvalidQuantity, http.StatusBadRequest, "invalid_quantity"},
	{domain.ErrInvalidRating, http.StatusBadRequest, "invalid_rating"},
	{domain.ErrInvalidArgument, http.StatusBadRequest, "invalid_argument"},
	{domain.ErrNotFound, http.StatusNotFound, "not_found"},
	{domain.ErrForbidden, http.StatusForbidden, "forbidden"},
	{domain.ErrInsufficientStock, http.StatusConflict, "insufficient_stock"},
	{domain.ErrEmptyCart, http.StatusConflict, "empty_cart"},
	{domain.ErrIllegalTransition, http.StatusConflict, "illegal_transition"},
	{domain.ErrAlreadyPaid, http.StatusConflict, "already_paid"},
	{domain.ErrDuplicateReview, http.StatusConflict, "duplicate_review"},
	{domain.ErrDuplicateCategory, http.StatusConflict, "duplicate_category"},
	{domain.ErrReviewNotEligible, http.StatusConflict, "review_not_eligible"},
	{domain.ErrProductNotInOrder, http.StatusConflict, "product_not_in_order"},
	{domain.ErrInsufficientBalance, http.StatusPaymentRequired, "insufficient_balance"},
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code, msg string) {
	writeJSON(w, status, ErrorResponse{
		Error:   code,
		Message: msg,
	})
}

// writeDomainError translates err into a JSON error. Unknown errors are
// logged and reported as 500 without their message.
func writeDomainError(w http.ResponseWriter, r *http.Request, err error) {
	for _, ec := range errorCodes {
		if errors.Is(err, ec.err) {
			writeError(w, ec.status, ec.code, err.Error())
			return
		}
	}
	slog.ErrorContext(r.Context(), "request failed", "method", r.Method, "path", r.URL.Path, "error", err)
	writeError(w, http.StatusInternalServerError, "internal", "")
}

// decode reads a JSON body into v and validates it.
func decode(r *http.Request, v interface{ Validate() error }) error {
	dec := json.NewDecoder(io.LimitReader(r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil && !errors.Is(err, io.EOF) {
		return errors.Join(errBadJSON, err)
	}
	return v.Validate()
}
