package accounting

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/go-playground/validator/v10"

	"github.com/HcVm/bytek-core-sub001/internal/accounting/shared"
	"github.com/HcVm/bytek-core-sub001/internal/platform/httpx"
	platformshared "github.com/HcVm/bytek-core-sub001/internal/shared"
)

var (
	notFoundErrors = []error{
		shared.ErrAccountNotFound,
		shared.ErrJournalNotFound,
		shared.ErrPeriodNotFound,
		shared.ErrMappingNotFound,
		platformshared.ErrNotFound,
	}
	conflictErrors = []error{
		shared.ErrSourceAlreadyLinked,
		shared.ErrDuplicateAccount,
		shared.ErrPeriodOverlap,
		shared.ErrInvalidPeriodTransition,
	}
	unprocessableErrors = []error{
		shared.ErrInvalidInput,
		shared.ErrInvalidRequest,
	}
)

// classify tags a domain error with the httpx sentinel that picks its status.
func classify(err error) error {
	if errors.Is(err, platformshared.ErrActorRequired) {
		return fmt.Errorf("%w: %w", httpx.ErrUnauthorized, err)
	}
	if perr := postingError(err); perr != nil {
		if perr.IsValidation() {
			return fmt.Errorf("%w: %w", httpx.ErrUnprocessable, err)
		}
		return fmt.Errorf("%w: %w", httpx.ErrConflict, err)
	}
	for _, target := range conflictErrors {
		if errors.Is(err, target) {
			return fmt.Errorf("%w: %w", httpx.ErrConflict, err)
		}
	}
	for _, target := range notFoundErrors {
		if errors.Is(err, target) {
			return fmt.Errorf("%w: %w", httpx.ErrNotFound, err)
		}
	}
	for _, target := range unprocessableErrors {
		if errors.Is(err, target) {
			return fmt.Errorf("%w: %w", httpx.ErrUnprocessable, err)
		}
	}
	return err
}

func postingError(err error) *shared.PostingError {
	var perr *shared.PostingError
	if errors.As(err, &perr) {
		return perr
	}
	return nil
}

// problemFor renders err as a problem document. Posting rejections carry
// their kind, the offending line and the debit/credit delta.
func problemFor(err error) httpx.ProblemDetail {
	tagged := classify(err)
	status, title := httpx.StatusFor(tagged)
	p := httpx.ProblemDetail{Title: title, Status: status}
	if status != http.StatusInternalServerError {
		p.Detail = err.Error()
	}
	if perr := postingError(err); perr != nil {
		p.Type = "urn:bytek:posting:" + string(perr.Kind)
		p.Fields = map[string]any{"kind": perr.Kind}
		if perr.Line > 0 {
			p.Fields["line"] = perr.Line
		}
		if perr.Kind == shared.KindUnbalancedEntry {
			p.Fields["delta"] = perr.Delta.StringFixed(shared.MoneyPlaces)
		}
	}
	return p
}

// validationProblem lists the failing field and rule of each violation.
func validationProblem(err error) httpx.ProblemDetail {
	p := httpx.ProblemDetail{Title: "Validation Failed", Status: http.StatusBadRequest, Detail: err.Error()}
	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) {
		p.Detail = "request failed validation"
		p.Fields = make(map[string]any, len(verrs))
		for _, fe := range verrs {
			p.Fields[fe.Namespace()] = fe.Tag()
		}
	}
	return p
}
