package middleware

import (
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"reflect"
	"strconv"
	"strings"

	"github.com/go-playground/validator/v10"

	"investcli/internal/config"
	"investcli/internal/dataprocessing"
	apperrors "investcli/internal/errors"
)

// FilterQuery is the parsed form of the dashboard query parameters.
// market, country and status may repeat or carry comma-separated values.
type FilterQuery struct {
	Markets    []string `json:"market" validate:"max=100,dive,required,max=200"`
	Countries  []string `json:"country" validate:"max=100,dive,required,max=16"`
	Statuses   []string `json:"status" validate:"max=20,dive,required,max=64"`
	YearFrom   int      `json:"year_from" validate:"omitempty,year"`
	YearTo     int      `json:"year_to" validate:"omitempty,year,gtefield=YearFrom"`
	MinFunding float64  `json:"min_funding" validate:"gte=0"`
	Limit      int      `json:"limit" validate:"gte=0,maxlimit"`
}

// Filter converts the query into an analytics filter.
func (q FilterQuery) Filter() dataprocessing.Filter {
	return dataprocessing.Filter{
		Markets:    q.Markets,
		Countries:  q.Countries,
		Statuses:   q.Statuses,
		YearFrom:   q.YearFrom,
		YearTo:     q.YearTo,
		MinFunding: q.MinFunding,
	}
}

// QueryValidator parses and validates query parameters with struct tags.
type QueryValidator struct {
	validator *validator.Validate
	logger    *slog.Logger
}

// NewQueryValidator creates a validator with the dashboard rules registered.
func NewQueryValidator(logger *slog.Logger) *QueryValidator {
	if logger == nil {
		logger = slog.Default()
	}
	v := validator.New()
	v.RegisterValidation("year", isYear)
	v.RegisterValidation("maxlimit", isWithinQueryLimit)

	// Use JSON tag names in error messages
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})

	return &QueryValidator{
		validator: v,
		logger:    logger.With(slog.String("component", "query_validator")),
	}
}

// ParseFilter reads the filter parameters of r. Malformed numbers and rule
// violations are reported together as an APIError with field details.
func (v *QueryValidator) ParseFilter(r *http.Request) (FilterQuery, error) {
	values := r.URL.Query()
	var (
		q    FilterQuery
		errs []apperrors.ValidationError
	)

	q.Markets = listParam(values, "market")
	q.Countries = listParam(values, "country")
	q.Statuses = listParam(values, "status")

	intParam := func(name string, dst *int) {
		raw := strings.TrimSpace(values.Get(name))
		if raw == "" {
			return
		}
		n, err := strconv.Atoi(raw)
		if err != nil {
			errs = append(errs, apperrors.ValidationError{Field: name, Message: name + " must be an integer"})
			return
		}
		*dst = n
	}
	intParam("year_from", &q.YearFrom)
	intParam("year_to", &q.YearTo)
	intParam("limit", &q.Limit)

	if raw := strings.TrimSpace(values.Get("min_funding")); raw != "" {
		f, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			errs = append(errs, apperrors.ValidationError{Field: "min_funding", Message: "min_funding must be a number"})
		} else {
			q.MinFunding = f
		}
	}

	if len(errs) == 0 {
		if err := v.ValidateStruct(q); err != nil {
			v.logger.DebugContext(r.Context(), "query rejected",
				slog.String("query", r.URL.RawQuery),
				slog.String("error", err.Error()))
			return FilterQuery{}, err
		}
		return q, nil
	}

	v.logger.DebugContext(r.Context(), "query rejected", slog.String("query", r.URL.RawQuery))
	return FilterQuery{}, apperrors.NewValidationErrors(errs)
}

// ValidateEnum returns the named parameter when it is one of allowed, or
// defaultValue when absent.
func (v *QueryValidator) ValidateEnum(r *http.Request, param string, allowed []string, defaultValue string) (string, error) {
	value := strings.ToLower(strings.TrimSpace(r.URL.Query().Get(param)))
	if value == "" {
		return defaultValue, nil
	}
	for _, a := range allowed {
		if value == a {
			return value, nil
		}
	}
	return "", apperrors.ErrValidation(param, fmt.Sprintf("%s must be one of: %s", param, strings.Join(allowed, ", ")))
}

// ValidateStruct validates a struct and returns validation errors
func (v *QueryValidator) ValidateStruct(s interface{}) error {
	err := v.validator.Struct(s)
	if err == nil {
		return nil
	}
	fieldErrs, ok := err.(validator.ValidationErrors)
	if !ok {
		return apperrors.InvalidRequestWithError(err)
	}

	validationErrors := make([]apperrors.ValidationError, 0, len(fieldErrs))
	for _, fe := range fieldErrs {
		validationErrors = append(validationErrors, apperrors.ValidationError{
			Field:   fe.Field(),
			Message: formatValidationError(fe),
		})
	}
	return apperrors.NewValidationErrors(validationErrors)
}

// listParam collects repeated and comma-separated values, dropping blanks.
func listParam(values url.Values, name string) []string {
	var out []string
	for _, raw := range values[name] {
		for _, part := range strings.Split(raw, ",") {
			if part = strings.TrimSpace(part); part != "" {
				out = append(out, part)
			}
		}
	}
	return out
}

func formatValidationError(err validator.FieldError) string {
	field := err.Field()
	param := err.Param()

	switch err.Tag() {
	case "required":
		return fmt.Sprintf("%s must not be blank", field)
	case "max":
		if err.Kind() == reflect.Slice {
			return fmt.Sprintf("%s accepts at most %s values", field, param)
		}
		return fmt.Sprintf("%s must be at most %s characters", field, param)
	case "gte":
		return fmt.Sprintf("%s must be greater than or equal to %s", field, param)
	case "gtefield":
		return fmt.Sprintf("%s must not be before year_from", field)
	case "year":
		return fmt.Sprintf("%s must be a year between %d and %d", field, dataprocessing.MinYear, dataprocessing.MaxYear)
	case "maxlimit":
		return fmt.Sprintf("%s must be at most %d", field, config.MaxQueryLimit)
	default:
		return fmt.Sprintf("%s failed %s validation", field, err.Tag())
	}
}

func isYear(fl validator.FieldLevel) bool {
	y := int(fl.Field().Int())
	return y >= dataprocessing.MinYear && y <= dataprocessing.MaxYear
}

func isWithinQueryLimit(fl validator.FieldLevel) bool {
	return fl.Field().Int() <= config.MaxQueryLimit
}
