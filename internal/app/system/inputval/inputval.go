// Package inputval validates decoded request bodies with struct tags and
// reports failures as a field → message map.
package inputval

import (
	"errors"
	"fmt"
	"reflect"
	"slices"
	"sort"
	"strings"

	"github.com/dalemusser/clubhub/internal/domain/models"
	"github.com/go-playground/locales/en"
	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	en_translations "github.com/go-playground/validator/v10/translations/en"
	"github.com/shopspring/decimal"
)

var (
	validate   *validator.Validate
	translator ut.Translator
)

// custom validation tags
const (
	notBlankTag       = "notblank"
	roleTag           = "role"
	amountTag         = "amount"
	ledgerCategoryTag = "ledger_category"
	channelTag        = "channel"
	jerseySizeTag     = "jersey_size"
	overlayStatusTag  = "overlay_status"
)

func init() {
	validate = validator.New(validator.WithRequiredStructEnabled())

	_en := en.New()
	uni := ut.New(_en, _en)
	translator, _ = uni.GetTranslator("en")
	_ = en_translations.RegisterDefaultTranslations(validate, translator)

	// Report JSON names, not Go field names.
	validate.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})

	_ = validate.RegisterValidation(notBlankTag, notBlank)
	_ = validate.RegisterValidation(roleTag, validRole)
	_ = validate.RegisterValidation(amountTag, validAmount)
	_ = validate.RegisterValidation(ledgerCategoryTag, validLedgerCategory)
	_ = validate.RegisterValidation(channelTag, validChannel)
	_ = validate.RegisterValidation(jerseySizeTag, validJerseySize)
	_ = validate.RegisterValidation(overlayStatusTag, validOverlayStatus)

	noop := func(ut.Translator) error { return nil }
	for _, tag := range []string{notBlankTag, roleTag, amountTag, ledgerCategoryTag, channelTag, jerseySizeTag, overlayStatusTag} {
		_ = validate.RegisterTranslation(tag, translator, noop, translateCustom)
	}
}

func translateCustom(_ ut.Translator, fe validator.FieldError) string {
	switch fe.Tag() {
	case notBlankTag:
		return fe.Field() + " cannot be blank"
	case roleTag:
		return fe.Field() + " must be one of guest, student, player, staff, coach, admin"
	case amountTag:
		return fe.Field() + " must be a positive amount with at most two decimal places"
	case ledgerCategoryTag:
		return fe.Field() + " must be one of " + strings.Join(models.LedgerCategories, ", ")
	case channelTag:
		return fe.Field() + " must be one of " + strings.Join(models.Channels, ", ")
	case jerseySizeTag:
		return fe.Field() + " must be one of " + strings.Join(models.JerseySizes, ", ")
	case overlayStatusTag:
		return fe.Field() + " must be one of " + strings.Join(models.OverlayStatuses, ", ")
	}
	return fe.Field() + " is invalid"
}

func notBlank(fl validator.FieldLevel) bool {
	if s, ok := fl.Field().Interface().(string); ok {
		return strings.TrimSpace(s) != ""
	}
	return false
}

func validRole(fl validator.FieldLevel) bool {
	_, ok := models.ParseRole(fl.Field().String())
	return ok
}

func validAmount(fl validator.FieldLevel) bool {
	_, err := ParseAmount(fl.Field().String())
	return err == nil
}

func validLedgerCategory(fl validator.FieldLevel) bool {
	return slices.Contains(models.LedgerCategories, fl.Field().String())
}

func validChannel(fl validator.FieldLevel) bool {
	return models.IsChannel(fl.Field().String())
}

// validJerseySize accepts an empty size; the field is optional.
func validJerseySize(fl validator.FieldLevel) bool {
	s := fl.Field().String()
	return s == "" || slices.Contains(models.JerseySizes, s)
}

func validOverlayStatus(fl validator.FieldLevel) bool {
	return slices.Contains(models.OverlayStatuses, fl.Field().String())
}

// ParseAmount parses a positive money amount with at most two decimal places.
func ParseAmount(s string) (decimal.Decimal, error) {
	d, err := decimal.NewFromString(strings.TrimSpace(s))
	if err != nil {
		return decimal.Zero, fmt.Errorf("not a number: %q", s)
	}
	if !d.IsPositive() {
		return decimal.Zero, errors.New("amount must be positive")
	}
	if d.Exponent() < -2 && !d.Equal(d.Round(2)) {
		return decimal.Zero, errors.New("amount has more than two decimal places")
	}
	return d, nil
}

/*─────────────────────────────────────────────────────────────────────────────*
| Errors                                                                       |
*─────────────────────────────────────────────────────────────────────────────*/

// Errors maps a JSON field name to a human-readable message. It matches
// models.ErrInvalidInput under errors.Is.
type Errors map[string]string

func (e Errors) Error() string {
	keys := make([]string, 0, len(e))
	for k := range e {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, k+": "+e[k])
	}
	return "invalid input: " + strings.Join(parts, "; ")
}

func (e Errors) Is(target error) bool {
	return target == models.ErrInvalidInput
}

// Check validates v (a struct or pointer to struct) and returns Errors,
// or nil when v is valid.
func Check(v any) error {
	err := validate.Struct(v)
	if err == nil {
		return nil
	}
	var ves validator.ValidationErrors
	if !errors.As(err, &ves) {
		return fmt.Errorf("%w: %v", models.ErrInvalidInput, err)
	}
	out := make(Errors, len(ves))
	for _, fe := range ves {
		key := fieldPath(fe)
		if _, seen := out[key]; !seen {
			out[key] = fe.Translate(translator)
		}
	}
	return out
}

// fieldPath drops the struct name from the namespace ("Form.games[0]" → "games[0]").
func fieldPath(fe validator.FieldError) string {
	ns := fe.Namespace()
	if i := strings.Index(ns, "."); i >= 0 {
		return ns[i+1:]
	}
	return fe.Field()
}

// Var validates a single value against tag.
func Var(field any, tag string) bool {
	return validate.Var(field, tag) == nil
}

// IsValidEmail reports whether s is a bare email address (no display name).
func IsValidEmail(s string) bool {
	s = strings.TrimSpace(s)
	if s == "" || strings.ContainsAny(s, " <>") {
		return false
	}
	return Var(s, "email")
}
