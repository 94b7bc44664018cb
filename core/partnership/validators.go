package partnership

import (
	"fmt"
	"strings"

	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	"github.com/pmezard/go-difflib/difflib"

	"github.com/trezcool/partnerships/core"
)

var (
	partnerTypeTag  = "partnertype"
	partnerTypeText = "invalid partner type"

	partnershipTypeTag  = "partnershiptype"
	partnershipTypeText = "invalid partnership type"

	agreementStatusTag  = "agreementstatus"
	agreementStatusText = "invalid agreement status"

	academicYearTag  = "academicyear"
	academicYearText = fmt.Sprintf("academic year must be between %d and %d", MinAcademicYear, MaxAcademicYear)

	// partner names at least this similar are considered duplicates
	nameMaxSim = .9
)

// InitValidators registers the partnership validators & their translations.
func InitValidators(validate *validator.Validate, translator ut.Translator) {
	_ = validate.RegisterValidation(partnerTypeTag, oneOfValidation(PartnerTypes))
	core.RegisterCustomTranslation(validate, translator, partnerTypeTag, partnerTypeText)

	_ = validate.RegisterValidation(partnershipTypeTag, oneOfValidation(Types))
	core.RegisterCustomTranslation(validate, translator, partnershipTypeTag, partnershipTypeText)

	_ = validate.RegisterValidation(agreementStatusTag, oneOfValidation(Statuses))
	core.RegisterCustomTranslation(validate, translator, agreementStatusTag, agreementStatusText)

	_ = validate.RegisterValidation(academicYearTag, academicYearValidation)
	core.RegisterCustomTranslation(validate, translator, academicYearTag, academicYearText)
}

// Custom Validators

func oneOfValidation(choices []string) validator.Func {
	return func(fl validator.FieldLevel) bool {
		val := fl.Field().String()
		for _, c := range choices {
			if val == c {
				return true
			}
		}
		return false
	}
}

// academicYearValidation checks that an int field is a plausible academic year.
func academicYearValidation(fl validator.FieldLevel) bool {
	year := fl.Field().Int()
	return year >= MinAcademicYear && year <= MaxAcademicYear
}

// similarNames reports whether two partner names are close enough to be the same partner.
func similarNames(a, b string) bool {
	a, b = strings.ToLower(a), strings.ToLower(b)
	if a == "" || b == "" {
		return false
	}
	if a == b {
		return true
	}
	return difflib.NewMatcher(strings.Split(a, ""), strings.Split(b, "")).Ratio() >= nameMaxSim
}
