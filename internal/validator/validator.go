package validator

import (
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/neurosense/assessment-service/internal/models"
)

// Validator wraps go-playground/validator with the service's custom tags.
type Validator struct {
	structValidator *validator.Validate
	formValidator   *FormValidator
}

// New creates a validator. A nil forms skips the questionnaire checks.
func New(forms *FormValidator) *Validator {
	structValidator := validator.New()
	registerCustomValidators(structValidator)

	return &Validator{
		structValidator: structValidator,
		formValidator:   forms,
	}
}

// ValidateStruct validates struct tags only and returns the raw validator error
func (v *Validator) ValidateStruct(s interface{}) error {
	return v.structValidator.Struct(s)
}

// Validate validates struct tags and converts failures into ValidationErrors
func (v *Validator) Validate(s interface{}) error {
	err := v.ValidateStruct(s)
	if err == nil {
		return nil
	}
	if errs := ToValidationErrors(err); len(errs) > 0 {
		return errs
	}
	return err
}

// ValidateFormState checks raw answers against the questionnaire and then the
// structured submission shape.
func (v *Validator) ValidateFormState(state map[string]any) (*models.AssessmentFormData, error) {
	if v.formValidator != nil {
		if errs := v.formValidator.Validate(state); len(errs) > 0 {
			return nil, errs
		}
	}

	data, err := models.FormDataFromState(state)
	if err != nil {
		return nil, ValidationErrors{{Field: "form_state", Message: err.Error()}}
	}
	if err := v.Validate(data); err != nil {
		return nil, err
	}
	return data, nil
}

func (v *Validator) Forms() *FormValidator {
	return v.formValidator
}

func registerCustomValidators(validate *validator.Validate) {
	validate.RegisterValidation("risk_level", oneOfFunc(models.RiskHigh, models.RiskModerate, models.RiskLow))
	validate.RegisterValidation("note_type", oneOfFunc(models.NoteAssessment, models.NoteFollowUp, models.NoteIntervention, models.NoteGeneral))
	validate.RegisterValidation("user_role", oneOfFunc(models.RolePatient, models.RoleDoctor))
	validate.RegisterValidation("medication_status", oneOfFunc(models.MedicationActive, models.MedicationStopped, models.MedicationCompleted))
	validate.RegisterValidation("cdr_score", validateCDRScore)

	validate.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
}

func oneOfFunc[T ~string](allowed ...T) validator.Func {
	return func(fl validator.FieldLevel) bool {
		value := fl.Field().String()
		for _, a := range allowed {
			if string(a) == value {
				return true
			}
		}
		return false
	}
}

// Clinical Dementia Rating accepts 0, 0.5, 1, 2 or 3.
func validateCDRScore(fl validator.FieldLevel) bool {
	switch fl.Field().Float() {
	case 0, 0.5, 1, 2, 3:
		return true
	}
	return false
}
