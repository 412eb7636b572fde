package user

import (
	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"

	"github.com/trezcool/shule/core"
)

var (
	roleTag  = "userrole"
	roleText = "role must be one of student, teacher or admin"

	activeNameTag  = "activename"
	activeNameText = "an active user needs a name"
)

// InitValidators registers the validation tags of the user package.
func InitValidators(validate *validator.Validate, translator ut.Translator) {
	_ = validate.RegisterValidation(roleTag, roleValidation)
	core.RegisterCustomTranslation(validate, translator, roleTag, roleText)

	validate.RegisterStructValidation(newUserStructValidation, NewUser{})
	core.RegisterCustomTranslation(validate, translator, activeNameTag, activeNameText)
}

// Custom Validators

// roleValidation checks that the role is one of AllRoles
func roleValidation(fl validator.FieldLevel) bool {
	role, ok := fl.Field().Interface().(string)
	if !ok {
		return false
	}
	for _, r := range AllRoles {
		if role == r {
			return true
		}
	}
	return false
}

// newUserStructValidation: active users are greeted by name, so they must have one.
func newUserStructValidation(sl validator.StructLevel) {
	if nu, ok := sl.Current().Interface().(NewUser); ok && nu.IsActive && nu.Name == "" {
		sl.ReportError(nu.Name, "name", "Name", activeNameTag, "")
	}
}
