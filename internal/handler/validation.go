package handler

import (
	"errors"
	"fmt"
	"reflect"
	"strings"
	"sync"

	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"

	"github.com/zaleoz1/Kontrolla-SaaS-Multtenanti-sub002/internal/model"
)

var registerOnce sync.Once

// RegisterValidators installs the custom binding tags on gin's validator.
// It is safe to call more than once.
func RegisterValidators() error {
	var err error
	registerOnce.Do(func() {
		v, ok := binding.Validator.Engine().(*validator.Validate)
		if !ok {
			err = errors.New("gin validator engine is not validator/v10")
			return
		}
		v.RegisterTagNameFunc(jsonFieldName)
		v.RegisterCustomTypeFunc(decimalValue, decimal.Decimal{})
		for tag, fn := range map[string]validator.Func{
			"money":             validMoney,
			"payment_method":    validPaymentMethod,
			"direction":         validDirection,
			"obligation_status": validObligationStatus,
		} {
			if err = v.RegisterValidation(tag, fn); err != nil {
				return
			}
		}
	})
	return err
}

func jsonFieldName(f reflect.StructField) string {
	for _, tag := range []string{"json", "form"} {
		name := strings.SplitN(f.Tag.Get(tag), ",", 2)[0]
		if name == "-" {
			return ""
		}
		if name != "" {
			return name
		}
	}
	return f.Name
}

// decimalValue exposes decimals to tag validation as their string form.
func decimalValue(field reflect.Value) interface{} {
	if d, ok := field.Interface().(decimal.Decimal); ok {
		return d.String()
	}
	return nil
}

// validMoney accepts positive amounts with at most two decimal places.
func validMoney(fl validator.FieldLevel) bool {
	d, err := decimal.NewFromString(fl.Field().String())
	if err != nil {
		return false
	}
	return d.IsPositive() && d.Equal(d.Round(2))
}

func validPaymentMethod(fl validator.FieldLevel) bool {
	return model.PaymentMethodType(fl.Field().String()).Valid()
}

func validDirection(fl validator.FieldLevel) bool {
	return model.Direction(fl.Field().String()).Valid()
}

func validObligationStatus(fl validator.FieldLevel) bool {
	return model.ObligationStatus(fl.Field().String()).Valid()
}

var tagKinds = map[string]model.ErrorKind{
	"payment_method": model.KindUnknownMethod,
}

var tagMessages = map[string]string{
	"required":          "is required",
	"money":             "must be a positive amount with at most two decimal places",
	"payment_method":    "is not a supported payment method",
	"direction":         "must be receivable or payable",
	"obligation_status": "is not a known obligation status",
}

// bindingError turns a gin binding failure into a typed engine error.
func bindingError(err error) error {
	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) && len(verrs) > 0 {
		fe := verrs[0]
		kind, ok := tagKinds[fe.Tag()]
		if !ok {
			kind = model.KindInvalidInput
		}
		msg, ok := tagMessages[fe.Tag()]
		if !ok {
			msg = fmt.Sprintf("failed %q validation", fe.Tag())
			if fe.Param() != "" {
				msg = fmt.Sprintf("failed %q validation (%s)", fe.Tag(), fe.Param())
			}
		}
		return model.NewError(kind, fe.Field(), fe.Field()+" "+msg)
	}
	return &model.Error{Kind: model.KindInvalidInput, Message: "malformed request", Err: err}
}
