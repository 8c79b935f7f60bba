package validator

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

type sampleRequest struct {
	Name  string `validate:"required"`
	Count int    `validate:"gte=1"`
	Note  string `validate:"max=5"`
}

func TestValidate_Passes(t *testing.T) {
	errs := Validate(&sampleRequest{Name: "ok", Count: 3, Note: "short"})
	assert.Nil(t, errs)
}

func TestValidate_ReportsFailingFields(t *testing.T) {
	errs := Validate(&sampleRequest{Name: "", Count: 0, Note: "too long"})
	assert.Equal(t, map[string]string{
		"Name":  "required",
		"Count": "gte",
		"Note":  "max",
	}, errs)
}
