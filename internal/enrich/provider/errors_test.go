package provider

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/prospect-cli/pkg/apollo"
	"github.com/sells-group/prospect-cli/pkg/clearbit"
	"github.com/sells-group/prospect-cli/pkg/hunter"
)

func TestFromStatus(t *testing.T) {
	tests := []struct {
		status int
		want   Kind
	}{
		{http.StatusUnauthorized, KindAuth},
		{http.StatusPaymentRequired, KindPlanRestricted},
		{http.StatusForbidden, KindPlanRestricted},
		{http.StatusTooManyRequests, KindRateLimited},
		{http.StatusNotFound, KindNotFound},
		{http.StatusUnprocessableEntity, KindNotFound},
		{http.StatusInternalServerError, KindTransient},
		{http.StatusBadGateway, KindTransient},
	}
	for _, tt := range tests {
		t.Run(fmt.Sprint(tt.status), func(t *testing.T) {
			assert.Equal(t, tt.want, FromStatus(tt.status))
		})
	}
}

func TestWrap(t *testing.T) {
	tests := []struct {
		name   string
		err    error
		kind   Kind
		status int
	}{
		{"apollo plan", &apollo.APIError{StatusCode: 403}, KindPlanRestricted, 403},
		{"hunter auth", fmt.Errorf("call: %w", &hunter.APIError{StatusCode: 401}), KindAuth, 401},
		{"clearbit rate", &clearbit.APIError{StatusCode: 429}, KindRateLimited, 429},
		{"timeout", context.DeadlineExceeded, KindTransient, 0},
		{"network", errors.New("dial tcp: connection refused"), KindTransient, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := Wrap("p", tt.err)
			var pe *Error
			require.True(t, errors.As(err, &pe))
			assert.Equal(t, tt.kind, pe.Kind)
			assert.Equal(t, tt.status, pe.Status)
			assert.Equal(t, "p", pe.Provider)
			assert.ErrorIs(t, err, tt.err)
		})
	}

	assert.NoError(t, Wrap("p", nil))

	already := NotFound("apollo")
	assert.Same(t, already, Wrap("hunter", already))
}

func TestClassify(t *testing.T) {
	assert.Equal(t, KindNotFound, Classify(NotFound("x")))
	assert.Equal(t, KindAuth, Classify(fmt.Errorf("wrapped: %w", &Error{Kind: KindAuth})))
	assert.Equal(t, KindTransient, Classify(errors.New("boom")))
}

func TestErrorMessage(t *testing.T) {
	err := &Error{Kind: KindPlanRestricted, Provider: "apollo", Status: 403, Err: errors.New("upgrade")}
	assert.Equal(t, "provider apollo [plan_restricted] status 403: upgrade", err.Error())
	assert.Equal(t, "provider hunter [not_found]", NotFound("hunter").Error())
}
