package lmierr_test

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/soa-illustrations/lmi/lmierr"
)

func TestConstructedErrorsUnwrapToTheirSentinel(t *testing.T) {
	cases := []struct {
		name string
		err  error
		want error
	}{
		{"configuration", lmierr.Configuration("bad product table"), lmierr.ErrConfiguration},
		{"invariant", lmierr.InvariantViolation("negative amount"), lmierr.ErrInvariantViolation},
		{"inforce", lmierr.InforceAnomaly("inforce at issue month"), lmierr.ErrInforceAnomaly},
		{"convergence", lmierr.ConvergenceFailure("failed to bracket"), lmierr.ErrConvergenceFailure},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			assert.True(t, errors.Is(c.err, c.want))
		})
	}
}

func TestIsFatalExcludesCancellation(t *testing.T) {
	assert.True(t, lmierr.IsFatal(lmierr.ConvergenceFailure("x")))
	assert.False(t, lmierr.IsFatal(lmierr.ErrCancelled))
	assert.True(t, lmierr.IsCancelled(lmierr.ErrCancelled))
	assert.False(t, lmierr.IsCancelled(lmierr.InvariantViolation("x")))
}

func TestErrorMessageIsPreservedVerbatim(t *testing.T) {
	err := lmierr.Configuration("state %s disagrees with levy", "CA")
	assert.Equal(t, "state CA disagrees with levy", err.Error())
}
