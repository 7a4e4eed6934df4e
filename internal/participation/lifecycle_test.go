package participation

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStatus_CanTransition(t *testing.T) {
	all := []Status{StatusPending, StatusConfirmed, StatusRejected, StatusCanceled}
	allowed := map[[2]Status]bool{
		{StatusPending, StatusConfirmed}:  true,
		{StatusPending, StatusRejected}:   true,
		{StatusPending, StatusCanceled}:   true,
		{StatusConfirmed, StatusCanceled}: true,
		{StatusRejected, StatusCanceled}:  true,
		{StatusCanceled, StatusCanceled}:  true,
	}

	for _, from := range all {
		for _, to := range all {
			assert.Equal(t, allowed[[2]Status{from, to}], from.CanTransition(to), "%s -> %s", from, to)
		}
	}
}

func TestTransition(t *testing.T) {
	req := Request{ID: 4, Status: StatusConfirmed}

	out, err := Transition(req, StatusCanceled)
	require.NoError(t, err)
	assert.Equal(t, StatusCanceled, out.Status)

	_, err = Transition(req, StatusRejected)
	require.Error(t, err)
	assert.True(t, IsConflict(err))

	var de *Error
	require.ErrorAs(t, err, &de)
	assert.Equal(t, "4", de.Details["request_id"])
}

func TestStatus_IsInitial(t *testing.T) {
	assert.True(t, StatusPending.IsInitial())
	assert.True(t, StatusConfirmed.IsInitial())
	assert.False(t, StatusRejected.IsInitial())
	assert.False(t, StatusCanceled.IsInitial())
}

func TestParseDisposition(t *testing.T) {
	d, err := ParseDisposition("APPROVE")
	require.NoError(t, err)
	assert.Equal(t, DispositionApprove, d)

	d, err = ParseDisposition("REJECTED")
	require.NoError(t, err)
	assert.Equal(t, DispositionReject, d)

	_, err = ParseDisposition("maybe")
	assert.True(t, IsValidation(err))
}

func TestParseStatus(t *testing.T) {
	st, err := ParseStatus("CANCELED")
	require.NoError(t, err)
	assert.Equal(t, StatusCanceled, st)
	assert.False(t, st.IsLive())

	_, err = ParseStatus("CANCELLED")
	assert.True(t, IsValidation(err))
}
