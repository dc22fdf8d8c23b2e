package dto

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFlexIntAcceptsStringsAndNumbers(t *testing.T) {
	var req CollegeSignupRequest
	require.NoError(t, json.Unmarshal([]byte(`{"yearOfGraduation":"2026"}`), &req))
	assert.Equal(t, FlexInt(2026), req.YearOfGraduation)

	require.NoError(t, json.Unmarshal([]byte(`{"yearOfGraduation":2027}`), &req))
	assert.Equal(t, FlexInt(2027), req.YearOfGraduation)

	require.NoError(t, json.Unmarshal([]byte(`{"yearOfGraduation":""}`), &req))
	assert.Equal(t, FlexInt(0), req.YearOfGraduation)

	assert.Error(t, json.Unmarshal([]byte(`{"yearOfGraduation":"twenty"}`), &req))
}

func TestNormalizeTrimsBeforeValidation(t *testing.T) {
	college := CollegeSignupRequest{Name: " Asha ", Email: " Asha@Example.COM ", CollegeName: "IIT ", PhoneNumber: " 9876543210"}
	college.Normalize()
	assert.Equal(t, "Asha", college.Name)
	assert.Equal(t, "asha@example.com", college.Email)
	assert.Equal(t, "IIT", college.CollegeName)
	assert.Equal(t, "9876543210", college.PhoneNumber)

	login := SchoolLoginRequest{Identifier: " 9876543210 "}
	login.Normalize()
	assert.Equal(t, "9876543210", login.Identifier)
}
