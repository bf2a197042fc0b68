package http

import (
	"errors"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/tazhibayda/workspace-service/internal/domain"
	"github.com/tazhibayda/workspace-service/internal/provision"
	"github.com/tazhibayda/workspace-service/internal/repo"
)

func TestStatusOf(t *testing.T) {
	cases := []struct {
		err  error
		want int
	}{
		{domain.ErrEmailRequired, http.StatusBadRequest},
		{provision.ErrPasswordRequired, http.StatusBadRequest},
		{domain.ErrInvalidCredentials, http.StatusUnauthorized},
		{domain.ErrEmailExists, http.StatusConflict},
		{repo.ErrDuplicate, http.StatusConflict},
		{repo.ErrWriteConflict, http.StatusConflict},
		{domain.ErrWorkspaceNotFound, http.StatusNotFound},
		{errors.New("socket closed"), http.StatusInternalServerError},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, statusOf(tc.err), tc.err.Error())
	}
}
