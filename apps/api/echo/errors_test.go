package echoapi

import (
	"net/http"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"

	"github.com/trezcool/masomo-lessons/core"
	"github.com/trezcool/masomo-lessons/core/activity"
)

func TestHttpError(t *testing.T) {
	translator := core.NewTranslator()

	tests := []struct {
		name        string
		err         error
		wantCode    int
		wantMessage interface{}
	}{
		{name: "not found", err: errors.Wrap(activity.ErrNotFound, "getting activity"), wantCode: http.StatusNotFound, wantMessage: activity.ErrNotFound.Error()},
		{name: "locked", err: errors.Wrap(errors.Wrap(core.ErrLocked, "lesson:l1:activities"), "moving activity"), wantCode: http.StatusConflict, wantMessage: core.ErrLocked.Error()},
		{name: "type mismatch keeps context", err: errors.Wrap(activity.ErrTypeMismatch, "activity a is a reading"), wantCode: http.StatusBadRequest, wantMessage: "activity a is a reading: " + activity.ErrTypeMismatch.Error()},
		{name: "field errors", err: core.NewValidationError(activity.ErrOutOfRange, core.FieldError{Field: "index", Error: "out of range"}), wantCode: http.StatusBadRequest, wantMessage: map[string]string{"index": "out of range"}},
		{name: "plain validation", err: core.NewValidationError(errors.New("payload is required")), wantCode: http.StatusBadRequest, wantMessage: "payload is required"},
		{name: "forbidden", err: errors.Wrap(errHttpForbidden, "checking role"), wantCode: http.StatusForbidden, wantMessage: "permission denied"},
		{name: "store failure", err: core.NewPersistenceError("select", core.CollActivities, errors.New("connection reset")), wantCode: http.StatusInternalServerError, wantMessage: "Internal Server Error"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			code, message := httpError(tt.err, translator)
			assert.Equal(t, tt.wantCode, code)
			assert.Equal(t, tt.wantMessage, message)
		})
	}
}
