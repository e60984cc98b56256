package echoapi_test

import (
	"net/http"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestAttendanceAPI(t *testing.T) {
	app, _ := setup(t)
	admin := login(t, app, "admin", "admin123")
	teacher := login(t, app, "teacher", "teacher123")

	runHTTPTests(t, app, []httpTest{
		{
			name:     "students",
			method:   http.MethodGet,
			path:     "/v1/students",
			token:    teacher,
			wantCode: http.StatusOK,
			wantData: []byte(`[
				{"id":101,"name":"Alex Johnson"},{"id":102,"name":"Bella Cruz"},{"id":103,"name":"Chris Evans"},
				{"id":104,"name":"David Lee"},{"id":105,"name":"Emily White"}]`),
		},
		{
			name:     "empty month",
			method:   http.MethodGet,
			path:     "/v1/reports/2025-11",
			token:    teacher,
			wantCode: http.StatusOK,
			wantData: []byte(`{"yearMonth":"2025-11","totalDaysMarked":0,"students":null,
				"message":"No attendance data found for the selected month/year. The Admin needs to mark attendance first."}`),
		},
		{
			name:     "mark",
			method:   http.MethodPut,
			path:     "/v1/attendance/2025-11-03/students/103",
			body:     []byte(`{"status":"present"}`),
			token:    admin,
			wantCode: http.StatusOK,
			wantData: []byte(`{"date":"2025-11-03","rows":[
				{"id":101,"name":"Alex Johnson","status":"Not Marked"},
				{"id":102,"name":"Bella Cruz","status":"Not Marked"},
				{"id":103,"name":"Chris Evans","status":"Present"},
				{"id":104,"name":"David Lee","status":"Not Marked"},
				{"id":105,"name":"Emily White","status":"Not Marked"}]}`),
		},
		{
			name:     "mark absent",
			method:   http.MethodPut,
			path:     "/v1/attendance/2025-11-04/students/103",
			body:     []byte(`{"status":"Absent"}`),
			token:    admin,
			wantCode: http.StatusOK,
		},
		{
			name:     "teacher cannot mark",
			method:   http.MethodPut,
			path:     "/v1/attendance/2025-11-03/students/101",
			body:     []byte(`{"status":"Present"}`),
			token:    teacher,
			wantCode: http.StatusForbidden,
			wantData: marchallObj(t, httpErr{Error: "permission denied"}),
		},
		{
			name:     "teacher cannot read the day sheet",
			method:   http.MethodGet,
			path:     "/v1/attendance/2025-11-03",
			token:    teacher,
			wantCode: http.StatusForbidden,
		},
		{
			name:     "admin cannot view reports",
			method:   http.MethodGet,
			path:     "/v1/reports/2025-11",
			token:    admin,
			wantCode: http.StatusForbidden,
		},
		{
			name:     "anonymous cannot mark",
			method:   http.MethodPut,
			path:     "/v1/attendance/2025-11-03/students/101",
			body:     []byte(`{"status":"Present"}`),
			wantCode: http.StatusUnauthorized,
		},
		{
			name:     "bad date",
			method:   http.MethodPut,
			path:     "/v1/attendance/2025-02-30/students/101",
			body:     []byte(`{"status":"Present"}`),
			token:    admin,
			wantCode: http.StatusBadRequest,
			wantData: []byte(`{"date":"date must be a valid date (YYYY-MM-DD)"}`),
		},
		{
			name:     "bad status",
			method:   http.MethodPut,
			path:     "/v1/attendance/2025-11-03/students/101",
			body:     []byte(`{"status":"Late"}`),
			token:    admin,
			wantCode: http.StatusBadRequest,
			wantData: []byte(`{"status":"this field is required"}`),
		},
		{
			name:     "unknown student",
			method:   http.MethodPut,
			path:     "/v1/attendance/2025-11-03/students/999",
			body:     []byte(`{"status":"Present"}`),
			token:    admin,
			wantCode: http.StatusBadRequest,
			wantData: []byte(`{"studentId":"unknown student"}`),
		},
		{
			name:     "non numeric student",
			method:   http.MethodPut,
			path:     "/v1/attendance/2025-11-03/students/abc",
			body:     []byte(`{"status":"Present"}`),
			token:    admin,
			wantCode: http.StatusBadRequest,
			wantData: []byte(`{"studentId":"must be a number"}`),
		},
		{
			name:     "day sheet",
			method:   http.MethodGet,
			path:     "/v1/attendance/2025-11-04",
			token:    admin,
			wantCode: http.StatusOK,
			wantData: []byte(`{"date":"2025-11-04","rows":[
				{"id":101,"name":"Alex Johnson","status":"Not Marked"},
				{"id":102,"name":"Bella Cruz","status":"Not Marked"},
				{"id":103,"name":"Chris Evans","status":"Absent"},
				{"id":104,"name":"David Lee","status":"Not Marked"},
				{"id":105,"name":"Emily White","status":"Not Marked"}]}`),
		},
		{
			name:     "report",
			method:   http.MethodGet,
			path:     "/v1/reports/2025-11",
			token:    teacher,
			wantCode: http.StatusOK,
			wantData: []byte(`{"yearMonth":"2025-11","totalDaysMarked":2,"students":[
				{"id":101,"name":"Alex Johnson","presentCount":0,"absentCount":0,"totalDays":2,"percentage":0},
				{"id":102,"name":"Bella Cruz","presentCount":0,"absentCount":0,"totalDays":2,"percentage":0},
				{"id":103,"name":"Chris Evans","presentCount":1,"absentCount":1,"totalDays":2,"percentage":50},
				{"id":104,"name":"David Lee","presentCount":0,"absentCount":0,"totalDays":2,"percentage":0},
				{"id":105,"name":"Emily White","presentCount":0,"absentCount":0,"totalDays":2,"percentage":0}]}`),
		},
		{
			name:     "bad month",
			method:   http.MethodGet,
			path:     "/v1/reports/2025-13",
			token:    teacher,
			wantCode: http.StatusBadRequest,
			wantData: []byte(`{"yearMonth":"yearMonth must be a valid month (YYYY-MM)"}`),
		},
	})
}

func TestAttendanceAPI_PersistenceFailure(t *testing.T) {
	app, db := setup(t)
	admin := login(t, app, "admin", "admin123")
	db.FailWrites(assert.AnError)

	req, rec := newAuthRequest(http.MethodPut, "/v1/attendance/2025-11-03/students/101", admin, []byte(`{"status":"Present"}`))
	app.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.True(t, strings.Contains(rec.Body.String(), "changes could not be saved"), rec.Body.String())

	db.FailWrites(nil)
	req, rec = newAuthRequest(http.MethodGet, "/v1/attendance/2025-11-03", admin)
	app.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.NotContains(t, rec.Body.String(), `"Present"`)
}
